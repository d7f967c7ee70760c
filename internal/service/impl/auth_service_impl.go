package impl

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"vaanikaam/internal/domain"
	"vaanikaam/internal/dto"
	"vaanikaam/internal/netutil"
	"vaanikaam/internal/observability/metrics"
	"vaanikaam/internal/observability/middleware"
	"vaanikaam/internal/service"
	"vaanikaam/internal/store"
)

const MinPasswordLength = 6

type AuthServiceImpl struct {
	Store    dataStore
	Hasher   service.SecretHasher
	Tokens   service.TokenService
	Otp      service.OtpService
	Identity service.PhoneIdentityVerifier
	Sms      service.OtpDeliverer

	// OtpDebug echoes generated reset codes in API responses. Development
	// only; a production deployment must leave it off.
	OtpDebug bool
}

func NewAuthServiceImpl(
	st *store.Store,
	hasher service.SecretHasher,
	tokens service.TokenService,
	otp service.OtpService,
	identity service.PhoneIdentityVerifier,
	sms service.OtpDeliverer,
	otpDebug bool,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		Store:    gormStoreAdapter{store: st},
		Hasher:   hasher,
		Tokens:   tokens,
		Otp:      otp,
		Identity: identity,
		Sms:      sms,
		OtpDebug: otpDebug,
	}
}

type dataStore interface {
	WithTx(ctx context.Context, fn func(tx storeTx) error) error
	Users() userStore
	Audit() auditStore
}

type storeTx interface {
	Users() userStore
}

type userStore interface {
	Create(ctx context.Context, usr *domain.User) error
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	UpdatePassword(ctx context.Context, userID domain.UserID, passwordHash string) error
	UpdateRoles(ctx context.Context, userID domain.UserID, roles domain.RoleList, active domain.Role) error
}

type auditStore interface {
	Append(ctx context.Context, ev *domain.AuditEvent) error
}

type gormStoreAdapter struct {
	store *store.Store
}

func (g gormStoreAdapter) WithTx(ctx context.Context, fn func(tx storeTx) error) error {
	if g.store == nil {
		return errors.New("nil store")
	}
	return g.store.WithTx(ctx, func(tx *store.Store) error {
		return fn(gormTxAdapter{tx: tx})
	})
}

func (g gormStoreAdapter) Users() userStore  { return g.store.Users() }
func (g gormStoreAdapter) Audit() auditStore { return g.store.AuditEvents() }

type gormTxAdapter struct {
	tx *store.Store
}

func (g gormTxAdapter) Users() userStore { return g.tx.Users() }

// Register completes the phone-identity-assertion path: verify the external
// assertion, refuse phones that already have an account, then create the
// user with a hashed password and mint a session token.
func (a *AuthServiceImpl) Register(ctx context.Context, r dto.RegisterRequest, ip, ua string) (*dto.AuthResponse, error) {
	result := "failure"
	defer func() { metrics.RegistrationsTotal.WithLabelValues(result).Inc() }()

	if len(r.Password) < MinPasswordLength {
		return nil, domain.ErrPasswordTooShort
	}

	claim, err := a.Identity.VerifyAssertion(ctx, r.Assertion())
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, domain.ErrAssertionRejected
	}
	if claim.Phone == "" {
		return nil, domain.ErrAssertionNoPhone
	}

	if _, err := a.Store.Users().GetByPhone(ctx, claim.Phone); err == nil {
		return nil, domain.ErrAlreadyRegistered
	} else if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, err
	}

	digest, err := a.Hasher.Hash(r.Password)
	if err != nil {
		return nil, err
	}

	name := r.Name
	if name == "" {
		name = claim.Name
	}
	email := r.Email
	if email == "" {
		email = claim.Email
	}
	var emailPtr *string
	if email != "" {
		e := strings.ToLower(strings.TrimSpace(email))
		emailPtr = &e
	}

	user := &domain.User{
		Name:            name,
		Email:           emailPtr,
		Phone:           claim.Phone,
		PasswordHash:    &digest,
		Roles:           domain.RoleList{domain.RoleWorker},
		ActiveRole:      domain.RoleWorker,
		IsActive:        true,
		IsPhoneVerified: true,
	}
	err = a.Store.WithTx(ctx, func(tx storeTx) error {
		return tx.Users().Create(ctx, user)
	})
	if err != nil {
		// The unique indexes are the backstop against races the pre-check
		// missed. Users carries two: re-check the phone to tell which one
		// fired.
		if errors.Is(err, store.ErrDuplicateKey) {
			if _, lookupErr := a.Store.Users().GetByPhone(ctx, claim.Phone); lookupErr == nil {
				return nil, domain.ErrAlreadyRegistered
			}
			return nil, domain.ErrEmailInUse
		}
		return nil, err
	}

	token, err := a.Tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	metrics.TokensIssuedTotal.WithLabelValues("register", "success").Inc()

	a.audit(ctx, &user.ID, "register", "success", user.Phone, ip, ua)
	result = "success"
	slog.Info("user registered",
		"user_id", user.ID,
		"request_id", middleware.RequestIDFromContext(ctx),
	)
	return &dto.AuthResponse{Message: "Registration successful", User: user, Token: token}, nil
}

// Login is the returning-user password path. Unknown phone, missing password
// secret and wrong password all collapse into ErrInvalidCredentials so the
// response cannot be used to enumerate accounts.
func (a *AuthServiceImpl) Login(ctx context.Context, r dto.LoginRequest, ip, ua string) (*dto.AuthResponse, error) {
	result := "failure"
	defer func() { metrics.LoginsTotal.WithLabelValues(result).Inc() }()

	user, err := a.Store.Users().GetByPhone(ctx, r.Phone)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			// Burn a comparison anyway so this path costs the same as a
			// wrong password.
			a.Hasher.Verify(r.Password, "")
			a.audit(ctx, nil, "login", "failure", r.Phone, ip, ua)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	var digest string
	if user.PasswordHash != nil {
		digest = *user.PasswordHash
	}
	if !a.Hasher.Verify(r.Password, digest) {
		a.audit(ctx, &user.ID, "login", "failure", r.Phone, ip, ua)
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsPhoneVerified {
		return nil, domain.ErrPhoneNotVerified
	}
	if !user.IsActive {
		return nil, domain.ErrAccountDeactivated
	}

	token, err := a.Tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	metrics.TokensIssuedTotal.WithLabelValues("login", "success").Inc()

	a.audit(ctx, &user.ID, "login", "success", user.Phone, ip, ua)
	result = "success"
	slog.Info("user logged in",
		"user_id", user.ID,
		"role", user.ActiveRole,
		"request_id", middleware.RequestIDFromContext(ctx),
	)
	return &dto.AuthResponse{User: user, Token: token}, nil
}

// RequestPasswordReset issues a password-reset OTP for an existing,
// phone-verified account and hands it to the SMS boundary.
func (a *AuthServiceImpl) RequestPasswordReset(ctx context.Context, phone, ip, ua string) (*dto.ForgotPasswordResponse, error) {
	user, err := a.Store.Users().GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, domain.ErrNotRegistered
		}
		return nil, err
	}
	if !user.IsPhoneVerified {
		return nil, domain.ErrPhoneNotVerified
	}

	code, err := a.Otp.Issue(ctx, phone, domain.OtpPurposePasswordReset)
	if err != nil {
		return nil, err
	}

	if err := a.Sms.Deliver(ctx, phone, code); err != nil {
		// The challenge is stored; the caller can request a fresh code if
		// this one never arrives.
		slog.Warn("otp delivery failed",
			"phone", phone,
			"error", err,
			"request_id", middleware.RequestIDFromContext(ctx),
		)
	}

	a.audit(ctx, &user.ID, "forgot-password", "success", phone, ip, ua)

	resp := &dto.ForgotPasswordResponse{Message: "OTP sent for password reset"}
	if a.OtpDebug {
		resp.Otp = code
		resp.Note = "Debug mode: OTP shown in response"
	}
	return resp, nil
}

// ResetPassword redeems a password-reset OTP: the verify and the consume run
// atomically, so a code can reset at most one password.
func (a *AuthServiceImpl) ResetPassword(ctx context.Context, r dto.ResetPasswordRequest, ip, ua string) (*dto.AuthResponse, error) {
	result := "failure"
	defer func() { metrics.PasswordResetsTotal.WithLabelValues(result).Inc() }()

	if len(r.NewPassword) < MinPasswordLength {
		return nil, domain.ErrPasswordTooShort
	}

	user, err := a.Store.Users().GetByPhone(ctx, r.Phone)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, domain.ErrNotRegistered
		}
		return nil, err
	}

	outcome, err := a.Otp.VerifyAndConsume(ctx, r.Phone, domain.OtpPurposePasswordReset, r.Otp)
	if err != nil {
		return nil, err
	}
	if outcome != service.OtpValid {
		a.audit(ctx, &user.ID, "reset-password", "failure", r.Phone, ip, ua)
		return nil, domain.ErrInvalidOrExpiredOtp
	}

	digest, err := a.Hasher.Hash(r.NewPassword)
	if err != nil {
		return nil, err
	}
	if err := a.Store.Users().UpdatePassword(ctx, user.ID, digest); err != nil {
		return nil, err
	}
	user.PasswordHash = &digest

	token, err := a.Tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	metrics.TokensIssuedTotal.WithLabelValues("reset-password", "success").Inc()

	a.audit(ctx, &user.ID, "reset-password", "success", r.Phone, ip, ua)
	result = "success"
	slog.Info("password reset",
		"user_id", user.ID,
		"request_id", middleware.RequestIDFromContext(ctx),
	)
	return &dto.AuthResponse{Message: "Password reset successful", User: user, Token: token}, nil
}

// AddRole grants a role from the allowed set. Idempotent; the first granted
// role also becomes active when none was.
func (a *AuthServiceImpl) AddRole(ctx context.Context, user *domain.User, role domain.Role) (*domain.User, error) {
	if !domain.ValidRole(role) {
		return nil, domain.ErrInvalidRole
	}

	roles := append(domain.RoleList(nil), user.Roles...)
	changed := roles.Add(role)
	active := user.ActiveRole
	if active == "" {
		active = role
		changed = true
	}
	if changed {
		if err := a.Store.Users().UpdateRoles(ctx, user.ID, roles, active); err != nil {
			return nil, err
		}
		user.Roles = roles
		user.ActiveRole = active
	}
	return user, nil
}

// SwitchRole changes the active role; the target must already be granted.
func (a *AuthServiceImpl) SwitchRole(ctx context.Context, user *domain.User, role domain.Role) (*domain.User, error) {
	if !domain.ValidRole(role) {
		return nil, domain.ErrInvalidRole
	}
	if !user.Roles.Contains(role) {
		return nil, domain.ErrRoleNotGranted
	}
	if user.ActiveRole != role {
		if err := a.Store.Users().UpdateRoles(ctx, user.ID, user.Roles, role); err != nil {
			return nil, err
		}
		user.ActiveRole = role
	}
	return user, nil
}

func (a *AuthServiceImpl) audit(ctx context.Context, userID *domain.UserID, action, result, phone, ip, ua string) {
	if normalized, ok := netutil.NormalizeIP(ip); ok {
		ip = normalized
	}
	ev := &domain.AuditEvent{
		UserID:    userID,
		Action:    action,
		Result:    result,
		Phone:     phone,
		IP:        ip,
		UserAgent: netutil.TruncateUserAgent(ua),
	}
	if err := a.Store.Audit().Append(ctx, ev); err != nil {
		slog.Warn("audit append failed", "action", action, "error", err)
	}
}
