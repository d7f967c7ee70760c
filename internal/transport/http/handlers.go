package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"vaanikaam/internal/domain"
	"vaanikaam/internal/dto"
	"vaanikaam/internal/netutil"
	"vaanikaam/internal/observability/middleware"
	"vaanikaam/internal/service"
)

type Handler struct {
	Auth service.AuthService

	// BotCheck is consulted on the unauthenticated entry points when
	// configured; nil disables the check.
	BotCheck service.BotCheckVerifier
}

func NewHandler(auth service.AuthService, botCheck service.BotCheckVerifier) *Handler {
	return &Handler{Auth: auth, BotCheck: botCheck}
}

// clientIP returns the caller's address in canonical form. The router's
// RealIP middleware has already folded the proxy headers into RemoteAddr.
func clientIP(r *http.Request) string {
	if normalized, ok := netutil.NormalizeIP(r.RemoteAddr); ok {
		return normalized
	}
	return r.RemoteAddr
}

func (h *Handler) botCheckPasses(w http.ResponseWriter, r *http.Request, token, action string) bool {
	if h.BotCheck == nil {
		return true
	}
	result := h.BotCheck.Verify(r.Context(), token, action)
	if !result.Accepted {
		slog.Warn("bot check rejected request",
			"action", action,
			"codes", result.ErrorCodes,
			"request_id", middleware.RequestIDFromContext(r.Context()),
		)
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: "Bot check verification failed"})
		return false
	}
	return true
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body"})
		return
	}
	if req.Assertion() == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: "Assertion token is required"})
		return
	}
	if req.Password == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: "Password is required and must be at least 6 characters"})
		return
	}
	if !h.botCheckPasses(w, r, req.BotCheckToken, "register") {
		return
	}

	res, err := h.Auth.Register(r.Context(), req, clientIP(r), r.UserAgent())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body"})
		return
	}
	if req.Phone == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: "Phone and password are required"})
		return
	}

	res, err := h.Auth.Login(r.Context(), req, clientIP(r), r.UserAgent())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body"})
		return
	}
	if req.Phone == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: "Phone is required"})
		return
	}
	if !h.botCheckPasses(w, r, req.BotCheckToken, "forgot-password") {
		return
	}

	res, err := h.Auth.RequestPasswordReset(r.Context(), req.Phone, clientIP(r), r.UserAgent())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body"})
		return
	}
	if req.Phone == "" || req.Otp == "" || req.NewPassword == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: "Phone, OTP, and new password are required"})
		return
	}

	res, err := h.Auth.ResetPassword(r.Context(), req, clientIP(r), r.UserAgent())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) AddRole(w http.ResponseWriter, r *http.Request) {
	user, role, ok := h.roleRequest(w, r)
	if !ok {
		return
	}
	updated, err := h.Auth.AddRole(r.Context(), user, role)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.UserResponse{User: updated})
}

func (h *Handler) SwitchRole(w http.ResponseWriter, r *http.Request) {
	user, role, ok := h.roleRequest(w, r)
	if !ok {
		return
	}
	updated, err := h.Auth.SwitchRole(r.Context(), user, role)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.UserResponse{User: updated})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Message: "Unauthorized"})
		return
	}
	writeJSON(w, http.StatusOK, dto.UserResponse{User: user})
}

func (h *Handler) roleRequest(w http.ResponseWriter, r *http.Request) (*domain.User, domain.Role, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Message: "Unauthorized"})
		return nil, "", false
	}
	var req dto.RoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body"})
		return nil, "", false
	}
	if req.Role == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: "Role is required"})
		return nil, "", false
	}
	return user, domain.Role(req.Role), true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeDomainError maps anticipated domain outcomes to 4xx responses with
// hint flags; anything unrecognized is logged in full and returned as a
// generic 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrPasswordTooShort):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: "Password is required and must be at least 6 characters"})
	case errors.Is(err, domain.ErrInvalidRole):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid role"})
	case errors.Is(err, domain.ErrAssertionNoPhone):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: "Phone number not found in assertion"})
	case errors.Is(err, domain.ErrAssertionRejected):
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Message: "Invalid phone identity assertion"})
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Message: "Invalid phone or password"})
	case errors.Is(err, domain.ErrInvalidOrExpiredOtp):
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Message: "OTP is invalid or has expired"})
	case errors.Is(err, domain.ErrPhoneNotVerified):
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{
			Message:           "Phone not verified. Please complete phone verification first.",
			ShouldVerifyPhone: true,
		})
	case errors.Is(err, domain.ErrAccountDeactivated):
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Message: "Account is deactivated"})
	case errors.Is(err, domain.ErrRoleNotGranted):
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Message: "Role not assigned"})
	case errors.Is(err, domain.ErrNotRegistered):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Message: "Phone number not registered"})
	case errors.Is(err, domain.ErrAlreadyRegistered):
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{
			Message:                "Phone number already registered. Please login with password.",
			ShouldUsePasswordLogin: true,
		})
	case errors.Is(err, domain.ErrEmailInUse):
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Message: "Email already in use"})
	default:
		slog.Error("request failed",
			"error", err,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFromContext(r.Context()),
		)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Message: "Internal server error"})
	}
}
