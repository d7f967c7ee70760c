package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"vaanikaam/internal/domain"
	"vaanikaam/internal/dto"
	"vaanikaam/internal/service"
	"vaanikaam/internal/store"
)

// AuthContext is the typed authorization context attached to authenticated
// requests: who the caller is and which role their session declared.
type AuthContext struct {
	UserID    domain.UserID
	RoleClaim domain.Role
}

type ctxKeyAuth struct{}
type ctxKeyUser struct{}

// userLoader resolves token subjects to live user records. Implementations
// return store.ErrRecordNotFound when the subject no longer exists.
type userLoader interface {
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)
}

// Authenticator validates the bearer token and resolves its subject against
// the database on every request. The freshly loaded user — not the token
// claims — is what downstream authorization checks trust.
func Authenticator(tokens service.TokenService, users userLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Message: "Missing Authorization token"})
				return
			}

			claims, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Message: "Invalid or expired token"})
				return
			}

			user, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, store.ErrRecordNotFound) {
					writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Message: "User not found"})
					return
				}
				writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Message: "Authentication failed"})
				return
			}

			roleClaim := claims.Role
			if roleClaim == "" {
				roleClaim = user.ActiveRole
			}

			ctx := context.WithValue(r.Context(), ctxKeyAuth{}, AuthContext{UserID: user.ID, RoleClaim: roleClaim})
			ctx = context.WithValue(ctx, ctxKeyUser{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func AuthFromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(ctxKeyAuth{}).(AuthContext)
	return ac, ok
}

func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(ctxKeyUser{}).(*domain.User)
	return u, ok
}

func RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return RequireAnyRole(role)
}

// RequireAnyRole gates a route on the caller's effective active role. The
// check runs against the live user record, so a role revoked or an account
// deactivated after token issuance still rejects.
func RequireAnyRole(roles ...domain.Role) func(http.Handler) http.Handler {
	permitted := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		permitted[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Message: "User not found"})
				return
			}
			if !user.IsActive {
				writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Message: "User is deactivated"})
				return
			}

			active := user.ActiveRole
			if ac, ok := AuthFromContext(r.Context()); ok && ac.RoleClaim != "" {
				active = ac.RoleClaim
			}
			if _, ok := permitted[active]; !ok || !user.Roles.Contains(active) {
				writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Message: "Insufficient role access"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
