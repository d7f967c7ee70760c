package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"vaanikaam/internal/domain"
	"vaanikaam/internal/service"
	"vaanikaam/internal/store"

	"github.com/google/uuid"
)

type stubTokens struct {
	claims map[string]*service.SessionClaims
}

func (s stubTokens) Issue(*domain.User) (string, error) { return "", errors.New("not implemented") }

func (s stubTokens) Parse(token string) (*service.SessionClaims, error) {
	c, ok := s.claims[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return c, nil
}

type stubUsers struct {
	byID map[domain.UserID]*domain.User
}

func (s stubUsers) GetByID(_ context.Context, id domain.UserID) (*domain.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticatorMissingToken(t *testing.T) {
	mw := Authenticator(stubTokens{}, stubUsers{})
	for _, header := range []string{"", "Token abc", "bearer abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		mw(okHandler()).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: status = %d, want 401", header, rec.Code)
		}
	}
}

func TestAuthenticatorBadToken(t *testing.T) {
	mw := Authenticator(stubTokens{}, stubUsers{})
	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthenticatorDeletedUser(t *testing.T) {
	id := uuid.New()
	tokens := stubTokens{claims: map[string]*service.SessionClaims{
		"session": {UserID: id, Role: domain.RoleWorker},
	}}
	mw := Authenticator(tokens, stubUsers{byID: map[domain.UserID]*domain.User{}})

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer session")
	rec := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthenticatorAttachesUser(t *testing.T) {
	user := &domain.User{
		ID:         uuid.New(),
		Phone:      "+919876543210",
		Roles:      domain.RoleList{domain.RoleWorker},
		ActiveRole: domain.RoleWorker,
		IsActive:   true,
	}
	tokens := stubTokens{claims: map[string]*service.SessionClaims{
		"session": {UserID: user.ID, Role: domain.RoleWorker},
	}}
	mw := Authenticator(tokens, stubUsers{byID: map[domain.UserID]*domain.User{user.ID: user}})

	var gotUser *domain.User
	var gotAuth AuthContext
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = UserFromContext(r.Context())
		gotAuth, _ = AuthFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer session")
	rec := httptest.NewRecorder()
	mw(inner).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUser == nil || gotUser.ID != user.ID {
		t.Fatalf("user in context = %v", gotUser)
	}
	if gotAuth.RoleClaim != domain.RoleWorker {
		t.Fatalf("role claim = %s", gotAuth.RoleClaim)
	}
}

func withUser(user *domain.User, roleClaim domain.Role) func(*http.Request) *http.Request {
	return func(r *http.Request) *http.Request {
		ctx := context.WithValue(r.Context(), ctxKeyAuth{}, AuthContext{UserID: user.ID, RoleClaim: roleClaim})
		ctx = context.WithValue(ctx, ctxKeyUser{}, user)
		return r.WithContext(ctx)
	}
}

func TestRequireAnyRole(t *testing.T) {
	active := &domain.User{
		ID:         uuid.New(),
		Roles:      domain.RoleList{domain.RoleWorker, domain.RoleCompany},
		ActiveRole: domain.RoleWorker,
		IsActive:   true,
	}
	deactivated := &domain.User{
		ID:         uuid.New(),
		Roles:      domain.RoleList{domain.RoleWorker},
		ActiveRole: domain.RoleWorker,
		IsActive:   false,
	}
	// Token minted while the role was granted; the role has since been revoked.
	revoked := &domain.User{
		ID:         uuid.New(),
		Roles:      domain.RoleList{domain.RoleWorker},
		ActiveRole: domain.RoleWorker,
		IsActive:   true,
	}

	tests := []struct {
		name      string
		user      *domain.User
		roleClaim domain.Role
		permitted []domain.Role
		want      int
	}{
		{"active role permitted", active, domain.RoleWorker, []domain.Role{domain.RoleWorker}, http.StatusOK},
		{"claimed role permitted", active, domain.RoleCompany, []domain.Role{domain.RoleCompany}, http.StatusOK},
		{"active role not permitted", active, domain.RoleWorker, []domain.Role{domain.RoleAdmin}, http.StatusForbidden},
		{"deactivated account", deactivated, domain.RoleWorker, []domain.Role{domain.RoleWorker}, http.StatusForbidden},
		{"revoked role claim", revoked, domain.RoleCompany, []domain.Role{domain.RoleCompany}, http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mw := RequireAnyRole(tc.permitted...)
			req := withUser(tc.user, tc.roleClaim)(httptest.NewRequest(http.MethodGet, "/", nil))
			rec := httptest.NewRecorder()
			mw(okHandler()).ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestRequireAnyRoleNoUser(t *testing.T) {
	mw := RequireAnyRole(domain.RoleWorker)
	rec := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
