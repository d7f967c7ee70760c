package service

import (
	"vaanikaam/internal/domain"
)

// SessionClaims is the decoded payload of a session token. The role claim
// names the active role at issuance time; authorization decisions must still
// reconcile against the live user record.
type SessionClaims struct {
	UserID domain.UserID
	Role   domain.Role
}

type TokenService interface {
	Issue(user *domain.User) (string, error)
	Parse(token string) (*SessionClaims, error)
}
