package impl

import (
	"time"

	"vaanikaam/internal/domain"
	"vaanikaam/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ====== Config ======

type TokenConfig struct {
	Issuer     string
	TTL        time.Duration // e.g. 7 * 24h
	SigningKey []byte        // HS256 secret
}

// ====== Claims ======

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ====== Service ======

type TokenServiceImpl struct {
	cfg TokenConfig
}

func NewTokenServiceHS256(cfg TokenConfig) *TokenServiceImpl {
	return &TokenServiceImpl{cfg: cfg}
}

// Issue mints a session token bound to the user's active role at issuance.
func (t *TokenServiceImpl) Issue(user *domain.User) (string, error) {
	if len(t.cfg.SigningKey) == 0 {
		return "", ErrNoSigningKey
	}
	now := time.Now().UTC()
	claims := sessionClaims{
		Role: string(user.ActiveRole),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.cfg.Issuer,
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.cfg.SigningKey)
}

// Parse validates signature, expiry and issuer and returns the decoded
// session claims.
func (t *TokenServiceImpl) Parse(tokenStr string) (*service.SessionClaims, error) {
	claims := &sessionClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	tok, err := parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.cfg.SigningKey, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != t.cfg.Issuer {
		return nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &service.SessionClaims{
		UserID: userID,
		Role:   domain.Role(claims.Role),
	}, nil
}
