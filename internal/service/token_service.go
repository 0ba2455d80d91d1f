package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken collapses every verification failure into a single outcome.
// Callers never learn whether the signature, expiry or payload was at fault.
var ErrInvalidToken = errors.New("invalid session token")

// TokenClaims binds a device UUID and a user ID into a signed session token.
type TokenClaims struct {
	UUID   string `json:"uuid"`
	UserID uint   `json:"userID"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies stateless session tokens. Tokens stay
// cryptographically valid until expiry; live revocation happens in the auth
// resolver via the client's signed-in-user reference.
type TokenService interface {
	Issue(deviceUUID string, userID uint) (string, error)
	Verify(token string) (TokenClaims, error)
}

type tokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService constructs a token service signing with the process-wide secret.
func NewTokenService(secret string, ttl time.Duration) TokenService {
	return &tokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *tokenService) Issue(deviceUUID string, userID uint) (string, error) {
	if deviceUUID == "" || userID == 0 {
		return "", fmt.Errorf("device uuid and user id must be provided")
	}

	claims := TokenClaims{
		UUID:   deviceUUID,
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(s.now().Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(s.now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	return signed, nil
}

func (s *tokenService) Verify(tokenString string) (TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return TokenClaims{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || claims.UUID == "" || claims.UserID == 0 {
		return TokenClaims{}, ErrInvalidToken
	}

	return *claims, nil
}
