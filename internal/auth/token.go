package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/deakteri/damareen/internal/errors"
)

// DefaultTokenExpiry is how long an issued access token stays valid.
const DefaultTokenExpiry = 24 * time.Hour

// claims is the internal claims type used for JWT parsing.
type claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// TokenIssuer issues and verifies HS256 access tokens carrying a user id.
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer with the given signing secret. A
// non-positive expiry falls back to DefaultTokenExpiry.
func NewTokenIssuer(secret string, expiry time.Duration) *TokenIssuer {
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	return &TokenIssuer{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

// Issue signs a token for userID.
func (t *TokenIssuer) Issue(userID string) (string, error) {
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
		},
		UserID: userID,
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindInternal, "sign token", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning the user id it carries.
// Expired, malformed or wrongly signed tokens report an unauthorized error.
func (t *TokenIssuer) Verify(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindUnauthorized, "invalid or expired token", err)
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || c.UserID == "" {
		return "", apperrors.New(apperrors.KindUnauthorized, "invalid or expired token")
	}
	return c.UserID, nil
}
