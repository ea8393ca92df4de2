package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 4 * time.Hour
)

// Verification failures are a closed set. Handlers switch on these and map
// each to its own response; they never inspect message text.
var (
	ErrTokenMissing   = errors.New("token missing")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenExpired   = errors.New("token expired")
	ErrBadSignature   = errors.New("invalid token signature")
)

type AccessClaims struct {
	UID  string `json:"uid"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	UID          string `json:"uid"`
	Role         string `json:"role"`
	TokenVersion int    `json:"tokenVersion"`
	jwt.RegisteredClaims
}

// Codec signs and verifies access/refresh token pairs. Access and refresh
// tokens use distinct secrets so one can never stand in for the other.
type Codec struct {
	AccessSecret  []byte
	RefreshSecret []byte

	// Now overrides the issuance clock in tests. Nil means time.Now.
	Now func() time.Time
}

func (c *Codec) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Codec) IssueAccessToken(uid, role string) (string, error) {
	now := c.now()
	claims := &AccessClaims{
		UID:  uid,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.AccessSecret)
}

func (c *Codec) IssueRefreshToken(uid, role string, tokenVersion int) (string, error) {
	now := c.now()
	claims := &RefreshClaims{
		UID:          uid,
		Role:         role,
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(RefreshTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.RefreshSecret)
}

func (c *Codec) VerifyAccess(raw string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := verify(raw, &claims, c.AccessSecret); err != nil {
		return nil, err
	}
	return &claims, nil
}

func (c *Codec) VerifyRefresh(raw string) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := verify(raw, &claims, c.RefreshSecret); err != nil {
		return nil, err
	}
	return &claims, nil
}

func verify(raw string, claims jwt.Claims, secret []byte) error {
	if raw == "" {
		return ErrTokenMissing
	}
	t, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrBadSignature
		}
		return secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, ErrBadSignature):
			return ErrBadSignature
		default:
			return ErrTokenMalformed
		}
	}
	if !t.Valid {
		return ErrTokenMalformed
	}
	return nil
}
