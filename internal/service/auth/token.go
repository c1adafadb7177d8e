// Package auth issues and checks admin access tokens.
// Only admin routes (credit approval, seller and phone management) require a token.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultTokenTTL      = 24 * time.Hour
	defaultSigningMethod = "HS256"

	RoleAdmin = "admin"
)

var ErrTokenInvalid = errors.New("token is invalid")

type AdminClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Token manager with sensible default
type Config struct {
	// Secret key to sign tokens
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Token lifetime
	// If not set than default is used
	TTL time.Duration
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

type TokenManager struct {
	// Secret key to sign token
	key string

	// JWT MAC (Message Authentication Code) algorithm
	alg jwt.SigningMethod

	ttl time.Duration
}

func New(cfg Config) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg := jwt.GetSigningMethod(cfg.Alg)
	if alg == nil {
		return nil, fmt.Errorf("unknown signing method %q", cfg.Alg)
	}

	if cfg.TTL == 0 {
		cfg.TTL = defaultTokenTTL
	}

	return &TokenManager{
		key: cfg.SecretKey,
		alg: alg,
		ttl: cfg.TTL,
	}, nil
}

// Issue admin token for subject (operator name, e.g. "ops")
func (m *TokenManager) Issue(subject string) (IssuedToken, error) {
	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(m.ttl)

	token := jwt.NewWithClaims(
		m.alg,
		AdminClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   subject,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			Role: RoleAdmin,
		},
	)
	value, err := token.SignedString([]byte(m.key))
	if err != nil {
		return IssuedToken{}, fmt.Errorf("error while signing token. Err: %w", err)
	}

	return IssuedToken{Value: value, ExpiresAt: expiresAt}, nil
}

// Parse and validate admin token, return its subject
func (m *TokenManager) ParseAdmin(value string) (subject string, err error) {
	claims := &AdminClaims{}

	_, err = jwt.ParseWithClaims(
		value,
		claims,
		func(t *jwt.Token) (any, error) {
			return []byte(m.key), nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if claims.Role != RoleAdmin {
		return "", fmt.Errorf("%w: role %q is not allowed", ErrTokenInvalid, claims.Role)
	}

	return claims.Subject, nil
}
