// Package auth turns credentials into identities: password verification,
// signed access tokens and token-subject resolution.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/backoffice/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// ErrUnsupportedAlgorithm is returned by NewTokenService for anything but
// the HMAC family.
var ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")

// TokenService issues and validates HMAC-signed JWT access tokens carrying
// the user name as the "sub" claim. The key and algorithm are fixed at
// construction.
type TokenService struct {
	secret     []byte
	method     jwt.SigningMethod
	defaultTTL time.Duration
	now        func() time.Time
}

// NewTokenService builds a TokenService for algorithm (HS256, HS384 or HS512).
func NewTokenService(secretKey []byte, algorithm string, defaultTTL time.Duration) (*TokenService, error) {
	if len(secretKey) == 0 {
		return nil, errors.New("token secret is required")
	}
	if defaultTTL <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", defaultTTL)
	}

	var method jwt.SigningMethod
	switch algorithm {
	case jwt.SigningMethodHS256.Alg():
		method = jwt.SigningMethodHS256
	case jwt.SigningMethodHS384.Alg():
		method = jwt.SigningMethodHS384
	case jwt.SigningMethodHS512.Alg():
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}

	secret := make([]byte, len(secretKey))
	copy(secret, secretKey)

	return &TokenService{secret: secret, method: method, defaultTTL: defaultTTL, now: time.Now}, nil
}

// DefaultTTL is the lifetime used by IssueDefault.
func (s *TokenService) DefaultTTL() time.Duration {
	return s.defaultTTL
}

// Issue signs a token for subject that expires ttl from now.
func (s *TokenService) Issue(subject string, ttl time.Duration) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(s.method, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// IssueDefault signs a token for subject with the configured default TTL.
func (s *TokenService) IssueDefault(subject string) (string, error) {
	return s.Issue(subject, s.defaultTTL)
}

// Validate checks signature, algorithm and expiry and returns the subject.
// Every failure wraps common.ErrInvalidCredentials; the jwt cause is kept in
// the chain for server-side logging only.
func (s *TokenService) Validate(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrInvalidCredentials, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing sub claim", common.ErrInvalidCredentials)
	}

	return claims.Subject, nil
}
