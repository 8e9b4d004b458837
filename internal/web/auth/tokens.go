package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken wraps every verification failure
var ErrInvalidToken = errors.New("invalid token")

// Claims are the token claims. Resources restricts which schemas the bearer
// may translate filters for; empty means all of them.
type Claims struct {
	jwt.RegisteredClaims
	Resources []string `json:"resources,omitempty"`
}

// CanAccess reports whether the claims allow the named resource
func (c *Claims) CanAccess(resource string) bool {
	return len(c.Resources) == 0 || slices.Contains(c.Resources, resource)
}

// Signer issues and verifies HS256 tokens
type Signer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewSigner creates a signer. A non-empty issuer is stamped on issued
// tokens and required on verified ones.
func NewSigner(secret, issuer string) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	return &Signer{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// Issue signs a token for subject that expires after ttl
func (s *Signer) Issue(subject string, ttl time.Duration, resources ...string) (string, error) {
	if subject == "" {
		return "", errors.New("token subject must not be empty")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive, got: %s", ttl)
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Resources: resources,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses a token and checks its signature, expiry and issuer
func (s *Signer) Verify(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
