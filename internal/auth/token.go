// Package auth verifies and issues the bearer tokens carried by API requests.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
)

// ErrUnauthorized is the root of every verification failure.
var ErrUnauthorized = errors.New("unauthorized")

// Claims is the JWT payload: sub, username and roles plus the registered
// expiry/issued-at fields.
type Claims struct {
	Username string   `json:"username,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Principal is the verified caller attached to a request.
type Principal struct {
	Subject  string   `json:"sub"`
	Username string   `json:"username,omitempty"`
	Roles    []string `json:"roles"`
}

// HasRole reports whether the principal carries role.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Verifier checks HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier creates a Verifier. An empty secret is rejected so the API can
// never run with verification silently disabled.
func NewVerifier(secret string, opts ...jwt.ParserOption) (*Verifier, error) {
	if secret == "" {
		return nil, eris.New("auth: jwt secret is empty")
	}
	opts = append([]jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}, opts...)
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(opts...),
	}, nil
}

// Verify parses token and returns its principal. Every failure wraps
// ErrUnauthorized.
func (v *Verifier) Verify(token string) (*Principal, error) {
	if strings.TrimSpace(token) == "" {
		return nil, eris.Wrap(ErrUnauthorized, "auth: empty token")
	}

	var claims Claims
	_, err := v.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, eris.Wrapf(ErrUnauthorized, "auth: invalid token: %v", err)
	}
	if claims.Subject == "" {
		return nil, eris.Wrap(ErrUnauthorized, "auth: token has no subject")
	}

	roles := claims.Roles
	if roles == nil {
		roles = []string{}
	}
	return &Principal{
		Subject:  claims.Subject,
		Username: claims.Username,
		Roles:    roles,
	}, nil
}

// IssueToken signs an HS256 token for p valid for ttl from now.
func IssueToken(secret string, p Principal, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", eris.New("auth: jwt secret is empty")
	}
	if p.Subject == "" {
		return "", eris.New("auth: subject is required")
	}
	if ttl <= 0 {
		return "", eris.Errorf("auth: invalid token ttl %s", ttl)
	}

	claims := Claims{
		Username: p.Username,
		Roles:    p.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", eris.Wrap(err, "auth: sign token")
	}
	return signed, nil
}

// BearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored in ctx, if any.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
