package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rzbill/auditlog/internal/audit"
	cfgpkg "github.com/rzbill/auditlog/internal/config"
)

var (
	// ErrNoCredentials means the request carried no credentials at all.
	ErrNoCredentials = errors.New("auth: no credentials")
	// ErrInvalidCredentials means credentials were present but rejected.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)

// Getter returns the first value of a request header or metadata key.
// Names are case-insensitive.
type Getter func(name string) string

// Authenticator resolves request credentials into an account.
type Authenticator interface {
	Authenticate(get Getter) (audit.AccountID, error)
}

// New builds the Authenticator selected by cfg.Mode.
func New(cfg cfgpkg.Auth) (Authenticator, error) {
	switch cfg.Mode {
	case cfgpkg.AuthModeJWT:
		return NewVerifier(cfg.Secret, cfg.Issuer)
	case cfgpkg.AuthModeHeader:
		if cfg.Header == "" {
			return nil, errors.New("auth: header mode requires a header name")
		}
		return HeaderAuthenticator{Name: cfg.Header}, nil
	default:
		return nil, fmt.Errorf("auth: unsupported mode %q", cfg.Mode)
	}
}

// Verifier validates HS256 bearer tokens.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier returns a Verifier for secret. A non-empty issuer is enforced.
func NewVerifier(secret, issuer string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("auth: HS256 requires a secret")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(5 * time.Second),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &Verifier{secret: []byte(secret), parser: jwt.NewParser(opts...)}, nil
}

// Authenticate reads the bearer token from the authorization header.
func (v *Verifier) Authenticate(get Getter) (audit.AccountID, error) {
	h := strings.TrimSpace(get("authorization"))
	if h == "" {
		return "", ErrNoCredentials
	}
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: malformed authorization header", ErrInvalidCredentials)
	}
	return v.Verify(strings.TrimSpace(token))
}

// Verify checks a raw token and returns its subject.
func (v *Verifier) Verify(token string) (audit.AccountID, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrInvalidCredentials)
	}
	return audit.AccountID(claims.Subject), nil
}

// HeaderAuthenticator trusts the account named in a request header.
type HeaderAuthenticator struct{ Name string }

func (h HeaderAuthenticator) Authenticate(get Getter) (audit.AccountID, error) {
	v := strings.TrimSpace(get(h.Name))
	if v == "" {
		return "", ErrNoCredentials
	}
	return audit.AccountID(v), nil
}

// IssueToken mints an HS256 token for subject valid for ttl from now.
func IssueToken(secret, issuer string, subject audit.AccountID, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("auth: HS256 requires a secret")
	}
	if subject == "" {
		return "", errors.New("auth: subject is required")
	}
	claims := jwt.RegisteredClaims{
		Subject:   string(subject),
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

type accountKey struct{}

// WithAccount returns ctx carrying the authenticated account.
func WithAccount(ctx context.Context, account audit.AccountID) context.Context {
	return context.WithValue(ctx, accountKey{}, account)
}

// AccountFrom returns the account stored by WithAccount.
func AccountFrom(ctx context.Context) (audit.AccountID, bool) {
	a, ok := ctx.Value(accountKey{}).(audit.AccountID)
	return a, ok && a != ""
}
