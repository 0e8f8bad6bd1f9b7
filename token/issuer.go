// Package token issues the opaque credential carried inside a session
// record. Tokens are signed JWTs rather than the reversible encoding the
// session contract minimally requires, so holders cannot forge or alter
// the embedded role.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/cleanflow/go-client-session/users"
)

const defaultExpiry = 24 * time.Hour

type Issuer struct {
	signer  Signer
	issuer  string
	expiry  time.Duration
	nowFunc func() time.Time
}

type IssuerOption func(*Issuer)

// WithExpiry sets the token lifetime.
func WithExpiry(expiry time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.expiry = expiry
	}
}

// WithIssuer sets the iss claim.
func WithIssuer(issuer string) IssuerOption {
	return func(i *Issuer) {
		i.issuer = issuer
	}
}

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowFunc = now
	}
}

func New(signer Signer, options ...IssuerOption) *Issuer {
	i := &Issuer{
		signer:  signer,
		expiry:  defaultExpiry,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(i)
	}
	return i
}

// Expiry returns the configured token lifetime.
func (i *Issuer) Expiry() time.Duration {
	return i.expiry
}

// Issue signs a session token for the user.
func (i *Issuer) Issue(user *users.User) (string, error) {
	if user == nil {
		return "", errors.New("[Issuer.Issue] user is required")
	}
	now := i.nowFunc()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  string(user.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(i.expiry).Unix(),
	}
	if i.issuer != "" {
		claims["iss"] = i.issuer
	}
	signed, err := i.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "[Issuer.Issue] signing claims")
	}
	return signed, nil
}

// Parse validates a session token and returns its claims.
func (i *Issuer) Parse(raw string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, i.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{i.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(i.nowFunc),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[Issuer.Parse] parsing token")
	}
	if !parsed.Valid {
		return nil, errors.New("[Issuer.Parse] token is not valid")
	}
	return claims, nil
}
