package service

import (
	"context"
	"fmt"

	appErr "judgegate/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

// Authenticator validates the token carried by an intake body.
type Authenticator interface {
	Validate(ctx context.Context, token string) error
}

// AllowAll accepts every token.
type AllowAll struct{}

// Validate implements Authenticator.
func (AllowAll) Validate(context.Context, string) error {
	return nil
}

// JWTAuthenticator accepts HS256 tokens signed with a shared secret.
type JWTAuthenticator struct {
	secret []byte
	issuer string
}

// NewJWTAuthenticator creates a JWT validator. An empty issuer skips the issuer check.
func NewJWTAuthenticator(secret, issuer string) (*JWTAuthenticator, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &JWTAuthenticator{secret: []byte(secret), issuer: issuer}, nil
}

// Validate implements Authenticator.
func (a *JWTAuthenticator) Validate(_ context.Context, raw string) error {
	if raw == "" {
		return appErr.New(appErr.TokenInvalid)
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return appErr.Wrap(err, appErr.TokenInvalid).WithMessage(appErr.TokenInvalid.Message())
	}
	if !parsed.Valid {
		return appErr.New(appErr.TokenInvalid)
	}
	return nil
}
