// Package auth verifies identity provider bearer tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/golang-jwt/jwt/v5"
)

var ErrUnauthenticated = errors.New("unauthenticated")

type Verifier interface {
	Verify(ctx context.Context, token string) (domain.Principal, error)
}

type Settings struct {
	Issuer   string
	ClientID string
}

// claims follow Cognito naming. ID tokens carry the client in aud, access tokens in client_id.
type claims struct {
	jwt.RegisteredClaims
	Email    string   `json:"email"`
	Username string   `json:"cognito:username"`
	Groups   []string `json:"cognito:groups"`
	ClientID string   `json:"client_id"`
}

type jwksVerifier struct {
	keys     keyfunc.Keyfunc
	settings Settings
	parser   *jwt.Parser
}

// NewJWKSVerifier fetches the key set from url and keeps it refreshed until ctx is done.
func NewJWKSVerifier(ctx context.Context, url string, settings Settings) (Verifier, error) {
	keys, err := keyfunc.NewDefaultCtx(ctx, []string{url})
	if err != nil {
		return nil, fmt.Errorf("failed to load JWKS from %s: %w", url, err)
	}
	return NewVerifier(keys, settings), nil
}

func NewVerifier(keys keyfunc.Keyfunc, settings Settings) Verifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if settings.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(settings.Issuer))
	}
	return &jwksVerifier{
		keys:     keys,
		settings: settings,
		parser:   jwt.NewParser(opts...),
	}
}

func (v *jwksVerifier) Verify(_ context.Context, token string) (domain.Principal, error) {
	var c claims
	if _, err := v.parser.ParseWithClaims(token, &c, v.keys.Keyfunc); err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if c.Subject == "" {
		return domain.Principal{}, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}
	if v.settings.ClientID != "" && c.ClientID != v.settings.ClientID && !slices.Contains(c.Audience, v.settings.ClientID) {
		return domain.Principal{}, fmt.Errorf("%w: token was issued to another client", ErrUnauthenticated)
	}

	return domain.Principal{
		ID:       c.Subject,
		Email:    c.Email,
		Username: c.Username,
		Groups:   c.Groups,
	}, nil
}
