package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
)

// ErrIdentityDisabled signals that federated login is not configured.
var ErrIdentityDisabled = errors.New("identity: verification disabled")

// IdentityClaims carries the verified subject of a federated ID token.
type IdentityClaims struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// IdentityVerifier validates federated ID tokens and extracts their subject.
type IdentityVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*IdentityClaims, error)
}

// OIDCVerifierConfig configures the OIDC identity verifier.
type OIDCVerifierConfig struct {
	Enabled  bool
	Issuer   string
	Audience string
	Timeout  time.Duration
}

// OIDCVerifier verifies ID tokens against a remote OIDC issuer. Provider
// metadata and JWKS are fetched on first use.
type OIDCVerifier struct {
	cfg OIDCVerifierConfig

	mu       sync.Mutex
	verifyFn func(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

// NewOIDCVerifier constructs an OIDCVerifier from configuration.
func NewOIDCVerifier(cfg OIDCVerifierConfig) (*OIDCVerifier, error) {
	if cfg.Enabled {
		if strings.TrimSpace(cfg.Issuer) == "" {
			return nil, errors.New("identity: issuer is required")
		}
		if strings.TrimSpace(cfg.Audience) == "" {
			return nil, errors.New("identity: audience is required")
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &OIDCVerifier{cfg: cfg}, nil
}

// Verify checks the raw ID token signature, issuer, audience and expiry, and
// returns the token subject with profile claims.
func (v *OIDCVerifier) Verify(ctx context.Context, rawIDToken string) (*IdentityClaims, error) {
	if !v.cfg.Enabled {
		return nil, ErrIdentityDisabled
	}

	rawIDToken = strings.TrimSpace(rawIDToken)
	if rawIDToken == "" {
		return nil, errors.New("identity: token is required")
	}

	verify, err := v.verifier(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, v.cfg.Timeout)
	defer cancel()

	idToken, err := verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("identity: verify token: %w", err)
	}

	var profile struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&profile); err != nil {
		return nil, fmt.Errorf("identity: decode claims: %w", err)
	}

	if idToken.Subject == "" {
		return nil, errors.New("identity: token has no subject")
	}

	return &IdentityClaims{
		Subject: idToken.Subject,
		Email:   strings.ToLower(strings.TrimSpace(profile.Email)),
		Name:    strings.TrimSpace(profile.Name),
		Picture: profile.Picture,
	}, nil
}

func (v *OIDCVerifier) verifier(ctx context.Context) (func(context.Context, string) (*oidc.IDToken, error), error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.verifyFn != nil {
		return v.verifyFn, nil
	}

	initCtx, cancel := context.WithTimeout(ctx, v.cfg.Timeout)
	defer cancel()

	provider, err := oidc.NewProvider(initCtx, v.cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("identity: discover issuer: %w", err)
	}

	v.verifyFn = provider.Verifier(&oidc.Config{ClientID: v.cfg.Audience}).Verify
	return v.verifyFn, nil
}
