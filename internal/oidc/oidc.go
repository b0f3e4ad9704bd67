package oidc

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/familyvault/familyvault/pkg/middleware"
)

// Verifier validates bearer tokens against an OIDC provider discovered from
// its issuer URL. It satisfies middleware.Verifier, so the API accepts
// identity-provider tokens and locally minted ones interchangeably.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers the provider at issuer and builds a token verifier
// bound to clientID.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery for %s: %w", issuer, err)
	}
	return &Verifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return idToken, nil
}
