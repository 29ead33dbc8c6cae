package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleIdentity is the verified identity extracted from a Google ID
// token. Only the fields the auth flow needs are kept.
type GoogleIdentity struct {
	Name  string
	Email string
}

// GoogleProvider verifies Google sign-in assertions.
//
// GOOGLE SIGN-IN, TWO WAYS:
//  1. The SPA uses Google Identity Services in the browser and POSTs
//     the resulting ID token to /api/users/google. The server only has
//     to VERIFY that assertion — VerifyIDToken.
//  2. The classic server-side Authorization Code flow:
//     /auth/google/login redirects to Google, /auth/google/callback
//     exchanges the code and then verifies the ID token from the
//     token response — AuthURL + Exchange.
//
// Both paths end in the same place: a verified (name, email) pair.
//
// Verification is delegated to go-oidc, which fetches Google's JWKS
// and checks the token's signature, expiry, issuer, and audience. The
// audience check is what scopes assertions to THIS application's
// client ID — a valid Google token minted for some other app is
// rejected.
type GoogleProvider struct {
	config   *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewGoogleProvider creates a GoogleProvider for the given OAuth client.
// clientSecret and callbackURL are only needed for the server-side code
// flow; they may be empty if only ID-token verification is used.
//
// Construction performs OIDC discovery against accounts.google.com, so
// it needs network access and should happen once at startup.
func NewGoogleProvider(ctx context.Context, clientID, clientSecret, callbackURL string) (*GoogleProvider, error) {
	if clientID == "" {
		return nil, fmt.Errorf("auth: Google client ID is required")
	}

	provider, err := oidc.NewProvider(ctx, "https://accounts.google.com")
	if err != nil {
		return nil, fmt.Errorf("auth: discovering Google OIDC provider: %w", err)
	}

	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// AuthURL returns the Google authorization URL for the code flow.
// state must be an unguessable value the callback handler checks
// against its cookie (CSRF protection).
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the server-side code flow: trades the
// authorization code for a token response and verifies the ID token
// inside it.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleIdentity, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("auth: no id_token in Google token response")
	}

	return p.VerifyIDToken(ctx, rawIDToken)
}

// VerifyIDToken validates a raw Google ID token assertion and returns
// the identity it attests to.
//
// Any failure (bad signature, expired, wrong audience, unparseable
// claims, missing email) is returned as an error with no further
// detail distinction — the caller maps all of them to the same
// authentication failure.
func (p *GoogleProvider) VerifyIDToken(ctx context.Context, rawIDToken string) (*GoogleIdentity, error) {
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("auth: verifying Google ID token: %w", err)
	}

	// Google's ID token carries the profile as claims. We only decode
	// the ones we store.
	var claims struct {
		Name          string `json:"name"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("auth: decoding Google ID token claims: %w", err)
	}

	if claims.Email == "" || !claims.EmailVerified {
		return nil, fmt.Errorf("auth: Google ID token has no verified email")
	}

	return &GoogleIdentity{
		Name:  claims.Name,
		Email: claims.Email,
	}, nil
}
