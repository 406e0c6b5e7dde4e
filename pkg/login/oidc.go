package login

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Config holds the OIDC relying-party settings.
type Config struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// Profile is the subset of ID token claims the directory needs.
type Profile struct {
	ExternalID string
	Email      string
	Name       string
	Picture    string
}

// Provider wraps OIDC discovery, token exchange and ID token
// verification for a single identity provider.
type Provider struct {
	config       Config
	provider     *oidc.Provider
	verifier     *oidc.IDTokenVerifier
	oauth2Config *oauth2.Config
}

// NewProvider discovers the OIDC provider and builds the verifier.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	if config.ClientID == "" {
		return nil, fmt.Errorf("client_id is required")
	}
	if config.ClientSecret == "" {
		return nil, fmt.Errorf("client_secret is required")
	}
	if config.IssuerURL == "" {
		return nil, fmt.Errorf("issuer_url is required")
	}
	if config.RedirectURL == "" {
		return nil, fmt.Errorf("redirect_url is required")
	}
	if len(config.Scopes) == 0 {
		config.Scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	provider, err := oidc.NewProvider(ctx, config.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: config.ClientID})

	oauth2Config := &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  config.RedirectURL,
		Scopes:       config.Scopes,
	}

	return &Provider{
		config:       config,
		provider:     provider,
		verifier:     verifier,
		oauth2Config: oauth2Config,
	}, nil
}

// AuthCodeURL returns the provider authorization URL for the given
// anti-forgery state.
func (p *Provider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state)
}

// Exchange trades an authorization code for a verified user profile.
func (p *Provider) Exchange(ctx context.Context, code string) (*Profile, error) {
	if code == "" {
		return nil, fmt.Errorf("missing authorization code")
	}

	oauth2Token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("missing id_token in response")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}

	var claims struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse claims: %w", err)
	}

	profile := &Profile{
		ExternalID: idToken.Subject,
		Email:      claims.Email,
		Name:       claims.Name,
		Picture:    claims.Picture,
	}

	if profile.ExternalID == "" {
		return nil, fmt.Errorf("missing subject in ID token")
	}
	if profile.Email == "" {
		return nil, fmt.Errorf("missing email in ID token")
	}
	if profile.Name == "" {
		profile.Name = profile.Email
	}

	return profile, nil
}

// generateState returns a random URL-safe anti-forgery token.
func generateState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
