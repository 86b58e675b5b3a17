package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var (
	ErrInvalidOAuthState = errors.New("invalid or expired oauth state")
	ErrOAuthExchange     = errors.New("oauth code exchange failed")
)

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleProvider runs the redirect-based authorization exchange with
// Google. It only produces a provider profile; identity resolution and
// token issuance happen in the Service.
type GoogleProvider struct {
	cfg    *oauth2.Config
	states *StateRepository
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string, states *StateRepository) *GoogleProvider {
	return &GoogleProvider{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"profile", "email"},
			Endpoint:     google.Endpoint,
		},
		states: states,
	}
}

// generateRandomToken creates a cryptographically secure random nonce
func generateRandomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// AuthCodeURL generates a state nonce, stores it, and returns the
// provider authorization URL to redirect the client to
func (p *GoogleProvider) AuthCodeURL(ctx context.Context) (string, error) {
	state, err := generateRandomToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	if err := p.states.Store(ctx, state); err != nil {
		return "", err
	}
	return p.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// Exchange validates the state nonce, exchanges the authorization code
// and fetches the Google profile
func (p *GoogleProvider) Exchange(ctx context.Context, state, code string) (*GoogleProfile, error) {
	ok, err := p.states.Consume(ctx, state)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidOAuthState
	}

	token, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOAuthExchange, err)
	}

	resp, err := p.cfg.Client(ctx, token).Get(googleUserinfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch google profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo returned status %d", resp.StatusCode)
	}

	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode google profile: %w", err)
	}
	if profile.ID == "" {
		return nil, fmt.Errorf("google profile missing id")
	}

	return &profile, nil
}
