// Package oauth wraps the Google OAuth 2.0 authorization-code flow and
// yields a verified profile for account resolution.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/notely/notely-go/internal/model"
)

const userinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var ErrNotConfigured = errors.New("google oauth is not configured")

// GoogleProvider drives the Google authorization-code flow.
type GoogleProvider struct {
	cfg *oauth2.Config
}

// NewGoogle creates a provider. With empty credentials the provider reports
// itself disabled and the auth routes respond accordingly.
func NewGoogle(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
	}
}

// Enabled reports whether provider credentials are present.
func (p *GoogleProvider) Enabled() bool {
	return p.cfg.ClientID != "" && p.cfg.ClientSecret != "" && p.cfg.RedirectURL != ""
}

// AuthCodeURL builds the provider consent URL carrying the given state.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

// FetchProfile exchanges the authorization code and retrieves the user's
// verified profile.
func (p *GoogleProvider) FetchProfile(ctx context.Context, code string) (model.GoogleProfile, error) {
	token, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return model.GoogleProfile{}, fmt.Errorf("exchanging code: %w", err)
	}

	resp, err := p.cfg.Client(ctx, token).Get(userinfoURL)
	if err != nil {
		return model.GoogleProfile{}, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.GoogleProfile{}, fmt.Errorf("userinfo endpoint returned %d", resp.StatusCode)
	}

	var info struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return model.GoogleProfile{}, fmt.Errorf("decoding userinfo: %w", err)
	}

	if info.ID == "" || info.Email == "" {
		return model.GoogleProfile{}, errors.New("userinfo response missing id or email")
	}

	return model.GoogleProfile{
		ProviderID: info.ID,
		Email:      info.Email,
		Name:       info.Name,
		Avatar:     info.Picture,
	}, nil
}
