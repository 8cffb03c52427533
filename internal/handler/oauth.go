package handler

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/url"
	"time"

	"github.com/notely/notely-go/internal/oauth"
	"github.com/notely/notely-go/internal/service"
)

const stateCookie = "oauth_state"

// OAuthHandler handles the Google OAuth redirect and callback.
type OAuthHandler struct {
	provider    *oauth.GoogleProvider
	service     *service.AuthService
	frontendURL string
}

// NewOAuthHandler creates a new OAuthHandler.
func NewOAuthHandler(provider *oauth.GoogleProvider, svc *service.AuthService, frontendURL string) *OAuthHandler {
	return &OAuthHandler{provider: provider, service: svc, frontendURL: frontendURL}
}

// HandleGoogleLogin handles GET /api/auth/google requests: it sets a state
// cookie and redirects to the provider consent screen.
func (h *OAuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if !h.provider.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "google sign-in is not configured")
		return
	}

	state, err := randomState()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback handles GET /api/auth/google/callback requests. On
// success the browser is redirected to the frontend with the token as a
// query parameter; failures redirect to the frontend error page.
func (h *OAuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if !h.provider.Enabled() {
		h.redirectError(w, r, "google sign-in is not configured")
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		h.redirectError(w, r, "invalid oauth state")
		return
	}
	// Consume the state cookie.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		h.redirectError(w, r, "authentication failed")
		return
	}

	profile, err := h.provider.FetchProfile(r.Context(), code)
	if err != nil {
		h.redirectError(w, r, "authentication failed")
		return
	}

	resp, err := h.service.GoogleCallback(r.Context(), profile)
	if err != nil {
		h.redirectError(w, r, "authentication failed")
		return
	}

	http.Redirect(w, r,
		h.frontendURL+"/auth/callback?token="+url.QueryEscape(resp.Token),
		http.StatusTemporaryRedirect)
}

func (h *OAuthHandler) redirectError(w http.ResponseWriter, r *http.Request, message string) {
	http.Redirect(w, r,
		h.frontendURL+"/auth/error?message="+url.QueryEscape(message),
		http.StatusTemporaryRedirect)
}

func randomState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
