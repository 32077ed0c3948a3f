package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/session"
	"github.com/desertthunder/mixtape/internal/shared"
	"golang.org/x/oauth2"
)

// stateCookie holds the CSRF state between /auth/login and the callback.
const stateCookie = "mixtape_oauth_state"

// Authenticator is the OAuth surface the web login needs. [session.Authenticator] implements it.
type Authenticator interface {
	Exchanger
	SessionSource
	AuthURL(state string) string
	SessionFromToken(ctx context.Context, userID string, tok *oauth2.Token) *session.TokenSession
}

// AuthHandler serves the browser login routes under /auth.
type AuthHandler struct {
	auth    Authenticator
	catalog services.Catalog
	codec   *session.Codec
	secure  bool
	logger  *log.Logger
}

// NewAuthHandler creates an [AuthHandler]. Set secure when the service is reached over HTTPS.
func NewAuthHandler(auth Authenticator, catalog services.Catalog, codec *session.Codec, secure bool, logger *log.Logger) *AuthHandler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &AuthHandler{auth: auth, catalog: catalog, codec: codec, secure: secure, logger: logger}
}

type loginBody struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// Login handles GET /auth/login by redirecting to Spotify.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state := shared.GenerateID()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.auth.AuthURL(state), http.StatusFound)
}

// Callback handles the OAuth redirect: exchanges the code, looks up the user and issues the session cookie.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != q.Get("state") {
		writeError(w, shared.NewValidationError("state", "does not match the login request"))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})

	code := q.Get("code")
	if code == "" {
		writeError(w, fmt.Errorf("%w: %w: %s", shared.ErrNotAuthenticated, shared.ErrAuthFailed, q.Get("error")))
		return
	}

	tok, err := h.auth.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Warn("token exchange failed", "err", err)
		writeError(w, fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, err))
		return
	}

	user, err := h.catalog.CurrentUser(r.Context(), h.auth.SessionFromToken(r.Context(), "", tok))
	if err != nil {
		h.logger.Warn("user lookup failed", "err", err)
		writeError(w, err)
		return
	}

	signed, err := h.codec.Issue(user.ID, tok.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, h.codec.Cookie(signed, h.secure))
	h.logger.Info("user logged in", "user", user.ID)

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, loginBody{UserID: user.ID, DisplayName: user.DisplayName})
}

// Logout handles POST /auth/logout by expiring the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.codec.ClearCookie())
	w.WriteHeader(http.StatusNoContent)
}
