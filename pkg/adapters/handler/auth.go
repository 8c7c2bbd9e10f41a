package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wadjakorntonsri/triptree/pkg/auth"
	"github.com/wadjakorntonsri/triptree/pkg/config"
	"github.com/wadjakorntonsri/triptree/pkg/core/domain"
	"github.com/wadjakorntonsri/triptree/pkg/logging"
	"github.com/wadjakorntonsri/triptree/pkg/ports"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	oauthStateCookie   = "oauthstate"
	googleUserInfoURL  = "https://www.googleapis.com/oauth2/v2/userinfo"
	googleStateTimeout = 10 * time.Minute
)

type AuthHandler struct {
	service      ports.AuthService
	jwtSecret    []byte
	cookieSecure bool
	log          logging.Logger

	oauthConfig *oauth2.Config
	userInfoURL string
	frontendURL string
}

type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

type userResponse struct {
	User domain.AccountSummary `json:"user"`
}

func NewAuthHandler(cfg *config.Config, service ports.AuthService, log logging.Logger) *AuthHandler {
	h := &AuthHandler{
		service:      service,
		jwtSecret:    []byte(cfg.JWTSecret),
		cookieSecure: cfg.CookieSecure,
		log:          log,
		userInfoURL:  googleUserInfoURL,
		frontendURL:  cfg.FrontendURL,
	}
	if cfg.GoogleEnabled() {
		h.oauthConfig = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		}
	}
	return h
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in domain.SignupInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.log, err, "User")
		return
	}

	user, err := h.service.Signup(r.Context(), in)
	if err != nil {
		writeError(w, r, h.log, err, "User")
		return
	}

	if err := h.startSession(w, user); err != nil {
		writeError(w, r, h.log, err, "User")
		return
	}
	h.log.Info(r.Context(), "signup", "userId", user.ID)
	writeJSON(w, http.StatusOK, userResponse{User: user.Summary()})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in domain.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.log, err, "User")
		return
	}

	user, err := h.service.Login(r.Context(), in)
	if err != nil {
		writeError(w, r, h.log, err, "User")
		return
	}

	if err := h.startSession(w, user); err != nil {
		writeError(w, r, h.log, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: user.Summary()})
}

// Logout only clears the cookie; issued tokens stay valid until they expire.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, user *domain.User) error {
	token, expiresAt, err := auth.Issue(auth.Session{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
	}, h.jwtSecret, auth.SessionTTL)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(auth.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// GoogleLogin starts the OAuth flow. Only accounts that already exist can sign in this way.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := h.generateStateOauthCookie(w)
	if err != nil {
		writeError(w, r, h.log, err, "User")
		return
	}
	http.Redirect(w, r, h.oauthConfig.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	oauthState, err := r.Cookie(oauthStateCookie)
	if err != nil || r.FormValue("state") != oauthState.Value {
		h.log.Warn(r.Context(), "google callback: invalid oauth state")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid oauth state"})
		return
	}

	googleUser, err := h.fetchGoogleUser(r.Context(), r.FormValue("code"))
	if err != nil {
		writeError(w, r, h.log, err, "User")
		return
	}
	if !googleUser.VerifiedEmail {
		http.Redirect(w, r, h.frontendURL+"/login?error=unverified", http.StatusTemporaryRedirect)
		return
	}

	user, err := h.service.LoginWithEmail(r.Context(), googleUser.Email)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		h.log.Info(r.Context(), "google callback: no account", "email", googleUser.Email)
		http.Redirect(w, r, h.frontendURL+"/login?error=no_account", http.StatusTemporaryRedirect)
		return
	}
	if err != nil {
		writeError(w, r, h.log, err, "User")
		return
	}

	if err := h.startSession(w, user); err != nil {
		writeError(w, r, h.log, err, "User")
		return
	}
	h.log.Info(r.Context(), "google login", "userId", user.ID)
	http.Redirect(w, r, h.frontendURL+"/dashboard", http.StatusTemporaryRedirect)
}

func (h *AuthHandler) fetchGoogleUser(ctx context.Context, code string) (*GoogleUser, error) {
	token, err := h.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	resp, err := h.oauthConfig.Client(ctx, token).Get(h.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed getting user info: status %d", resp.StatusCode)
	}

	var u GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("failed decoding user info: %w", err)
	}
	return &u, nil
}

func (h *AuthHandler) generateStateOauthCookie(w http.ResponseWriter) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Expires:  time.Now().Add(googleStateTimeout),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return state, nil
}
