package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gdg-garage/cabin-booking-api/internal/config"
	"github.com/gdg-garage/cabin-booking-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	GoogleUserInfoAPI = "https://openidconnect.googleapis.com/v1/userinfo"

	TokenCookie    = "auth_token"
	stateCookie    = "oauth_state"
	redirectCookie = "oauth_redirect"

	TokenDuration = 24 * time.Hour
)

// GuestStore resolves the guest behind a signed-in Google account.
type GuestStore interface {
	FindOrCreateGuest(ctx context.Context, email, fullName string) (*models.Guest, error)
}

type AuthHandler struct {
	oauthConfig *oauth2.Config
	guests      GuestStore
	cfg         *config.Config
	userInfoURL string
}

func NewAuthHandler(cfg *config.Config, guests GuestStore) *AuthHandler {
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoints.Google,
		},
		guests:      guests,
		cfg:         cfg,
		userInfoURL: GoogleUserInfoAPI,
	}
}

// HandleLogin starts the Google sign-in. The target page after sign-in is
// taken from ?redirectTo= and defaults to /account.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	redirectTo := safeRedirect(r.URL.Query().Get("redirectTo"), "/account")
	state := uuid.NewString()

	http.SetCookie(w, shortLivedCookie(stateCookie, state))
	http.SetCookie(w, shortLivedCookie(redirectCookie, redirectTo))

	url := h.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Code not found", http.StatusBadRequest)
		return
	}

	state, err := r.Cookie(stateCookie)
	if err != nil || state.Value == "" || state.Value != r.URL.Query().Get("state") {
		http.Error(w, "Invalid OAuth state", http.StatusBadRequest)
		return
	}

	token, err := h.oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		http.Error(w, "Failed to exchange token", http.StatusInternalServerError)
		return
	}

	client := h.oauthConfig.Client(r.Context(), token)

	resp, err := client.Get(h.userInfoURL)
	if err != nil {
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	var googleUser struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&googleUser); err != nil || googleUser.Email == "" {
		http.Error(w, "Failed to decode user info", http.StatusInternalServerError)
		return
	}

	guest, err := h.guests.FindOrCreateGuest(r.Context(), googleUser.Email, googleUser.Name)
	if err != nil {
		http.Error(w, "Failed to save guest", http.StatusInternalServerError)
		return
	}

	jwtToken, err := h.GenerateToken(guest.ID)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, h.sessionCookie(jwtToken))
	http.SetCookie(w, expiredCookie(stateCookie))
	http.SetCookie(w, expiredCookie(redirectCookie))

	redirectTo := "/account"
	if c, err := r.Cookie(redirectCookie); err == nil {
		redirectTo = safeRedirect(c.Value, redirectTo)
	}
	http.Redirect(w, r, h.cfg.FrontendURL+redirectTo, http.StatusSeeOther)
}

// HandleSignOut drops the session cookie and sends the browser to
// ?redirectTo=, or / when absent.
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, expiredCookie(TokenCookie))
	redirectTo := safeRedirect(r.URL.Query().Get("redirectTo"), "/")
	http.Redirect(w, r, h.cfg.FrontendURL+redirectTo, http.StatusSeeOther)
}

func (h *AuthHandler) GenerateToken(guestID uint) (string, error) {
	claims := jwt.MapClaims{
		"guest_id": guestID,
		"exp":      time.Now().Add(TokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

// ParseToken validates a session token and returns the guest id and expiry.
func (h *AuthHandler) ParseToken(tokenString string) (uint, time.Time, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, time.Time{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, time.Time{}, errors.New("invalid token claims")
	}
	guestIDFloat, ok := claims["guest_id"].(float64)
	if !ok || guestIDFloat <= 0 {
		return 0, time.Time{}, errors.New("invalid token claims")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0, time.Time{}, errors.New("invalid token expiry")
	}

	return uint(guestIDFloat), exp.Time, nil
}

func (h *AuthHandler) sessionCookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     TokenCookie,
		Value:    value,
		Expires:  time.Now().Add(TokenDuration),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	}
}

func shortLivedCookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	}
}

func expiredCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
	}
}

// safeRedirect only allows paths on our own frontend.
func safeRedirect(target, fallback string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return fallback
	}
	return target
}
