package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/susu3304/snacknav/internal/walk"
)

const (
	tokenTTL = 24 * time.Hour

	stateCookie   = "snacknav_oauth_state"
	stateTTL      = 10 * time.Minute
	stateAudience = "oauth-state"
)

var errInvalidState = errors.New("invalid oauth state")

type Claims struct {
	SessionID string `json:"session_id"`
	Username  string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

type ctxKey struct{}

func claimsFrom(ctx context.Context) *Claims {
	c, _ := ctx.Value(ctxKey{}).(*Claims)
	return c
}

func (a *API) issueToken(sessionID, username string) (string, error) {
	now := time.Now()
	claims := &Claims{
		SessionID: sessionID,
		Username:  username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to create token: %w", err)
	}
	return signed, nil
}

func (a *API) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method")
	}
	return a.jwtSecret, nil
}

// issueState signs a short-lived OAuth state carrying a random nonce. The
// nonce also goes into a cookie so the callback can tie the state to the
// browser that started the login.
func (a *API) issueState() (state, nonce string, err error) {
	nonce = generateRandomString(32)
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        nonce,
		Audience:  jwt.ClaimStrings{stateAudience},
		ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
	})
	state, err = token.SignedString(a.jwtSecret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign state: %w", err)
	}
	return state, nonce, nil
}

func (a *API) checkState(r *http.Request) error {
	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(stateCookie)
	if state == "" || err != nil || cookie.Value == "" {
		return errInvalidState
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(state, claims, a.keyFunc, jwt.WithAudience(stateAudience))
	if err != nil || !token.Valid {
		return errInvalidState
	}
	if subtle.ConstantTimeCompare([]byte(claims.ID), []byte(cookie.Value)) != 1 {
		return errInvalidState
	}
	return nil
}

func (a *API) newStateCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     stateCookie,
		Value:    value,
		Path:     "/api/auth",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   strings.HasPrefix(a.config.DiscordRedirectURI, "https://"),
		SameSite: http.SameSiteLaxMode,
	}
}

// handleCreateSession opens an anonymous session and returns its token.
func (a *API) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	view := a.walk.Open(strings.TrimSpace(req.Name))
	token, err := a.issueToken(view.ID, view.Name)
	if err != nil {
		a.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"token":   token,
		"session": view,
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if a.oauthConfig == nil {
		http.Error(w, "discord login is not configured", http.StatusServiceUnavailable)
		return
	}
	state, nonce, err := a.issueState()
	if err != nil {
		a.writeError(w, err)
		return
	}
	url := a.oauthConfig.AuthCodeURL(state)

	http.SetCookie(w, a.newStateCookie(nonce, int(stateTTL/time.Second)))
	writeJSON(w, http.StatusOK, map[string]string{
		"auth_url": url,
		"state":    state,
	})
}

func (a *API) authenticateUser(ctx context.Context, code string) (string, *DiscordUser, error) {
	// Exchange code for token
	token, err := a.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return "", nil, fmt.Errorf("token exchange failed: %w", err)
	}

	user, err := a.getDiscordUser(ctx, token.AccessToken)
	if err != nil {
		return "", nil, fmt.Errorf("failed to get user: %w", err)
	}

	view := a.walk.OpenKeyed(walk.DiscordSessionKey(user.ID), getUsername(user))
	tokenString, err := a.issueToken(view.ID, view.Name)
	if err != nil {
		return "", nil, err
	}
	return tokenString, user, nil
}

// handleCallback finishes Discord login. The session is shared with the
// chat bot, so progress made in either surface shows up in both.
func (a *API) handleCallback(w http.ResponseWriter, r *http.Request) {
	if a.oauthConfig == nil {
		http.Error(w, "discord login is not configured", http.StatusServiceUnavailable)
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing code", http.StatusBadRequest)
		return
	}
	if err := a.checkState(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tokenString, user, err := a.authenticateUser(r.Context(), code)
	if err != nil {
		a.logger.Warn("discord login failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	// the state is single use
	http.SetCookie(w, a.newStateCookie("", -1))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":      tokenString,
		"session_id": walk.DiscordSessionKey(user.ID),
		"user_id":    user.ID,
		"username":   getUsername(user),
	})
}

// Middleware
func (a *API) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "missing authorization header", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			http.Error(w, "invalid authorization header", http.StatusUnauthorized)
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, a.keyFunc)

		if err != nil || !token.Valid || claims.SessionID == "" {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
