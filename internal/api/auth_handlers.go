package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/Qqcola/ads-price-compare/internal/auth"
	"github.com/Qqcola/ads-price-compare/internal/store"
)

type contextKey string

const identityKey contextKey = "identity"

const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

// WithIdentity parses the access cookie when present and attaches the
// claims to the request context. It never rejects: unauthenticated requests
// proceed as guests.
func (h *APIHandler) WithIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(accessCookieName); err == nil {
			if claims, err := auth.ValidateAccessToken(h.cfg.JWTAccessSecret, cookie.Value); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), identityKey, claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth gates a route on a valid access cookie.
func (h *APIHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identityFromContext(r.Context()) == nil {
			writeJSONError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func identityFromContext(ctx context.Context) *auth.AccessClaims {
	claims, _ := ctx.Value(identityKey).(*auth.AccessClaims)
	return claims
}

type SignupRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "All fields required")
		return
	}

	existing, err := h.users.UserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("Signup lookup error for %s: %v", req.Email, err)
		writeJSONError(w, http.StatusInternalServerError, "Internal server error during signup")
		return
	}
	if existing != nil {
		writeJSONError(w, http.StatusConflict, "User already exists. Please login.")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password for %s: %v", req.Email, err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to process password")
		return
	}

	user, err := h.users.CreateUser(r.Context(), &store.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		log.Printf("Error creating user %s: %v", req.Email, err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := h.users.UserByEmail(r.Context(), email)
	if err != nil {
		log.Printf("Login lookup error for %s: %v", email, err)
		writeJSONError(w, http.StatusInternalServerError, "Internal server error during login")
		return
	}
	if user == nil {
		writeJSONError(w, http.StatusNotFound, "User not found")
		return
	}
	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		writeJSONError(w, http.StatusUnauthorized, "Wrong password")
		return
	}

	if err := h.issueSession(w, r, user); err != nil {
		log.Printf("Error issuing session for %s: %v", email, err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *APIHandler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "Missing refresh token")
		return
	}

	claims, err := auth.ValidateRefreshToken(h.cfg.JWTRefreshSecret, cookie.Value)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	user, err := h.users.UserByID(r.Context(), claims.UserID)
	if err != nil || user == nil || user.RefreshTokenID == "" || user.RefreshTokenID != claims.JTI {
		// A jti mismatch means the token was already rotated: possible reuse.
		writeJSONError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	if err := h.issueSession(w, r, user); err != nil {
		log.Printf("Error rotating session for %s: %v", user.Email, err)
		writeJSONError(w, http.StatusUnauthorized, "Could not refresh")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		if claims, err := auth.ValidateRefreshToken(h.cfg.JWTRefreshSecret, cookie.Value); err == nil {
			if err := h.users.SetRefreshTokenID(r.Context(), claims.UserID, ""); err != nil {
				log.Printf("Error clearing session for user %s: %v", claims.UserID, err)
			}
		}
	}
	clearCookie(w, accessCookieName)
	clearCookie(w, refreshCookieName)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type MeResponse struct {
	OK   bool   `json:"ok"`
	User MeUser `json:"user"`
}

type MeUser struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	JTI      string `json:"jti"`
}

func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	claims := identityFromContext(r.Context())

	user, err := h.users.UserByID(r.Context(), claims.UserID)
	if err != nil || user == nil {
		log.Printf("Error loading user %s: %v", claims.UserID, err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, MeResponse{
		OK: true,
		User: MeUser{
			ID:       user.ID.Hex(),
			FullName: strings.TrimSpace(user.FirstName + " " + user.LastName),
			Email:    user.Email,
			JTI:      user.RefreshTokenID,
		},
	})
}

// SessionHandler reports cookie presence and the active session id.
func (h *APIHandler) SessionHandler(w http.ResponseWriter, r *http.Request) {
	claims := identityFromContext(r.Context())

	resp := map[string]any{
		"hasAccessToken": claims != nil,
	}
	if _, err := r.Cookie(refreshCookieName); err == nil {
		resp["hasRefreshToken"] = true
	} else {
		resp["hasRefreshToken"] = false
	}
	if claims != nil {
		if user, err := h.users.UserByID(r.Context(), claims.UserID); err == nil && user != nil {
			resp["sessionId"] = user.RefreshTokenID
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// issueSession rotates the user's jti and sets fresh auth cookies.
func (h *APIHandler) issueSession(w http.ResponseWriter, r *http.Request, user *store.User) error {
	jti := auth.NewJTI()
	if err := h.users.SetRefreshTokenID(r.Context(), user.ID.Hex(), jti); err != nil {
		return err
	}

	accessToken, err := auth.GenerateAccessToken(h.cfg.JWTAccessSecret, auth.AccessClaims{
		UserID:    user.ID.Hex(),
		Email:     user.Email,
		FirstName: user.FirstName,
	}, h.cfg.AccessTokenTTL)
	if err != nil {
		return err
	}

	refreshToken, err := auth.GenerateRefreshToken(h.cfg.JWTRefreshSecret, auth.RefreshClaims{
		UserID: user.ID.Hex(),
		JTI:    jti,
	}, h.cfg.RefreshTokenTTL)
	if err != nil {
		return err
	}

	setCookie(w, accessCookieName, accessToken, int(h.cfg.AccessTokenTTL.Seconds()))
	setCookie(w, refreshCookieName, refreshToken, int(h.cfg.RefreshTokenTTL.Seconds()))
	return nil
}

func setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
