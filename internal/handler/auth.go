package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/hwdlte/notewell/internal/auth"
	"github.com/hwdlte/notewell/internal/model"
	"github.com/hwdlte/notewell/internal/service"
)

// AuthHandler exposes the authentication endpoints.
//
//	POST /api/users/send-otp    → issue a login code by email
//	POST /api/users/verify-otp  → exchange code for a session token
//	POST /api/users/google      → exchange a Google ID token for a session token
//	GET  /api/users/me          → current identity (bearer-protected)
//
// The optional server-side Google redirect flow lives on
// /auth/google/login and /auth/google/callback; the SPA normally uses
// the POST endpoint with an ID token it obtained in the browser.
type AuthHandler struct {
	auths  *service.AuthService
	google *auth.GoogleProvider // nil when Google sign-in is not configured
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. google may be nil.
func NewAuthHandler(auths *service.AuthService, google *auth.GoogleProvider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auths:  auths,
		google: google,
		logger: logger,
	}
}

// sessionResponse is the success payload for verify-otp and google:
// the session token plus the minimal user projection. The client
// attaches the token as "Authorization: Bearer <token>" from then on.
type sessionResponse struct {
	Success bool          `json:"success"`
	Token   string        `json:"token"`
	User    model.Profile `json:"user"`
}

// HandleSendOTP issues a login code.
//
// HTTP: POST /api/users/send-otp
// Body: {"email": "ada@example.com", "name": "Ada"} — name only
// required for first-time emails.
//
// The response is a generic ack; the code travels by email only.
func (h *AuthHandler) HandleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("send-otp: invalid JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	if err := h.auths.RequestOTP(r.Context(), req.Email, req.Name); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "login code sent to email",
	})
}

// HandleVerifyOTP exchanges a login code for a session token.
//
// HTTP: POST /api/users/verify-otp
// Body: {"email": "ada@example.com", "otp": "123456"}
func (h *AuthHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("verify-otp: invalid JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	result, err := h.auths.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Success: true,
		Token:   result.Token,
		User:    result.User.Profile(),
	})
}

// HandleGoogleLogin signs a user in with a Google ID token obtained by
// the SPA (Google Identity Services posts the credential to us).
//
// HTTP: POST /api/users/google
// Body: {"token": "<google id token>"}
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("google login: invalid JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	result, err := h.auths.LoginWithGoogle(r.Context(), req.Token)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Success: true,
		Token:   result.Token,
		User:    result.User.Profile(),
	})
}

// HandleMe returns the currently authenticated user's profile.
//
// HTTP: GET /api/users/me
// Auth: Required (RequireAuth sets userID in context)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// Unreachable on a RequireAuth-protected route, but be safe.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	user, err := h.auths.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    user.Profile(),
	})
}

// HandleGoogleRedirect starts the server-side Google code flow.
//
// HTTP: GET /auth/google/login
//
// The random state value is stored in a short-lived HttpOnly cookie
// and checked on callback (CSRF protection).
func (h *AuthHandler) HandleGoogleRedirect(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback completes the server-side code flow: state
// check, code exchange + ID token verification, then the same
// reconciliation as the POST endpoint. The session token is handed to
// the SPA in the redirect fragment, where it never reaches server logs.
//
// HTTP: GET /auth/google/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("google callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("google callback: user denied authorization",
			slog.String("error", errParam),
		)
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	identity, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("google callback: exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	// Exchange already verified the ID token, so hand the identity
	// straight to the reconciliation logic.
	result, err := h.auths.LoginWithGoogleIdentity(r.Context(), identity)
	if err != nil {
		writeError(w, err)
		return
	}

	http.Redirect(w, r, "/#token="+result.Token, http.StatusSeeOther)
}
