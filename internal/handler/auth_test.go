package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hwdlte/notewell/internal/apperror"
	"github.com/hwdlte/notewell/internal/auth"
	"github.com/hwdlte/notewell/internal/model"
	"github.com/hwdlte/notewell/internal/service"
)

const testJWTSecret = "test-secret-at-least-16-chars!!"

// =========================================================================
// FAKES
// =========================================================================

// memUserRepo is a minimal in-memory user store for handler-level tests.
type memUserRepo struct {
	byEmail map[string]*model.User
	byID    map[string]*model.User
	nextID  int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byEmail: make(map[string]*model.User),
		byID:    make(map[string]*model.User),
	}
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, apperror.NotFound("user", email)
	}
	copied := *u
	return &copied, nil
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (m *memUserRepo) Create(_ context.Context, user *model.User) error {
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	copied := *user
	m.byEmail[user.Email] = &copied
	m.byID[user.ID] = &copied
	return nil
}

func (m *memUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := m.byID[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	copied := *user
	m.byEmail[user.Email] = &copied
	m.byID[user.ID] = &copied
	return nil
}

// memMailer captures the last sent mail; sendErr simulates relay failure.
type memMailer struct {
	lastTo   string
	lastBody string
	sendErr  error
}

func (m *memMailer) Send(_ context.Context, to, _ string, body string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.lastTo = to
	m.lastBody = body
	return nil
}

// testEnv bundles the handler under test with its collaborators.
type testEnv struct {
	handler *AuthHandler
	repo    *memUserRepo
	mailer  *memMailer
	tokens  *auth.TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tokens, err := auth.NewTokenService(testJWTSecret)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}

	repo := newMemUserRepo()
	mailer := &memMailer{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	auths := service.NewAuthService(repo, tokens, mailer, nil, logger)
	return &testEnv{
		handler: NewAuthHandler(auths, nil, logger),
		repo:    repo,
		mailer:  mailer,
		tokens:  tokens,
	}
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

// storedCode reads the OTP straight from the fake store — tests stand in
// for the email inbox.
func (e *testEnv) storedCode(t *testing.T, email string) string {
	t.Helper()

	u, ok := e.repo.byEmail[email]
	if !ok || u.OTPCode == "" {
		t.Fatalf("no stored code for %s", email)
	}
	return u.OTPCode
}

// =========================================================================
// SEND-OTP TESTS
// =========================================================================

func TestHandleSendOTP_Success(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env.handler.HandleSendOTP, "/api/users/send-otp",
		map[string]string{"email": "ada@example.com", "name": "Ada"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada@example.com", env.mailer.lastTo)

	var resp map[string]any
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])

	// The code must never appear in the HTTP response.
	assert.NotContains(t, rec.Body.String(), env.storedCode(t, "ada@example.com"))
}

func TestHandleSendOTP_InvalidJSON(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/users/send-otp", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	env.handler.HandleSendOTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSendOTP_InvalidEmail(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env.handler.HandleSendOTP, "/api/users/send-otp",
		map[string]string{"email": "not-an-email", "name": "Ada"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSendOTP_NewUserWithoutName(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env.handler.HandleSendOTP, "/api/users/send-otp",
		map[string]string{"email": "new@example.com"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSendOTP_DeliveryFailure(t *testing.T) {
	env := newTestEnv(t)
	env.mailer.sendErr = fmt.Errorf("relay unreachable")

	rec := postJSON(t, env.handler.HandleSendOTP, "/api/users/send-otp",
		map[string]string{"email": "ada@example.com", "name": "Ada"})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

// =========================================================================
// VERIFY-OTP TESTS
// =========================================================================

func TestHandleVerifyOTP_Success(t *testing.T) {
	env := newTestEnv(t)

	postJSON(t, env.handler.HandleSendOTP, "/api/users/send-otp",
		map[string]string{"email": "ada@example.com", "name": "Ada"})
	code := env.storedCode(t, "ada@example.com")

	rec := postJSON(t, env.handler.HandleVerifyOTP, "/api/users/verify-otp",
		map[string]string{"email": "ada@example.com", "otp": code})

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
		User    struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"user"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Ada", resp.User.Name)
	assert.Equal(t, "ada@example.com", resp.User.Email)

	// The issued token is usable.
	userID, err := env.tokens.Validate(resp.Token)
	assert.NoError(t, err)
	assert.Equal(t, resp.User.ID, userID)
}

func TestHandleVerifyOTP_WrongCode(t *testing.T) {
	env := newTestEnv(t)

	postJSON(t, env.handler.HandleSendOTP, "/api/users/send-otp",
		map[string]string{"email": "ada@example.com", "name": "Ada"})

	rec := postJSON(t, env.handler.HandleVerifyOTP, "/api/users/verify-otp",
		map[string]string{"email": "ada@example.com", "otp": "000000"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleVerifyOTP_UnknownEmailSameResponse(t *testing.T) {
	env := newTestEnv(t)

	postJSON(t, env.handler.HandleSendOTP, "/api/users/send-otp",
		map[string]string{"email": "ada@example.com", "name": "Ada"})

	known := postJSON(t, env.handler.HandleVerifyOTP, "/api/users/verify-otp",
		map[string]string{"email": "ada@example.com", "otp": "000000"})
	unknown := postJSON(t, env.handler.HandleVerifyOTP, "/api/users/verify-otp",
		map[string]string{"email": "ghost@example.com", "otp": "000000"})

	// Identical status and body — the response must not reveal whether
	// the email is registered.
	assert.Equal(t, known.Code, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())
}

// =========================================================================
// GOOGLE LOGIN TESTS
// =========================================================================

func TestHandleGoogleLogin_NotConfigured(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env.handler.HandleGoogleLogin, "/api/users/google",
		map[string]string{"token": "some-google-id-token"})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

// =========================================================================
// /me TESTS (through the auth middleware)
// =========================================================================

func TestHandleMe(t *testing.T) {
	env := newTestEnv(t)

	// Log a user in the honest way.
	postJSON(t, env.handler.HandleSendOTP, "/api/users/send-otp",
		map[string]string{"email": "ada@example.com", "name": "Ada"})
	code := env.storedCode(t, "ada@example.com")
	loginRec := postJSON(t, env.handler.HandleVerifyOTP, "/api/users/verify-otp",
		map[string]string{"email": "ada@example.com", "otp": code})

	var login struct {
		Token string `json:"token"`
	}
	assert.NoError(t, json.Unmarshal(loginRec.Body.Bytes(), &login))

	protected := auth.RequireAuth(env.tokens)(http.HandlerFunc(env.handler.HandleMe))

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		User    struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "ada@example.com", resp.User.Email)
}

func TestHandleMe_NoToken(t *testing.T) {
	env := newTestEnv(t)

	protected := auth.RequireAuth(env.tokens)(http.HandlerFunc(env.handler.HandleMe))

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
