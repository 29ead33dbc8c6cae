// Package auth provides session tokens, OTP generation, and the
// request gate for the notes API.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. Client POSTs /api/users/send-otp → a 6-digit code is stored on the
//    user record and emailed to them
// 2. Client POSTs /api/users/verify-otp with the code → on success the
//    code is cleared and a session token is issued
//    (alternatively: POST /api/users/google with a Google ID token)
// 3. The client sends "Authorization: Bearer <token>" on every later
//    request; RequireAuth validates it and sets the userID in context
//
// The session token is a JWT: self-contained and signed, so verifying
// it needs no database lookup — only the process-wide secret. There is
// no server-side revocation; possession of an unexpired token IS the
// authorization.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionLifetime is how long an issued session token stays valid.
// After expiry the client must log in again (OTP or Google).
const SessionLifetime = 7 * 24 * time.Hour

const issuer = "notewell"

// TokenService handles session token creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens. The
// same secret must be used for both operations — keep it safe, rotate
// it periodically in production.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. It embeds jwt.RegisteredClaims which
// includes the standard fields (Issuer, Subject, ExpiresAt, IssuedAt).
// We use "sub" (Subject) to store the internal user ID.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for the given userID,
// valid for SessionLifetime.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, same key signs
// and verifies. Fine for a single-server deployment like this one.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, SessionLifetime)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// Used directly by tests to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string. Returns the userID
// (stored in the "sub" claim) if the token is valid.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired (ExpiresAt is in the future)
//   - Issuer matches "notewell" (rejects tokens from other apps)
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
//
// Validation is pure — no I/O, no store lookup. The claims are trusted
// as-is for the lifetime of the token.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			// Reject tokens that aren't signed with HMAC
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	userID := c.Subject
	if userID == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return userID, nil
}
