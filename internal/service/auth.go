// Package service — authentication business logic.
//
// AuthService is the business logic layer for authentication. It sits
// between the HTTP handlers and the repository/auth utilities:
//
//	AuthHandler (HTTP) → AuthService (state machine) → UserRepository (DB)
//	                   ↘ TokenService (JWT)  ↘ Mailer (SMTP)  ↘ Google verifier
//
// THE OTP STATE MACHINE (per user record):
//
//	Resting (no code)  → RequestOTP     → Pending (code + expiry set)
//	Pending            → VerifyOTP ok   → Resting (cleared, token issued)
//	Pending            → VerifyOTP bad  → Pending (unchanged; retry or re-request)
//	Pending            → RequestOTP     → Pending (overwritten — old code dead)
//
// Expired codes are never swept; expiry is evaluated lazily at
// verification time. Two concurrent issuances race last-writer-wins,
// which is acceptable because codes are single-use and short-lived.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/hwdlte/notewell/internal/apperror"
	"github.com/hwdlte/notewell/internal/auth"
	mailer "github.com/hwdlte/notewell/internal/mail"
	"github.com/hwdlte/notewell/internal/model"
	"github.com/hwdlte/notewell/internal/repository"
)

// OTPTTL is how long an issued login code stays valid.
const OTPTTL = 5 * time.Minute

// otpRejectedMessage is the single client-facing message for every
// verification failure: unknown email, wrong code, expired code. The
// internal cause is logged, but the response never distinguishes them
// — that would let a caller enumerate registered accounts.
const otpRejectedMessage = "invalid or expired code"

// IdentityVerifier validates a federated identity assertion and
// returns the verified identity. Satisfied by *auth.GoogleProvider;
// tests substitute a fake.
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, rawIDToken string) (*auth.GoogleIdentity, error)
}

// AuthService handles the authentication business logic.
type AuthService struct {
	users    repository.UserRepository
	tokens   *auth.TokenService
	mailer   mailer.Mailer
	verifier IdentityVerifier // may be nil when Google sign-in is not configured
	logger   *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
// verifier may be nil; LoginWithGoogle then fails cleanly.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	m mailer.Mailer,
	verifier IdentityVerifier,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		mailer:   m,
		verifier: verifier,
		logger:   logger,
	}
}

// AuthResult is returned by the operations that complete a login.
// It bundles the user record and the issued session token so the
// handler can respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// RequestOTP issues a login code for the given email and hands it to
// the mail dispatcher.
//
// name is required only when no record exists yet — first contact
// creates the account. An already-pending code is overwritten
// unconditionally: there is never more than one valid code per user,
// and issuing a new one kills the old one.
//
// The stored code survives a mail delivery failure on purpose: the
// user may retry with a code learned out-of-band, or simply request a
// new one.
func (s *AuthService) RequestOTP(ctx context.Context, email, name string) error {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)

	// Validation happens before any store mutation.
	if !validEmail(email) {
		return apperror.ValidationFailed("email", "invalid email address")
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		// First contact — register the account now, code attached below.
		if name == "" {
			return apperror.ValidationFailed("name", "name is required for new users")
		}
		user = &model.User{Name: name, Email: email}
		if err := s.users.Create(ctx, user); err != nil {
			return fmt.Errorf("service/auth: creating user %s: %w", email, err)
		}
		s.logger.Info("user registered via OTP request",
			slog.String("userID", user.ID),
		)
	case err != nil:
		return fmt.Errorf("service/auth: looking up user %s: %w", email, err)
	}

	if user.HasPendingOTP() && time.Now().Before(user.OTPExpiresAt) {
		// No resend throttle is enforced; surface the overwrite so an
		// operator can spot abuse of the mail dispatcher.
		s.logger.Warn("overwriting a still-valid login code",
			slog.String("userID", user.ID),
		)
	}

	code, err := auth.GenerateOTP()
	if err != nil {
		return fmt.Errorf("service/auth: %w", err)
	}

	user.OTPCode = code
	user.OTPExpiresAt = time.Now().Add(OTPTTL)
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("service/auth: storing login code for %s: %w", user.ID, err)
	}

	// Deliberate debug aid: the code goes to the log, never to the
	// HTTP response.
	s.logger.Debug("login code issued",
		slog.String("userID", user.ID),
		slog.String("code", code),
	)

	body := fmt.Sprintf("Your login code is: %s\n\nIt expires in 5 minutes.", code)
	if err := s.mailer.Send(ctx, user.Email, "Your login code", body); err != nil {
		s.logger.Error("login code delivery failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("delivering login code: %w",
			apperror.Unavailable("could not send the login code email"))
	}

	return nil
}

// VerifyOTP checks a submitted code and, on success, clears it and
// issues a session token.
//
// The code is valid iff it matches the stored one AND an expiry is
// recorded AND the expiry has not passed. A verified code can never be
// replayed — clearing both OTP fields is part of the same persist.
func (s *AuthService) VerifyOTP(ctx context.Context, email, otp string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	otp = strings.TrimSpace(otp)

	if email == "" || otp == "" {
		return nil, apperror.ValidationFailed("otp", "email and code are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// Same client-facing message as a wrong code.
			s.logger.Info("OTP verification for unknown email")
			return nil, apperror.Unauthorized(otpRejectedMessage)
		}
		return nil, fmt.Errorf("service/auth: looking up user %s: %w", email, err)
	}

	if !otpValid(user, otp, time.Now()) {
		// Record stays untouched — the caller may retry or re-request.
		s.logger.Info("OTP verification rejected",
			slog.String("userID", user.ID),
		)
		return nil, apperror.Unauthorized(otpRejectedMessage)
	}

	user.ClearOTP()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: clearing login code for %s: %w", user.ID, err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user authenticated via OTP",
		slog.String("userID", user.ID),
	)

	return &AuthResult{User: user, Token: token}, nil
}

// LoginWithGoogle validates a Google ID token assertion and signs the
// user in, creating or linking the account as needed.
//
// Reconciliation rules:
//   - unknown email          → create record with GoogleLinked = true
//   - known, not yet linked  → flip GoogleLinked, keep everything else
//   - known, already linked  → no mutation
//
// This path never touches the OTP fields: a pending email login stays
// pending.
func (s *AuthService) LoginWithGoogle(ctx context.Context, rawIDToken string) (*AuthResult, error) {
	if s.verifier == nil {
		return nil, apperror.Unavailable("Google sign-in is not configured")
	}
	if strings.TrimSpace(rawIDToken) == "" {
		return nil, apperror.ValidationFailed("token", "Google ID token is required")
	}

	identity, err := s.verifier.VerifyIDToken(ctx, rawIDToken)
	if err != nil {
		s.logger.Info("Google ID token rejected", slog.String("error", err.Error()))
		return nil, apperror.Unauthorized("Google sign-in failed")
	}

	return s.LoginWithGoogleIdentity(ctx, identity)
}

// LoginWithGoogleIdentity runs the reconciliation for an
// already-verified Google identity. The redirect-flow callback uses
// this directly, since the code exchange verifies the ID token itself.
func (s *AuthService) LoginWithGoogleIdentity(ctx context.Context, identity *auth.GoogleIdentity) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, identity.Email)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		user = &model.User{
			Name:         identity.Name,
			Email:        identity.Email,
			GoogleLinked: true,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: creating user %s: %w", identity.Email, err)
		}
		s.logger.Info("user registered via Google",
			slog.String("userID", user.ID),
		)
	case err != nil:
		return nil, fmt.Errorf("service/auth: looking up user %s: %w", identity.Email, err)
	case !user.GoogleLinked:
		// Existing OTP-based account now proven to own the Google
		// identity — link it rather than creating a duplicate record.
		user.GoogleLinked = true
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: linking Google for %s: %w", user.ID, err)
		}
		s.logger.Info("linked Google to existing account",
			slog.String("userID", user.ID),
		)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID returns the user for the given internal ID. Used by the
// /api/users/me handler after the middleware validates the session
// token.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}

// otpValid is the whole verification conjunction in one place. Callers
// must not report WHICH clause failed.
func otpValid(user *model.User, otp string, now time.Time) bool {
	return user.OTPCode != "" &&
		user.OTPCode == otp &&
		!user.OTPExpiresAt.IsZero() &&
		!user.OTPExpiresAt.Before(now)
}

// validEmail applies the basic syntactic check: an addr-spec that
// net/mail accepts, with a dotted domain. "user@localhost" fails;
// "user@example.com" passes. Full RFC validation is not the goal —
// deliverability is proven by the OTP round-trip itself.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}
