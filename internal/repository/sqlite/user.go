package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/hwdlte/notewell/internal/apperror"
	"github.com/hwdlte/notewell/internal/model"
	"github.com/hwdlte/notewell/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, name, email, google_linked, otp_code, otp_expires_at, created_at, updated_at`

// Create inserts a new user record. The ID (xid — 20 chars, URL-safe,
// creation-time sortable) and timestamps are generated here and written
// back through the pointer.
//
// A duplicate email violates the UNIQUE constraint and is surfaced as
// apperror.ErrConflict; the issuance flow looks up by email first, so
// hitting this means two requests raced on first-time registration.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, google_linked, otp_code, otp_expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.GoogleLinked,
		nullString(user.OTPCode),
		nullTime(user.OTPExpiresAt),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

// GetByEmail retrieves a user by email, the natural key for login
// flows. Returns apperror.ErrNotFound when no record exists.
func (db *DB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email %s: %w", email, err)
	}
	return user, nil
}

// GetByID retrieves a user by internal ID (the session token subject).
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// Update persists every mutable field of the record, OTP state
// included. Writing otp_code and otp_expires_at in one statement is
// what keeps the "set and cleared together" invariant.
func (db *DB) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET name = ?, email = ?, google_linked = ?, otp_code = ?, otp_expires_at = ?, updated_at = ?
		 WHERE id = ?`,
		user.Name,
		user.Email,
		user.GoogleLinked,
		nullString(user.OTPCode),
		nullTime(user.OTPExpiresAt),
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking update of user %s: %w", user.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanUser reads one user row, mapping NULL OTP columns back to the
// model's zero values.
func scanUser(row rowScanner) (*model.User, error) {
	var (
		u       model.User
		code    sql.NullString
		expires sql.NullTime
	)

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.GoogleLinked,
		&code,
		&expires,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if code.Valid {
		u.OTPCode = code.String
	}
	if expires.Valid {
		u.OTPExpiresAt = expires.Time
	}

	return &u, nil
}

// nullString maps "" to NULL so the resting state is visible as NULL
// in the database, not as an empty-string code.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
