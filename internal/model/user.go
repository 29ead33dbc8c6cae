// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered user account.
//
// The email address is the natural key — exactly one record exists per
// email, enforced by a UNIQUE constraint in the store. The internal ID
// (xid) is what session tokens carry, so our primary keys never depend
// on anything a user can change.
//
// OTP STATE:
// OTPCode and OTPExpiresAt are set and cleared together, never
// independently. An empty OTPCode (with zero OTPExpiresAt) is the
// resting state; a non-empty code with an expiry is a login in
// progress. Expired codes are not swept — they are rejected lazily at
// verification time and overwritten by the next issuance.
//
// WHY OTPExpiresAt time.Time (not *time.Time)?
// The zero value already means "no expiry recorded", and the validity
// check requires the expiry to be both set and in the future, so a
// nullable pointer buys nothing. The store maps the zero value to NULL.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Name         string    `json:"name"      db:"name"`
	Email        string    `json:"email"     db:"email"`
	GoogleLinked bool      `json:"-"         db:"google_linked"` // true once the Google account is confirmed
	OTPCode      string    `json:"-"         db:"otp_code"`      // never serialized to clients
	OTPExpiresAt time.Time `json:"-"         db:"otp_expires_at"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// HasPendingOTP reports whether a login attempt is outstanding,
// regardless of whether the code has expired.
func (u *User) HasPendingOTP() bool {
	return u.OTPCode != ""
}

// ClearOTP resets the record to its resting state. Both fields move
// together so a stale code can never outlive its expiry (or vice versa).
func (u *User) ClearOTP() {
	u.OTPCode = ""
	u.OTPExpiresAt = time.Time{}
}

// Profile is the minimal user projection returned by authentication
// endpoints. OTP state and linkage flags never leave the server.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Profile returns the public projection of the user.
func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Name: u.Name, Email: u.Email}
}
