package model

import "time"

// Note is a single note owned by a user.
// The `json:"..."` tags control how notes serialize in API responses.
// UserID is included so the frontend can sanity-check ownership, but
// all access control happens server-side in the repository queries.
type Note struct {
	ID        string    `json:"id"        db:"id"`
	UserID    string    `json:"userId"    db:"user_id"`
	Title     string    `json:"title"     db:"title"`
	Content   string    `json:"content"   db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
