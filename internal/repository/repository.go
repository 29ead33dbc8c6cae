// Package repository declares the storage interfaces the service layer
// programs against. The concrete implementation lives in
// repository/sqlite; tests substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/hwdlte/notewell/internal/model"
)

// UserRepository is the credential store.
//
// GetByEmail returns apperror.ErrNotFound when no record exists for the
// email — issuance and login flows branch on that to decide between
// create and update. Update persists the full record, including OTP
// fields, so setting and clearing a code is always a single save.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
}

// NoteRepository stores per-user notes. Every read and write is scoped
// by userID — a note ID belonging to another user behaves exactly like
// a nonexistent one.
//
// Method names carry the Note suffix because the SQLite DB type
// implements both repositories on one receiver.
type NoteRepository interface {
	CreateNote(ctx context.Context, note *model.Note) error
	GetNoteByID(ctx context.Context, userID, id string) (*model.Note, error)
	ListNotesByUser(ctx context.Context, userID string) ([]model.Note, error)
	UpdateNote(ctx context.Context, note *model.Note) error
	DeleteNote(ctx context.Context, userID, id string) error
}
