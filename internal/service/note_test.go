package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/hwdlte/notewell/internal/apperror"
	"github.com/hwdlte/notewell/internal/model"
)

// fakeNoteRepo is an in-memory implementation of
// repository.NoteRepository with the same ownership semantics as the
// SQLite store: a note belonging to another user is indistinguishable
// from a missing one.
type fakeNoteRepo struct {
	notes  map[string]*model.Note
	nextID int
}

func newFakeNoteRepo() *fakeNoteRepo {
	return &fakeNoteRepo{notes: make(map[string]*model.Note)}
}

func (f *fakeNoteRepo) CreateNote(_ context.Context, note *model.Note) error {
	f.nextID++
	note.ID = fmt.Sprintf("note-%d", f.nextID)
	note.CreatedAt = time.Now()
	note.UpdatedAt = time.Now()
	copied := *note
	f.notes[note.ID] = &copied
	return nil
}

func (f *fakeNoteRepo) GetNoteByID(_ context.Context, userID, id string) (*model.Note, error) {
	note, ok := f.notes[id]
	if !ok || note.UserID != userID {
		return nil, apperror.NotFound("note", id)
	}
	copied := *note
	return &copied, nil
}

func (f *fakeNoteRepo) ListNotesByUser(_ context.Context, userID string) ([]model.Note, error) {
	result := []model.Note{}
	for _, note := range f.notes {
		if note.UserID == userID {
			result = append(result, *note)
		}
	}
	return result, nil
}

func (f *fakeNoteRepo) UpdateNote(_ context.Context, note *model.Note) error {
	existing, ok := f.notes[note.ID]
	if !ok || existing.UserID != note.UserID {
		return apperror.NotFound("note", note.ID)
	}
	note.UpdatedAt = time.Now()
	copied := *note
	f.notes[note.ID] = &copied
	return nil
}

func (f *fakeNoteRepo) DeleteNote(_ context.Context, userID, id string) error {
	note, ok := f.notes[id]
	if !ok || note.UserID != userID {
		return apperror.NotFound("note", id)
	}
	delete(f.notes, id)
	return nil
}

func newTestNoteService() (*NoteService, *fakeNoteRepo) {
	repo := newFakeNoteRepo()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewNoteService(repo, logger), repo
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestNoteCreate_Valid(t *testing.T) {
	svc, _ := newTestNoteService()

	note, err := svc.Create(context.Background(), "user-1", "Groceries", "milk, eggs")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if note.ID == "" {
		t.Error("Create() did not assign an ID")
	}
	if note.UserID != "user-1" {
		t.Errorf("note.UserID = %q, want %q", note.UserID, "user-1")
	}
}

func TestNoteCreate_Validation(t *testing.T) {
	svc, _ := newTestNoteService()

	cases := []struct {
		name    string
		title   string
		content string
	}{
		{"empty title", "", "content"},
		{"whitespace title", "   ", "content"},
		{"empty content", "Title", ""},
		{"title too long", strings.Repeat("x", MaxNoteTitleLength+1), "content"},
		{"content too long", "Title", strings.Repeat("x", MaxNoteContentLength+1)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "user-1", tc.title, tc.content)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

// =========================================================================
// READ TESTS
// =========================================================================

func TestNoteGetByID_OwnershipIsolation(t *testing.T) {
	svc, _ := newTestNoteService()

	note, err := svc.Create(context.Background(), "user-1", "Private", "secret")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// The owner sees it.
	if _, err := svc.GetByID(context.Background(), "user-1", note.ID); err != nil {
		t.Fatalf("GetByID() owner error = %v", err)
	}

	// Anyone else gets NotFound, not Forbidden — existence leaks nothing.
	_, err = svc.GetByID(context.Background(), "user-2", note.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetByID() stranger error = %v, want ErrNotFound", err)
	}
}

func TestNoteList_OnlyOwnNotes(t *testing.T) {
	svc, _ := newTestNoteService()

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(context.Background(), "user-1", fmt.Sprintf("note %d", i), "body"); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	if _, err := svc.Create(context.Background(), "user-2", "other", "body"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	notes, err := svc.List(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(notes) != 3 {
		t.Errorf("List() returned %d notes, want 3", len(notes))
	}
}

// =========================================================================
// UPDATE / DELETE TESTS
// =========================================================================

func TestNoteUpdate_PartialFields(t *testing.T) {
	svc, _ := newTestNoteService()

	note, err := svc.Create(context.Background(), "user-1", "Old title", "old content")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Empty content means "keep it".
	updated, err := svc.Update(context.Background(), "user-1", note.ID, "New title", "")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title != "New title" {
		t.Errorf("Title = %q, want %q", updated.Title, "New title")
	}
	if updated.Content != "old content" {
		t.Errorf("Content = %q, want unchanged %q", updated.Content, "old content")
	}
}

func TestNoteUpdate_StrangerGetsNotFound(t *testing.T) {
	svc, _ := newTestNoteService()

	note, _ := svc.Create(context.Background(), "user-1", "Title", "content")

	_, err := svc.Update(context.Background(), "user-2", note.ID, "Hijacked", "")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Update() stranger error = %v, want ErrNotFound", err)
	}
}

func TestNoteDelete(t *testing.T) {
	svc, _ := newTestNoteService()

	note, _ := svc.Create(context.Background(), "user-1", "Title", "content")

	// Stranger cannot delete it.
	if err := svc.Delete(context.Background(), "user-2", note.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Delete() stranger error = %v, want ErrNotFound", err)
	}

	// Owner can.
	if err := svc.Delete(context.Background(), "user-1", note.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	// Gone now.
	if _, err := svc.GetByID(context.Background(), "user-1", note.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestNoteDelete_EmptyID(t *testing.T) {
	svc, _ := newTestNoteService()

	if err := svc.Delete(context.Background(), "user-1", ""); !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Delete(\"\") error = %v, want ErrValidation", err)
	}
}
