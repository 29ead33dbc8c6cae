package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hwdlte/notewell/internal/apperror"
	"github.com/hwdlte/notewell/internal/model"
)

// createTestUser inserts a user to own the notes — the foreign key on
// notes.user_id is enforced.
func createTestUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()

	user := &model.User{Name: "Test User", Email: email}
	if err := db.Create(context.Background(), user); err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	return user
}

func createTestNote(t *testing.T, db *DB, userID, title string) *model.Note {
	t.Helper()

	note := &model.Note{UserID: userID, Title: title, Content: "content of " + title}
	if err := db.CreateNote(context.Background(), note); err != nil {
		t.Fatalf("creating test note: %v", err)
	}
	return note
}

// =========================================================================
// CREATE / GET TESTS
// =========================================================================

func TestNoteCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "ada@example.com")

	note := createTestNote(t, db, user.ID, "Groceries")
	if note.ID == "" {
		t.Fatal("CreateNote() did not assign an ID")
	}

	got, err := db.GetNoteByID(context.Background(), user.ID, note.ID)
	if err != nil {
		t.Fatalf("GetNoteByID() error = %v", err)
	}
	if got.Title != "Groceries" || got.UserID != user.ID {
		t.Errorf("GetNoteByID() = %+v", got)
	}
}

func TestNoteGet_OwnershipScoped(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	stranger := createTestUser(t, db, "stranger@example.com")

	note := createTestNote(t, db, owner.ID, "Private")

	// Same error as a missing note — no existence signal.
	_, err := db.GetNoteByID(context.Background(), stranger.ID, note.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetNoteByID() stranger error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestNoteList_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "ada@example.com")

	// Distinct created_at values so the ordering is deterministic.
	for i, title := range []string{"first", "second", "third"} {
		note := &model.Note{UserID: user.ID, Title: title, Content: "c"}
		if err := db.CreateNote(context.Background(), note); err != nil {
			t.Fatalf("CreateNote() error = %v", err)
		}
		// CreateNote stamps time.Now(); nudge the stored value apart.
		note.CreatedAt = time.Now().Add(time.Duration(i) * time.Second)
		if _, err := db.conn.Exec(`UPDATE notes SET created_at = ? WHERE id = ?`, note.CreatedAt, note.ID); err != nil {
			t.Fatalf("backdating note: %v", err)
		}
	}

	notes, err := db.ListNotesByUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListNotesByUser() error = %v", err)
	}
	if len(notes) != 3 {
		t.Fatalf("got %d notes, want 3", len(notes))
	}
	if notes[0].Title != "third" || notes[2].Title != "first" {
		t.Errorf("wrong order: %s, %s, %s", notes[0].Title, notes[1].Title, notes[2].Title)
	}
}

func TestNoteList_EmptyIsNotNil(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "ada@example.com")

	notes, err := db.ListNotesByUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListNotesByUser() error = %v", err)
	}
	if notes == nil {
		t.Fatal("ListNotesByUser() returned nil, want empty slice")
	}
	if len(notes) != 0 {
		t.Fatalf("got %d notes, want 0", len(notes))
	}
}

func TestNoteList_OnlyOwnNotes(t *testing.T) {
	db := newTestDB(t)
	ada := createTestUser(t, db, "ada@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	createTestNote(t, db, ada.ID, "ada 1")
	createTestNote(t, db, ada.ID, "ada 2")
	createTestNote(t, db, bob.ID, "bob 1")

	notes, err := db.ListNotesByUser(context.Background(), ada.ID)
	if err != nil {
		t.Fatalf("ListNotesByUser() error = %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("got %d notes, want 2", len(notes))
	}
	for _, n := range notes {
		if n.UserID != ada.ID {
			t.Errorf("foreign note in list: %+v", n)
		}
	}
}

// =========================================================================
// UPDATE / DELETE TESTS
// =========================================================================

func TestNoteUpdate(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "ada@example.com")
	note := createTestNote(t, db, user.ID, "Old title")

	note.Title = "New title"
	note.Content = "new content"
	if err := db.UpdateNote(context.Background(), note); err != nil {
		t.Fatalf("UpdateNote() error = %v", err)
	}

	got, err := db.GetNoteByID(context.Background(), user.ID, note.ID)
	if err != nil {
		t.Fatalf("GetNoteByID() error = %v", err)
	}
	if got.Title != "New title" || got.Content != "new content" {
		t.Errorf("update not persisted: %+v", got)
	}
}

func TestNoteUpdate_StrangerGetsNotFound(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	stranger := createTestUser(t, db, "stranger@example.com")
	note := createTestNote(t, db, owner.ID, "Private")

	hijack := *note
	hijack.UserID = stranger.ID
	hijack.Title = "Hijacked"

	err := db.UpdateNote(context.Background(), &hijack)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("UpdateNote() stranger error = %v, want ErrNotFound", err)
	}

	// Original untouched.
	got, _ := db.GetNoteByID(context.Background(), owner.ID, note.ID)
	if got.Title != "Private" {
		t.Errorf("note was mutated by a stranger: %+v", got)
	}
}

func TestNoteDelete(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "ada@example.com")
	note := createTestNote(t, db, user.ID, "Doomed")

	if err := db.DeleteNote(context.Background(), user.ID, note.ID); err != nil {
		t.Fatalf("DeleteNote() error = %v", err)
	}

	_, err := db.GetNoteByID(context.Background(), user.ID, note.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetNoteByID() after delete error = %v, want ErrNotFound", err)
	}

	// Deleting again is NotFound, not a silent no-op.
	if err := db.DeleteNote(context.Background(), user.ID, note.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("second DeleteNote() error = %v, want ErrNotFound", err)
	}
}
