package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hwdlte/notewell/internal/apperror"
	"github.com/hwdlte/notewell/internal/model"
	"github.com/hwdlte/notewell/internal/repository"
)

// Validation limits for notes.
const (
	MaxNoteTitleLength   = 200
	MaxNoteContentLength = 100000 // ~100KB
)

// NoteService handles business logic for notes. Every operation takes
// the acting userID (from the session token) and the repository scopes
// all queries by it, so one user can never read or mutate another's
// notes.
type NoteService struct {
	repo   repository.NoteRepository
	logger *slog.Logger
}

// NewNoteService creates a NoteService.
func NewNoteService(repo repository.NoteRepository, logger *slog.Logger) *NoteService {
	return &NoteService{
		repo:   repo,
		logger: logger,
	}
}

// Create validates and saves a new note. Title and content are both
// required.
func (s *NoteService) Create(ctx context.Context, userID, title, content string) (*model.Note, error) {
	title = strings.TrimSpace(title)

	if title == "" {
		return nil, apperror.ValidationFailed("title", "note title is required")
	}
	if len(title) > MaxNoteTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("note title must be %d characters or less", MaxNoteTitleLength))
	}
	if content == "" {
		return nil, apperror.ValidationFailed("content", "note content is required")
	}
	if len(content) > MaxNoteContentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("note content must be %d characters or less", MaxNoteContentLength))
	}

	note := &model.Note{
		UserID:  userID,
		Title:   title,
		Content: content,
	}

	if err := s.repo.CreateNote(ctx, note); err != nil {
		s.logger.Error("failed to create note",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating note: %w", err)
	}

	s.logger.Info("note created",
		slog.String("id", note.ID),
		slog.String("userID", userID),
	)

	return note, nil
}

// GetByID retrieves one of the user's notes. A note owned by someone
// else returns NotFound, same as a missing one.
func (s *NoteService) GetByID(ctx context.Context, userID, id string) (*model.Note, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "note ID is required")
	}

	return s.repo.GetNoteByID(ctx, userID, id)
}

// List returns all of the user's notes, newest first.
func (s *NoteService) List(ctx context.Context, userID string) ([]model.Note, error) {
	notes, err := s.repo.ListNotesByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list notes",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing notes: %w", err)
	}

	return notes, nil
}

// Update modifies an existing note. Empty title or content means
// "keep the current value" so clients can send partial updates.
func (s *NoteService) Update(ctx context.Context, userID, id, title, content string) (*model.Note, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "note ID is required")
	}

	// Fetch first — confirms existence and ownership in one step.
	note, err := s.repo.GetNoteByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if title = strings.TrimSpace(title); title != "" {
		if len(title) > MaxNoteTitleLength {
			return nil, apperror.ValidationFailed("title",
				fmt.Sprintf("note title must be %d characters or less", MaxNoteTitleLength))
		}
		note.Title = title
	}
	if content != "" {
		if len(content) > MaxNoteContentLength {
			return nil, apperror.ValidationFailed("content",
				fmt.Sprintf("note content must be %d characters or less", MaxNoteContentLength))
		}
		note.Content = content
	}

	if err := s.repo.UpdateNote(ctx, note); err != nil {
		s.logger.Error("failed to update note",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating note: %w", err)
	}

	s.logger.Info("note updated", slog.String("id", note.ID))

	return note, nil
}

// Delete removes one of the user's notes.
func (s *NoteService) Delete(ctx context.Context, userID, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "note ID is required")
	}

	if err := s.repo.DeleteNote(ctx, userID, id); err != nil {
		return err
	}

	s.logger.Info("note deleted", slog.String("id", id))
	return nil
}
