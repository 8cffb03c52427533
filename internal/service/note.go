package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/notely/notely-go/internal/model"
	"github.com/notely/notely-go/internal/repository"
)

var (
	ErrNoteNotFound   = errors.New("note not found")
	ErrNoNotesMatched = errors.New("no notes found to delete")
	ErrInvalidColor   = errors.New("color must be a valid hex color code")
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100

	// minSuggestQueryLen is the shortest query that produces suggestions;
	// anything shorter returns an empty list.
	minSuggestQueryLen = 2
	suggestLimit       = 5
)

var hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// NoteStore is the persistence surface the note operations need. Every
// method is scoped by the owning user.
type NoteStore interface {
	Create(ctx context.Context, note *model.Note) error
	GetByID(ctx context.Context, userID, noteID string) (*model.Note, error)
	List(ctx context.Context, userID string, f model.NoteFilter) ([]model.Note, int, error)
	Update(ctx context.Context, userID, noteID string, upd model.NoteUpdate) error
	SetPinned(ctx context.Context, userID, noteID string, pinned bool) error
	Delete(ctx context.Context, userID, noteID string) error
	DeleteMany(ctx context.Context, userID string, noteIDs []string) (int, error)
	ListTags(ctx context.Context, userID string) ([]string, error)
	Suggest(ctx context.Context, userID, query string, limit int) ([]model.Suggestion, error)
}

// NoteService handles note business logic. All operations act only on notes
// owned by the calling user; foreign notes surface as not found.
type NoteService struct {
	notes NoteStore
}

// NewNoteService creates a new NoteService.
func NewNoteService(notes NoteStore) *NoteService {
	return &NoteService{notes: notes}
}

// List returns one page of the user's notes, pinned-first then most recently
// updated, optionally narrowed by a search term or an exact tag.
func (s *NoteService) List(ctx context.Context, userID string, f model.NoteFilter) (model.NoteListResponse, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}

	notes, total, err := s.notes.List(ctx, userID, f)
	if err != nil {
		return model.NoteListResponse{}, err
	}

	return model.NewNoteListResponse(notes, f.Page, f.Limit, total), nil
}

// Get retrieves a single owned note.
func (s *NoteService) Get(ctx context.Context, userID, noteID string) (model.NoteResponse, error) {
	note, err := s.notes.GetByID(ctx, userID, noteID)
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return model.NoteResponse{}, ErrNoteNotFound
		}
		return model.NoteResponse{}, err
	}
	return model.NewNoteResponse(note), nil
}

// Create stores a new note for the user. Tags are deduplicated and
// blank-filtered; the color defaults to white.
func (s *NoteService) Create(ctx context.Context, userID string, req model.CreateNoteRequest) (model.NoteResponse, error) {
	color := req.Color
	if color == "" {
		color = model.DefaultNoteColor
	}
	if !hexColorRe.MatchString(color) {
		return model.NoteResponse{}, ErrInvalidColor
	}

	note := &model.Note{
		UserID:   userID,
		Title:    strings.TrimSpace(req.Title),
		Content:  strings.TrimSpace(req.Content),
		Tags:     NormalizeTags(req.Tags),
		IsPinned: req.IsPinned,
		Color:    color,
	}

	if err := s.notes.Create(ctx, note); err != nil {
		return model.NoteResponse{}, err
	}

	return model.NewNoteResponse(note), nil
}

// Update applies the supplied fields to an owned note and returns the
// updated note. Ownership cannot be changed through this path.
func (s *NoteService) Update(ctx context.Context, userID, noteID string, req model.UpdateNoteRequest) (model.NoteResponse, error) {
	upd := model.NoteUpdate{
		IsPinned: req.IsPinned,
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		upd.Title = &title
	}
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		upd.Content = &content
	}
	if req.Color != nil {
		if !hexColorRe.MatchString(*req.Color) {
			return model.NoteResponse{}, ErrInvalidColor
		}
		upd.Color = req.Color
	}
	if req.Tags != nil {
		tags := NormalizeTags(*req.Tags)
		upd.Tags = &tags
	}

	if err := s.notes.Update(ctx, userID, noteID, upd); err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return model.NoteResponse{}, ErrNoteNotFound
		}
		return model.NoteResponse{}, err
	}

	return s.Get(ctx, userID, noteID)
}

// Delete removes an owned note.
func (s *NoteService) Delete(ctx context.Context, userID, noteID string) error {
	err := s.notes.Delete(ctx, userID, noteID)
	if errors.Is(err, repository.ErrNoteNotFound) {
		return ErrNoteNotFound
	}
	return err
}

// BulkDelete removes the owned subset of the given notes and reports the
// count. It fails only when nothing matched.
func (s *NoteService) BulkDelete(ctx context.Context, userID string, noteIDs []string) (int, error) {
	count, err := s.notes.DeleteMany(ctx, userID, noteIDs)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, ErrNoNotesMatched
	}
	return count, nil
}

// TogglePin flips an owned note's pin flag and returns the updated note.
func (s *NoteService) TogglePin(ctx context.Context, userID, noteID string) (model.NoteResponse, error) {
	note, err := s.notes.GetByID(ctx, userID, noteID)
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return model.NoteResponse{}, ErrNoteNotFound
		}
		return model.NoteResponse{}, err
	}

	note.IsPinned = !note.IsPinned
	if err := s.notes.SetPinned(ctx, userID, noteID, note.IsPinned); err != nil {
		return model.NoteResponse{}, err
	}

	return model.NewNoteResponse(note), nil
}

// ListTags returns the user's distinct tags in ascending order.
func (s *NoteService) ListTags(ctx context.Context, userID string) ([]string, error) {
	return s.notes.ListTags(ctx, userID)
}

// Suggest returns up to five case-insensitive substring matches over the
// user's titles, contents and tags. Queries below the minimum length yield
// an empty list, never an error.
func (s *NoteService) Suggest(ctx context.Context, userID, query string) ([]model.Suggestion, error) {
	query = strings.TrimSpace(query)
	if len(query) < minSuggestQueryLen {
		return []model.Suggestion{}, nil
	}

	suggestions, err := s.notes.Suggest(ctx, userID, query, suggestLimit)
	if err != nil {
		return nil, err
	}
	if suggestions == nil {
		suggestions = []model.Suggestion{}
	}
	return suggestions, nil
}

// NormalizeTags trims, drops blanks and deduplicates while preserving first
// occurrence order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}
	return result
}
