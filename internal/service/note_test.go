package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/notely/notely-go/internal/model"
	"github.com/notely/notely-go/internal/repository"
)

// memNoteStore is an in-memory NoteStore mirroring the repository's
// ownership scoping, ordering and paging behavior.
type memNoteStore struct {
	notes map[string]*model.Note
	seq   int
	clock time.Time
}

func newMemNoteStore() *memNoteStore {
	return &memNoteStore{
		notes: make(map[string]*model.Note),
		clock: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp so recency ordering is
// deterministic.
func (s *memNoteStore) tick() time.Time {
	s.clock = s.clock.Add(time.Minute)
	return s.clock
}

func (s *memNoteStore) Create(ctx context.Context, note *model.Note) error {
	s.seq++
	note.ID = fmt.Sprintf("note-%d", s.seq)
	note.CreatedAt = s.tick()
	note.UpdatedAt = note.CreatedAt
	stored := *note
	stored.Tags = append([]string(nil), note.Tags...)
	s.notes[note.ID] = &stored
	return nil
}

func (s *memNoteStore) GetByID(ctx context.Context, userID, noteID string) (*model.Note, error) {
	n, ok := s.notes[noteID]
	if !ok || n.UserID != userID {
		return nil, repository.ErrNoteNotFound
	}
	copied := *n
	copied.Tags = append([]string(nil), n.Tags...)
	return &copied, nil
}

func (s *memNoteStore) List(ctx context.Context, userID string, f model.NoteFilter) ([]model.Note, int, error) {
	var matched []model.Note
	for _, n := range s.notes {
		if n.UserID != userID {
			continue
		}
		if f.Tag != "" && !contains(n.Tags, f.Tag) {
			continue
		}
		if f.Search != "" && !matchesSearch(n, f.Search) {
			continue
		}
		matched = append(matched, *n)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].IsPinned != matched[j].IsPinned {
			return matched[i].IsPinned
		}
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})

	total := len(matched)
	start := (f.Page - 1) * f.Limit
	if start > total {
		start = total
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *memNoteStore) Update(ctx context.Context, userID, noteID string, upd model.NoteUpdate) error {
	n, ok := s.notes[noteID]
	if !ok || n.UserID != userID {
		return repository.ErrNoteNotFound
	}
	if upd.Title != nil {
		n.Title = *upd.Title
	}
	if upd.Content != nil {
		n.Content = *upd.Content
	}
	if upd.Color != nil {
		n.Color = *upd.Color
	}
	if upd.IsPinned != nil {
		n.IsPinned = *upd.IsPinned
	}
	if upd.Tags != nil {
		n.Tags = append([]string(nil), (*upd.Tags)...)
	}
	n.UpdatedAt = s.tick()
	return nil
}

func (s *memNoteStore) SetPinned(ctx context.Context, userID, noteID string, pinned bool) error {
	n, ok := s.notes[noteID]
	if !ok || n.UserID != userID {
		return repository.ErrNoteNotFound
	}
	n.IsPinned = pinned
	n.UpdatedAt = s.tick()
	return nil
}

func (s *memNoteStore) Delete(ctx context.Context, userID, noteID string) error {
	n, ok := s.notes[noteID]
	if !ok || n.UserID != userID {
		return repository.ErrNoteNotFound
	}
	delete(s.notes, noteID)
	return nil
}

func (s *memNoteStore) DeleteMany(ctx context.Context, userID string, noteIDs []string) (int, error) {
	count := 0
	for _, id := range noteIDs {
		if n, ok := s.notes[id]; ok && n.UserID == userID {
			delete(s.notes, id)
			count++
		}
	}
	return count, nil
}

func (s *memNoteStore) ListTags(ctx context.Context, userID string) ([]string, error) {
	seen := make(map[string]struct{})
	for _, n := range s.notes {
		if n.UserID != userID {
			continue
		}
		for _, tag := range n.Tags {
			if tag != "" {
				seen[tag] = struct{}{}
			}
		}
	}
	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}

func (s *memNoteStore) Suggest(ctx context.Context, userID, query string, limit int) ([]model.Suggestion, error) {
	q := strings.ToLower(query)
	var result []model.Suggestion
	for _, n := range s.notes {
		if n.UserID != userID || len(result) >= limit {
			continue
		}
		if matchesSearch(n, q) {
			result = append(result, model.Suggestion{ID: n.ID, Title: n.Title, Tags: n.Tags})
		}
	}
	return result, nil
}

func contains(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func matchesSearch(n *model.Note, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Content), q) {
		return true
	}
	for _, tag := range n.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func newTestNoteService() (*NoteService, *memNoteStore) {
	store := newMemNoteStore()
	return NewNoteService(store), store
}

func TestCreateNoteDefaultsAndTagNormalization(t *testing.T) {
	svc, _ := newTestNoteService()

	note, err := svc.Create(context.Background(), "user-1", model.CreateNoteRequest{
		Title:   "Groceries",
		Content: "milk, eggs",
		Tags:    []string{"a", "a", " ", "b"},
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	if note.Color != model.DefaultNoteColor {
		t.Errorf("Create() color = %q, want %q", note.Color, model.DefaultNoteColor)
	}
	if note.IsPinned {
		t.Error("Create() isPinned should default to false")
	}
	if !reflect.DeepEqual(note.Tags, []string{"a", "b"}) {
		t.Errorf("Create() tags = %v, want [a b]", note.Tags)
	}
}

func TestCreateNoteInvalidColor(t *testing.T) {
	svc, _ := newTestNoteService()

	tests := []string{"red", "#fff", "#GGGGGG", "ffffff", "#12345"}
	for _, color := range tests {
		_, err := svc.Create(context.Background(), "user-1", model.CreateNoteRequest{
			Title: "t", Content: "c", Color: color,
		})
		if !errors.Is(err, ErrInvalidColor) {
			t.Errorf("Create(color=%q) error = %v, want ErrInvalidColor", color, err)
		}
	}

	// Hex matching is case-insensitive.
	if _, err := svc.Create(context.Background(), "user-1", model.CreateNoteRequest{
		Title: "t", Content: "c", Color: "#A1b2C3",
	}); err != nil {
		t.Errorf("Create(color=#A1b2C3) unexpected error: %v", err)
	}
}

func TestNoteRoundTrip(t *testing.T) {
	svc, _ := newTestNoteService()

	created, err := svc.Create(context.Background(), "user-1", model.CreateNoteRequest{
		Title:    "Ideas",
		Content:  "build a note app",
		Tags:     []string{"side-project"},
		Color:    "#aabbcc",
		IsPinned: true,
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	got, err := svc.Get(context.Background(), "user-1", created.ID)
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, created) {
		t.Errorf("Get() = %+v, want %+v", got, created)
	}
}

func TestListPagination(t *testing.T) {
	svc, _ := newTestNoteService()

	for i := 0; i < 25; i++ {
		if _, err := svc.Create(context.Background(), "user-1", model.CreateNoteRequest{
			Title: fmt.Sprintf("note %d", i), Content: "body",
		}); err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}
	}

	resp, err := svc.List(context.Background(), "user-1", model.NoteFilter{Page: 3, Limit: 10})
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}

	if len(resp.Notes) != 5 {
		t.Errorf("page 3 has %d notes, want 5", len(resp.Notes))
	}
	p := resp.Pagination
	if p.CurrentPage != 3 || p.TotalPages != 3 || p.TotalNotes != 25 {
		t.Errorf("pagination = %+v, want page 3 of 3, 25 total", p)
	}
	if p.HasNextPage {
		t.Error("page 3 of 3 should not have a next page")
	}
	if !p.HasPrevPage {
		t.Error("page 3 should have a previous page")
	}
}

func TestListPinnedFirst(t *testing.T) {
	svc, _ := newTestNoteService()

	if _, err := svc.Create(context.Background(), "user-1", model.CreateNoteRequest{
		Title: "older unpinned", Content: "body",
	}); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	pinned, err := svc.Create(context.Background(), "user-1", model.CreateNoteRequest{
		Title: "pinned", Content: "body", IsPinned: true,
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if _, err := svc.Create(context.Background(), "user-1", model.CreateNoteRequest{
		Title: "newest unpinned", Content: "body",
	}); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	resp, err := svc.List(context.Background(), "user-1", model.NoteFilter{})
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(resp.Notes) != 3 {
		t.Fatalf("List() returned %d notes, want 3", len(resp.Notes))
	}
	if resp.Notes[0].ID != pinned.ID {
		t.Errorf("first note = %q, want pinned note %q", resp.Notes[0].ID, pinned.ID)
	}
	if resp.Notes[1].Title != "newest unpinned" {
		t.Errorf("second note = %q, want newest unpinned", resp.Notes[1].Title)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	svc, _ := newTestNoteService()

	note, err := svc.Create(context.Background(), "user-a", model.CreateNoteRequest{
		Title: "private", Content: "secret",
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	if _, err := svc.Get(context.Background(), "user-b", note.ID); !errors.Is(err, ErrNoteNotFound) {
		t.Errorf("Get() by non-owner error = %v, want ErrNoteNotFound", err)
	}

	title := "stolen"
	if _, err := svc.Update(context.Background(), "user-b", note.ID, model.UpdateNoteRequest{
		Title: &title,
	}); !errors.Is(err, ErrNoteNotFound) {
		t.Errorf("Update() by non-owner error = %v, want ErrNoteNotFound", err)
	}

	if _, err := svc.TogglePin(context.Background(), "user-b", note.ID); !errors.Is(err, ErrNoteNotFound) {
		t.Errorf("TogglePin() by non-owner error = %v, want ErrNoteNotFound", err)
	}

	if err := svc.Delete(context.Background(), "user-b", note.ID); !errors.Is(err, ErrNoteNotFound) {
		t.Errorf("Delete() by non-owner error = %v, want ErrNoteNotFound", err)
	}

	// The owner still sees the untouched note.
	got, err := svc.Get(context.Background(), "user-a", note.ID)
	if err != nil {
		t.Fatalf("Get() by owner unexpected error: %v", err)
	}
	if got.Title != "private" {
		t.Errorf("note title = %q, non-owner update leaked through", got.Title)
	}
}

func TestUpdateAppliesOnlySuppliedFields(t *testing.T) {
	svc, _ := newTestNoteService()

	note, err := svc.Create(context.Background(), "user-1", model.CreateNoteRequest{
		Title: "original", Content: "body", Tags: []string{"keep"}, Color: "#aabbcc",
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	title := "renamed"
	updated, err := svc.Update(context.Background(), "user-1", note.ID, model.UpdateNoteRequest{
		Title: &title,
	})
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}

	if updated.Title != "renamed" {
		t.Errorf("title = %q, want renamed", updated.Title)
	}
	if updated.Content != "body" || updated.Color != "#aabbcc" || !reflect.DeepEqual(updated.Tags, []string{"keep"}) {
		t.Errorf("unsupplied fields changed: %+v", updated)
	}
	if !updated.UpdatedAt.After(note.UpdatedAt) {
		t.Error("Update() did not bump updatedAt")
	}
}

func TestUpdateNormalizesTags(t *testing.T) {
	svc, _ := newTestNoteService()

	note, err := svc.Create(context.Background(), "user-1", model.CreateNoteRequest{
		Title: "t", Content: "c",
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	tags := []string{"x", "x", "", "y", " "}
	updated, err := svc.Update(context.Background(), "user-1", note.ID, model.UpdateNoteRequest{
		Tags: &tags,
	})
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	if !reflect.DeepEqual(updated.Tags, []string{"x", "y"}) {
		t.Errorf("tags = %v, want [x y]", updated.Tags)
	}
}

func TestTogglePinReturnsNewState(t *testing.T) {
	svc, _ := newTestNoteService()

	note, err := svc.Create(context.Background(), "user-1", model.CreateNoteRequest{
		Title: "t", Content: "c",
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	pinned, err := svc.TogglePin(context.Background(), "user-1", note.ID)
	if err != nil {
		t.Fatalf("TogglePin() unexpected error: %v", err)
	}
	if !pinned.IsPinned {
		t.Error("first TogglePin() should pin the note")
	}

	unpinned, err := svc.TogglePin(context.Background(), "user-1", note.ID)
	if err != nil {
		t.Fatalf("TogglePin() unexpected error: %v", err)
	}
	if unpinned.IsPinned {
		t.Error("second TogglePin() should unpin the note")
	}
}

func TestBulkDeleteSkipsForeignNotes(t *testing.T) {
	svc, store := newTestNoteService()

	mine1, _ := svc.Create(context.Background(), "user-a", model.CreateNoteRequest{Title: "1", Content: "c"})
	foreign, _ := svc.Create(context.Background(), "user-b", model.CreateNoteRequest{Title: "2", Content: "c"})
	mine2, _ := svc.Create(context.Background(), "user-a", model.CreateNoteRequest{Title: "3", Content: "c"})

	count, err := svc.BulkDelete(context.Background(), "user-a", []string{mine1.ID, foreign.ID, mine2.ID})
	if err != nil {
		t.Fatalf("BulkDelete() unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("BulkDelete() count = %d, want 2", count)
	}
	if _, ok := store.notes[foreign.ID]; !ok {
		t.Error("BulkDelete() removed a note owned by another user")
	}
}

func TestBulkDeleteNothingMatched(t *testing.T) {
	svc, _ := newTestNoteService()

	_, err := svc.BulkDelete(context.Background(), "user-a", []string{"missing-1", "missing-2"})
	if !errors.Is(err, ErrNoNotesMatched) {
		t.Fatalf("BulkDelete() error = %v, want ErrNoNotesMatched", err)
	}
}

func TestListTagsSortedDistinct(t *testing.T) {
	svc, _ := newTestNoteService()

	svc.Create(context.Background(), "user-1", model.CreateNoteRequest{Title: "1", Content: "c", Tags: []string{"work", "urgent"}})
	svc.Create(context.Background(), "user-1", model.CreateNoteRequest{Title: "2", Content: "c", Tags: []string{"home", "work"}})
	svc.Create(context.Background(), "user-2", model.CreateNoteRequest{Title: "3", Content: "c", Tags: []string{"other-user"}})

	tags, err := svc.ListTags(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListTags() unexpected error: %v", err)
	}
	if !reflect.DeepEqual(tags, []string{"home", "urgent", "work"}) {
		t.Errorf("ListTags() = %v, want [home urgent work]", tags)
	}
}

func TestSuggestMinimumQueryLength(t *testing.T) {
	svc, _ := newTestNoteService()

	svc.Create(context.Background(), "user-1", model.CreateNoteRequest{Title: "alpha", Content: "c"})

	for _, q := range []string{"", "a", " a "} {
		got, err := svc.Suggest(context.Background(), "user-1", q)
		if err != nil {
			t.Fatalf("Suggest(%q) unexpected error: %v", q, err)
		}
		if len(got) != 0 {
			t.Errorf("Suggest(%q) = %v, want empty below minimum length", q, got)
		}
	}

	got, err := svc.Suggest(context.Background(), "user-1", "al")
	if err != nil {
		t.Fatalf("Suggest() unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Title != "alpha" {
		t.Errorf("Suggest(al) = %v, want the alpha note", got)
	}
}

func TestListDefaultsPageAndLimit(t *testing.T) {
	svc, _ := newTestNoteService()

	resp, err := svc.List(context.Background(), "user-1", model.NoteFilter{Page: -3, Limit: 0})
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if resp.Pagination.CurrentPage != 1 {
		t.Errorf("page = %d, want clamped to 1", resp.Pagination.CurrentPage)
	}
	if resp.Pagination.TotalNotes != 0 || len(resp.Notes) != 0 {
		t.Errorf("empty store listing = %+v, want empty", resp)
	}
}
