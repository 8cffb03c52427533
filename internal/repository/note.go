package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notely/notely-go/internal/model"
)

var ErrNoteNotFound = errors.New("note not found")

const noteColumns = `id, user_id, title, content, is_pinned, color, created_at, updated_at`

// NoteRepository handles note persistence operations. Every query is scoped
// by user_id; a note owned by someone else is indistinguishable from a
// missing one.
type NoteRepository struct {
	db *sql.DB
}

// NewNoteRepository creates a new NoteRepository.
func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// Create inserts a new note and its tags, assigning it a fresh ID.
// Tags are expected pre-normalized (deduplicated, no blanks).
func (r *NoteRepository) Create(ctx context.Context, note *model.Note) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO notes (id, user_id, title, content, is_pinned, color) VALUES (?, ?, ?, ?, ?, ?)`,
		note.ID, note.UserID, note.Title, note.Content, note.IsPinned, note.Color,
	)
	if err != nil {
		return err
	}

	if err := replaceTagsTx(ctx, tx, note.ID, note.Tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	note.CreatedAt = time.Now().UTC()
	note.UpdatedAt = note.CreatedAt
	return nil
}

// GetByID retrieves a note by ID, scoped to its owner.
func (r *NoteRepository) GetByID(ctx context.Context, userID, noteID string) (*model.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = ? AND user_id = ?`

	note := &model.Note{}
	err := r.db.QueryRowContext(ctx, query, noteID, userID).Scan(
		&note.ID, &note.UserID, &note.Title, &note.Content,
		&note.IsPinned, &note.Color, &note.CreatedAt, &note.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}

	tags, err := r.tagsFor(ctx, []string{note.ID})
	if err != nil {
		return nil, err
	}
	note.Tags = tags[note.ID]
	return note, nil
}

// List returns one page of a user's notes plus the total match count.
// Sorted pinned-first then by recency; a search term switches to
// relevance-ranked fulltext matching over title, content and tags.
func (r *NoteRepository) List(ctx context.Context, userID string, f model.NoteFilter) ([]model.Note, int, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}
	order := "is_pinned DESC, updated_at DESC"
	selectCols := noteColumns

	if f.Search != "" {
		where = append(where,
			`(MATCH(title, content) AGAINST (? IN NATURAL LANGUAGE MODE)
			  OR EXISTS (SELECT 1 FROM note_tags nt WHERE nt.note_id = notes.id AND nt.tag = ?))`)
		args = append(args, f.Search, f.Search)
		selectCols += `, MATCH(title, content) AGAINST (? IN NATURAL LANGUAGE MODE) AS relevance`
		order = "is_pinned DESC, relevance DESC, updated_at DESC"
	}
	if f.Tag != "" {
		where = append(where,
			`EXISTS (SELECT 1 FROM note_tags nt WHERE nt.note_id = notes.id AND nt.tag = ?)`)
		args = append(args, f.Tag)
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM notes WHERE ` + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listArgs := args
	if f.Search != "" {
		// The relevance select column consumes the first placeholder in the
		// statement text, ahead of the WHERE bindings.
		listArgs = append([]any{f.Search}, args...)
	}
	listArgs = append(listArgs, f.Limit, (f.Page-1)*f.Limit)

	query := fmt.Sprintf(`SELECT %s FROM notes WHERE %s ORDER BY %s LIMIT ? OFFSET ?`,
		selectCols, whereClause, order)

	rows, err := r.db.QueryContext(ctx, query, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var notes []model.Note
	var ids []string
	for rows.Next() {
		var n model.Note
		dest := []any{
			&n.ID, &n.UserID, &n.Title, &n.Content,
			&n.IsPinned, &n.Color, &n.CreatedAt, &n.UpdatedAt,
		}
		if f.Search != "" {
			var relevance float64
			dest = append(dest, &relevance)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, err
		}
		notes = append(notes, n)
		ids = append(ids, n.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	tags, err := r.tagsFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range notes {
		notes[i].Tags = tags[notes[i].ID]
	}

	return notes, total, nil
}

// Update applies the supplied fields to an owned note. Ownership cannot be
// changed through this path; user_id never appears in the SET clause.
func (r *NoteRepository) Update(ctx context.Context, userID, noteID string, upd model.NoteUpdate) error {
	set := []string{}
	args := []any{}

	if upd.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Content != nil {
		set = append(set, "content = ?")
		args = append(args, *upd.Content)
	}
	if upd.Color != nil {
		set = append(set, "color = ?")
		args = append(args, *upd.Color)
	}
	if upd.IsPinned != nil {
		set = append(set, "is_pinned = ?")
		args = append(args, *upd.IsPinned)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// The ownership check and the updated_at bump happen even when only
	// tags change.
	set = append(set, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, noteID, userID)

	result, err := tx.ExecContext(ctx,
		`UPDATE notes SET `+strings.Join(set, ", ")+` WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoteNotFound
	}

	if upd.Tags != nil {
		if err := replaceTagsTx(ctx, tx, noteID, *upd.Tags); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SetPinned sets the pin flag on an owned note.
func (r *NoteRepository) SetPinned(ctx context.Context, userID, noteID string, pinned bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notes SET is_pinned = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
		pinned, noteID, userID,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// Delete removes an owned note.
func (r *NoteRepository) Delete(ctx context.Context, userID, noteID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notes WHERE id = ? AND user_id = ?`, noteID, userID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// DeleteMany removes the owned subset of the given notes and reports how
// many were deleted. Foreign notes are silently skipped.
func (r *NoteRepository) DeleteMany(ctx context.Context, userID string, noteIDs []string) (int, error) {
	if len(noteIDs) == 0 {
		return 0, nil
	}

	placeholders := strings.Repeat("?, ", len(noteIDs)-1) + "?"
	args := make([]any, 0, len(noteIDs)+1)
	args = append(args, userID)
	for _, id := range noteIDs {
		args = append(args, id)
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notes WHERE user_id = ? AND id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// ListTags returns the user's distinct non-blank tags in ascending order.
func (r *NoteRepository) ListTags(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT DISTINCT nt.tag FROM note_tags nt
		JOIN notes n ON n.id = nt.note_id
		WHERE n.user_id = ? AND nt.tag <> ''
		ORDER BY nt.tag ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// Suggest returns up to limit notes whose title, content or tags contain the
// query as a case-insensitive substring, most recently updated first.
func (r *NoteRepository) Suggest(ctx context.Context, userID, query string, limit int) ([]model.Suggestion, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"

	sqlQuery := `SELECT id, title FROM notes
		WHERE user_id = ?
		  AND (LOWER(title) LIKE ? OR LOWER(content) LIKE ?
		       OR EXISTS (SELECT 1 FROM note_tags nt WHERE nt.note_id = notes.id AND LOWER(nt.tag) LIKE ?))
		ORDER BY updated_at DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, sqlQuery, userID, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suggestions []model.Suggestion
	var ids []string
	for rows.Next() {
		var s model.Suggestion
		if err := rows.Scan(&s.ID, &s.Title); err != nil {
			return nil, err
		}
		suggestions = append(suggestions, s)
		ids = append(ids, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tags, err := r.tagsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range suggestions {
		suggestions[i].Tags = tags[suggestions[i].ID]
		if suggestions[i].Tags == nil {
			suggestions[i].Tags = []string{}
		}
	}

	return suggestions, nil
}

// tagsFor loads tags for a set of notes in one query, keyed by note ID.
func (r *NoteRepository) tagsFor(ctx context.Context, noteIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(noteIDs))
	if len(noteIDs) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?, ", len(noteIDs)-1) + "?"
	args := make([]any, len(noteIDs))
	for i, id := range noteIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT note_id, tag FROM note_tags WHERE note_id IN (`+placeholders+`) ORDER BY tag ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var noteID, tag string
		if err := rows.Scan(&noteID, &tag); err != nil {
			return nil, err
		}
		result[noteID] = append(result[noteID], tag)
	}
	return result, rows.Err()
}

// replaceTagsTx swaps a note's tag set wholesale inside a transaction.
func replaceTagsTx(ctx context.Context, tx *sql.Tx, noteID string, tags []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM note_tags WHERE note_id = ?`, noteID); err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}

	values := strings.Repeat("(?, ?), ", len(tags)-1) + "(?, ?)"
	args := make([]any, 0, len(tags)*2)
	for _, tag := range tags {
		args = append(args, noteID, tag)
	}

	_, err := tx.ExecContext(ctx, `INSERT INTO note_tags (note_id, tag) VALUES `+values, args...)
	return err
}

// escapeLike escapes LIKE wildcards in user-supplied search input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
