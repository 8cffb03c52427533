package model

import (
	"strings"
	"time"
)

// DefaultNoteColor is applied when a note is created without a color.
const DefaultNoteColor = "#ffffff"

// Note represents a user-owned note in the database. Ownership (UserID)
// is immutable after creation.
type Note struct {
	ID        string
	UserID    string
	Title     string
	Content   string
	Tags      []string
	IsPinned  bool
	Color     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateNoteRequest represents a note creation request.
type CreateNoteRequest struct {
	Title    string   `json:"title" validate:"required,min=1,max=100"`
	Content  string   `json:"content" validate:"required,min=1,max=10000"`
	Tags     []string `json:"tags" validate:"omitempty,dive,max=20"`
	Color    string   `json:"color" validate:"omitempty"`
	IsPinned bool     `json:"isPinned"`
}

// Normalize trims title and content before validation so whitespace padding
// cannot satisfy a length minimum.
func (r *CreateNoteRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Content = strings.TrimSpace(r.Content)
}

// UpdateNoteRequest represents a partial note update. Pointer fields
// distinguish "not supplied" from a zero value; only supplied fields change.
type UpdateNoteRequest struct {
	Title    *string   `json:"title" validate:"omitnil,min=1,max=100"`
	Content  *string   `json:"content" validate:"omitnil,min=1,max=10000"`
	Tags     *[]string `json:"tags" validate:"omitnil,dive,max=20"`
	Color    *string   `json:"color" validate:"omitnil"`
	IsPinned *bool     `json:"isPinned"`
}

// Normalize trims supplied title and content before validation.
func (r *UpdateNoteRequest) Normalize() {
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		r.Title = &title
	}
	if r.Content != nil {
		content := strings.TrimSpace(*r.Content)
		r.Content = &content
	}
}

// BulkDeleteRequest represents a multi-note delete request.
type BulkDeleteRequest struct {
	NoteIDs []string `json:"noteIds" validate:"required,min=1,dive,required"`
}

// NoteUpdate carries the fields a note update actually changes, for the
// persistence layer. Nil fields are left untouched.
type NoteUpdate struct {
	Title    *string
	Content  *string
	Tags     *[]string
	Color    *string
	IsPinned *bool
}

// NoteFilter narrows and pages a note listing.
type NoteFilter struct {
	Page   int
	Limit  int
	Search string
	Tag    string
}

// NoteResponse represents a note in API responses.
type NoteResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	IsPinned  bool      `json:"isPinned"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Pagination describes the page window of a note listing.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalNotes  int  `json:"totalNotes"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// NoteListResponse is a page of notes plus pagination metadata.
type NoteListResponse struct {
	Notes      []NoteResponse `json:"notes"`
	Pagination Pagination     `json:"pagination"`
}

// Suggestion is a lightweight search-suggestion projection of a note.
type Suggestion struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

// NewNoteResponse converts a Note to its API representation.
func NewNoteResponse(n *Note) NoteResponse {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	return NoteResponse{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		Tags:      tags,
		IsPinned:  n.IsPinned,
		Color:     n.Color,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

// NewNoteListResponse converts a page of notes and the total match count
// into the API listing shape. Pages are 1-indexed.
func NewNoteListResponse(notes []Note, page, limit, total int) NoteListResponse {
	resp := NoteListResponse{Notes: make([]NoteResponse, len(notes))}
	for i := range notes {
		resp.Notes[i] = NewNoteResponse(&notes[i])
	}

	totalPages := (total + limit - 1) / limit
	resp.Pagination = Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalNotes:  total,
		HasNextPage: page*limit < total,
		HasPrevPage: page > 1,
	}
	return resp
}
