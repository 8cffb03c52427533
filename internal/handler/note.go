package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/notely/notely-go/internal/middleware"
	"github.com/notely/notely-go/internal/model"
	"github.com/notely/notely-go/internal/service"
)

// NoteHandler handles HTTP requests for note operations.
type NoteHandler struct {
	service *service.NoteService
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(svc *service.NoteService) *NoteHandler {
	return &NoteHandler{service: svc}
}

// HandleListNotes handles GET /api/notes requests with page, limit, search
// and tag query parameters.
func (h *NoteHandler) HandleListNotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	f := model.NoteFilter{
		Page:   queryInt(r, "page", 1),
		Limit:  queryInt(r, "limit", 20),
		Search: r.URL.Query().Get("search"),
		Tag:    r.URL.Query().Get("tag"),
	}

	resp, err := h.service.List(r.Context(), userID, f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeData(w, http.StatusOK, "", resp)
}

// HandleGetNote handles GET /api/notes/{id} requests.
func (h *NoteHandler) HandleGetNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	note, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, service.ErrNoteNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeData(w, http.StatusOK, "", map[string]any{"note": note})
}

// HandleCreateNote handles POST /api/notes requests.
func (h *NoteHandler) HandleCreateNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req model.CreateNoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	note, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidColor) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeData(w, http.StatusCreated, "note created successfully", map[string]any{"note": note})
}

// HandleUpdateNote handles PUT /api/notes/{id} requests. Only supplied
// fields change; ownership is never writable.
func (h *NoteHandler) HandleUpdateNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req model.UpdateNoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	note, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoteNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidColor):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeData(w, http.StatusOK, "note updated successfully", map[string]any{"note": note})
}

// HandleDeleteNote handles DELETE /api/notes/{id} requests.
func (h *NoteHandler) HandleDeleteNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, service.ErrNoteNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeData(w, http.StatusOK, "note deleted successfully", nil)
}

// HandleBulkDelete handles DELETE /api/notes requests with a noteIds body.
func (h *NoteHandler) HandleBulkDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req model.BulkDeleteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	count, err := h.service.BulkDelete(r.Context(), userID, req.NoteIDs)
	if err != nil {
		if errors.Is(err, service.ErrNoNotesMatched) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeData(w, http.StatusOK, fmt.Sprintf("%d note(s) deleted successfully", count),
		map[string]any{"deletedCount": count})
}

// HandleTogglePin handles PATCH /api/notes/{id}/pin requests.
func (h *NoteHandler) HandleTogglePin(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	note, err := h.service.TogglePin(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, service.ErrNoteNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	msg := "note unpinned successfully"
	if note.IsPinned {
		msg = "note pinned successfully"
	}
	writeData(w, http.StatusOK, msg, map[string]any{"note": note})
}

// HandleListTags handles GET /api/notes/tags/all requests.
func (h *NoteHandler) HandleListTags(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tags, err := h.service.ListTags(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeData(w, http.StatusOK, "", map[string]any{"tags": tags})
}

// HandleSuggestions handles GET /api/notes/search/suggestions?q= requests.
func (h *NoteHandler) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	suggestions, err := h.service.Suggest(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeData(w, http.StatusOK, "", map[string]any{"suggestions": suggestions})
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
