package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/tubenotes/internal/apperr"
	"github.com/starford/tubenotes/internal/noteservice"
	"github.com/starford/tubenotes/internal/runservice"
)

// Handler holds API route handlers.
type Handler struct {
	notes *noteservice.Service
	runs  *runservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(notes *noteservice.Service, runs *runservice.Service) *Handler {
	return &Handler{notes: notes, runs: runs}
}

// StartRun handles POST /api/runs.
//
//	@Summary		Start a sync run in the background
//	@Tags			runs
//	@Accept			json
//	@Produce		json
//	@Param			body	body		StartRunRequest	true	"Playlist reference"
//	@Success		202		{object}	RunStatus
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/runs [post]
func (h *Handler) StartRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req StartRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	req.Ref = strings.TrimSpace(req.Ref)
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if err := h.runs.Start(req.Ref, req.Force); err != nil {
		if errors.Is(err, apperr.ErrRunInProgress) {
			writeJSON(w, http.StatusConflict, errorBody("a run is already in progress"))
		} else {
			slog.Error("start run failed", slog.String("ref", req.Ref), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusAccepted, h.runs.Status())
}

// LatestRun handles GET /api/runs/latest.
//
//	@Summary		Current run state and the last report
//	@Tags			runs
//	@Produce		json
//	@Success		200	{object}	RunStatus
//	@Security		BearerAuth
//	@Router			/runs/latest [get]
func (h *Handler) LatestRun(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.runs.Status())
}

// CancelRun handles DELETE /api/runs/current.
//
//	@Summary		Cancel the active run
//	@Tags			runs
//	@Success		204	"Cancellation requested"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/runs/current [delete]
func (h *Handler) CancelRun(w http.ResponseWriter, _ *http.Request) {
	if !h.runs.Cancel() {
		writeJSON(w, http.StatusNotFound, errorBody("no run in progress"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List video notes with optional pagination
//	@Tags			notes
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.notes.ListNotes(r.Context(), limit, offset)
	if err != nil {
		slog.Error("list notes failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: total})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note by video ID
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Video ID"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	note, err := h.notes.GetNote(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get note failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, note)
}
