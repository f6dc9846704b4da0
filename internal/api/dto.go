package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/tubenotes/internal/noteservice"
	"github.com/starford/tubenotes/internal/runservice"
)

// StartRunRequest is the request body for starting a run.
type StartRunRequest struct {
	Ref   string `json:"ref" example:"https://www.youtube.com/playlist?list=PL123" validate:"required"`
	Force bool   `json:"force" example:"false"`
}

// Validate checks the request fields.
func (r StartRunRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Ref, validation.Required, validation.Length(1, 8192)),
	)
}

// RunStatus is the run state response (aliased from the run service).
type RunStatus = runservice.Status

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}
