package models

import "time"

// Outcome is the per-reference result of a run.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Failure is one entry of RunReport.Failed. Ref is the video ID, or the URL
// when no ID could be derived.
type Failure struct {
	Ref    string `json:"ref"`
	Reason string `json:"reason"`
}

// RunReport summarizes one pipeline run. It is not modified after the run returns.
type RunReport struct {
	RunID      string    `json:"run_id"`
	Playlist   string    `json:"playlist"`
	Processed  int       `json:"processed"`
	Skipped    int       `json:"skipped"`
	Failed     []Failure `json:"failed"`
	Partial    bool      `json:"partial"`
	Fatal      string    `json:"fatal,omitempty"`
	IndexPath  string    `json:"index_path,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// OK reports whether the run completed without a fatal error.
func (r *RunReport) OK() bool {
	return r.Fatal == ""
}
