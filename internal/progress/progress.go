// Package progress carries run status events from the engine to whoever is
// watching: the CLI, the log, or SSE clients.
package progress

import (
	"github.com/starford/tubenotes/internal/models"
)

// Kind identifies an event.
type Kind string

const (
	KindStarted  Kind = "run.started"
	KindItem     Kind = "run.item"
	KindFinished Kind = "run.finished"
)

// Event is one status update of a run. Fields not relevant to Kind are zero.
type Event struct {
	Kind     Kind   `json:"kind"`
	RunID    string `json:"run_id"`
	Playlist string `json:"playlist,omitempty"`

	// Started
	TotalKnown *int `json:"total_known,omitempty"`

	// Item
	VideoID  string         `json:"video_id,omitempty"`
	Ref      string         `json:"ref,omitempty"`
	Position int            `json:"position"`
	Outcome  models.Outcome `json:"outcome,omitempty"`
	Reason   string         `json:"reason,omitempty"`

	// Finished
	Report *models.RunReport `json:"report,omitempty"`
}

// Started reports that resolution succeeded. total is nil when unknown.
func Started(runID, playlist string, total *int) Event {
	return Event{Kind: KindStarted, RunID: runID, Playlist: playlist, TotalKnown: total}
}

// Item reports the outcome of one reference.
func Item(runID, videoID, ref string, position int, outcome models.Outcome, reason string) Event {
	return Event{Kind: KindItem, RunID: runID, VideoID: videoID, Ref: ref, Position: position, Outcome: outcome, Reason: reason}
}

// Finished reports the end of a run.
func Finished(report *models.RunReport) Event {
	return Event{Kind: KindFinished, RunID: report.RunID, Playlist: report.Playlist, Report: report}
}

// Reporter receives run events. The engine calls Emit through Async, so a
// slow reporter delays and may lose its own events but never the run.
type Reporter interface {
	Emit(Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Emit(Event) {}

// Func adapts a function to Reporter.
type Func func(Event)

func (f Func) Emit(e Event) { f(e) }

// Multi fans an event out to every reporter in order.
type Multi []Reporter

func (m Multi) Emit(e Event) {
	for _, r := range m {
		if r != nil {
			r.Emit(e)
		}
	}
}
