// Package apperr defines the error taxonomy shared by the pipeline components.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrRunInProgress = errors.New("run already in progress")
)

// ResolutionKind distinguishes playlist resolution failures.
type ResolutionKind string

const (
	ResolutionMalformed    ResolutionKind = "malformed"
	ResolutionNetwork      ResolutionKind = "network"
	ResolutionNotFound     ResolutionKind = "not_found"
	ResolutionAccessDenied ResolutionKind = "access_denied"
)

// ResolutionError means the playlist reference is invalid or unreachable.
// It is fatal for a run.
type ResolutionError struct {
	Kind ResolutionKind
	Ref  string
	Err  error
}

func (e *ResolutionError) Error() string {
	msg := "resolve " + string(e.Kind) + ": " + e.Ref
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ProviderKind distinguishes metadata provider failures.
type ProviderKind string

const (
	ProviderNetwork       ProviderKind = "network"
	ProviderTimeout       ProviderKind = "timeout"
	ProviderRateLimited   ProviderKind = "rate_limited"
	ProviderPrivate       ProviderKind = "private"
	ProviderDeleted       ProviderKind = "deleted"
	ProviderRegionBlocked ProviderKind = "region_blocked"
	ProviderInvalid       ProviderKind = "invalid"
	ProviderQuotaExceeded ProviderKind = "quota_exceeded"
	ProviderAccessDenied  ProviderKind = "access_denied"
)

// ProviderError is a failed metadata fetch for one video.
type ProviderError struct {
	Kind ProviderKind
	URL  string
	Err  error
}

func (e *ProviderError) Error() string {
	msg := "provider " + string(e.Kind) + ": " + e.URL
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Transient reports whether retrying the fetch can succeed.
func (e *ProviderError) Transient() bool {
	switch e.Kind {
	case ProviderNetwork, ProviderTimeout, ProviderRateLimited:
		return true
	default:
		return false
	}
}

// StoreError is a filesystem or ledger failure inside the note store.
type StoreError struct {
	Op   string
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	msg := "store " + e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	return msg + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsTransient reports whether err wraps a transient ProviderError.
func IsTransient(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Transient()
	}
	return false
}
