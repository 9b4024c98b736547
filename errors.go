package main

import "fmt"

// FetchError reports a transport failure while reading a session record.
// Callers fall back to zero-valued defaults only when the record is absent,
// not when the read itself failed.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return "session fetch failed: " + e.Err.Error() }
func (e *FetchError) Unwrap() error { return e.Err }

// SyncError reports a session write that failed after retry exhaustion.
// The optimistic cache has already been rolled back when it is surfaced.
type SyncError struct {
	UserID string
	Err    error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("session sync failed for user %s: %v", e.UserID, e.Err)
}
func (e *SyncError) Unwrap() error { return e.Err }

// GenerationError reports that the upstream question generator was
// unreachable or returned unusable content on every attempt.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("question generation failed (%s): %v", e.Provider, e.Err)
}
func (e *GenerationError) Unwrap() error { return e.Err }

// GenerationExhaustedError reports that the attempt budget ran out without
// producing a question that cleared both duplicate checks.
type GenerationExhaustedError struct {
	Attempts int
}

func (e *GenerationExhaustedError) Error() string {
	return fmt.Sprintf("no unique question after %d attempts", e.Attempts)
}

// DuplicateCheckError reports a failed existence query. The dedup loop
// treats it as "assume duplicate" rather than serving possibly-known content.
type DuplicateCheckError struct {
	Err error
}

func (e *DuplicateCheckError) Error() string { return "duplicate check failed: " + e.Err.Error() }
func (e *DuplicateCheckError) Unwrap() error { return e.Err }
