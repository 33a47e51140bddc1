package bridge

import (
	"errors"
	"fmt"

	"sketchdesk/internal/models"
)

var (
	// ErrNotLoaded is returned when an operation needs the fetched record.
	ErrNotLoaded = errors.New("app state not loaded")
	// ErrClosed is returned by Fetch after Close.
	ErrClosed = errors.New("state bridge closed")

	errSuperseded = errors.New("write superseded")
)

// WriteError reports a write that failed for good, after any retries.
type WriteError struct {
	Seq   uint64
	State models.ViewState
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("persist app state (write #%d): %v", e.Seq, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
