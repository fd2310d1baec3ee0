package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCommandFound means the reply held nothing that looks like a command.
	ErrNoCommandFound = errors.New("no command found in response")
	// ErrCommandBlocked means the classifier withheld the command from execution.
	ErrCommandBlocked = errors.New("command blocked as dangerous")

	ErrDownloadFailed             = errors.New("model download failed")
	ErrLoadFailed                 = errors.New("model load failed")
	ErrAlreadyInErrorState        = errors.New("local engine is in error state")
	ErrDownloadFailedWhileWaiting = errors.New("model download failed while waiting")
)

// NoCommandFoundError carries the raw reply so the caller can show it to the user.
type NoCommandFoundError struct {
	Raw string
}

func (e *NoCommandFoundError) Error() string {
	return ErrNoCommandFound.Error()
}

func (e *NoCommandFoundError) Is(target error) bool {
	return target == ErrNoCommandFound
}

// TransportError wraps a backend failure: unreachable, auth rejected or malformed reply.
type TransportError struct {
	Provider string
	Cause    error
}

func (e *TransportError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: transport error", e.Provider)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// EngineError reports a local engine failure. Kind is one of the Err* engine sentinels.
type EngineError struct {
	Kind  error
	Cause error
}

func (e *EngineError) Error() string {
	if e.Cause == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Cause)
}

func (e *EngineError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}
