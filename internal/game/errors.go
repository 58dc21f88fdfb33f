package game

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrInvalidAction = errors.New("invalid action")
	ErrCollaborator  = errors.New("collaborator failure")
	ErrInvariant     = errors.New("internal invariant violation")
	ErrSessionExists = errors.New("a match is already running in this channel")
	ErrNoSession     = errors.New("no match is running in this channel")
	ErrWindowClosed  = errors.New("window is closed")
)

// ConfigurationError is fatal to session creation and is returned before any player state exists.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// InvalidActionError is reported only to the player who submitted the action.
type InvalidActionError struct {
	ActorID string
	Reason  string
	Err     error
}

func (e *InvalidActionError) Error() string {
	return e.Reason
}

func (e *InvalidActionError) Is(target error) bool { return target == ErrInvalidAction }

func (e *InvalidActionError) Unwrap() error { return e.Err }

func invalidAction(actorID, format string, args ...any) error {
	return &InvalidActionError{ActorID: actorID, Reason: fmt.Sprintf(format, args...)}
}

// InvariantError aborts the session it was raised in.
type InvariantError struct {
	SessionID string
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("session %s: invariant violated: %s", e.SessionID, e.Detail)
}

func (e *InvariantError) Is(target error) bool { return target == ErrInvariant }
