package session

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionUsed is returned by a second call to Run.
	ErrSessionUsed = errors.New("session: already run")
	// ErrAborted is matched by every *AbortError.
	ErrAborted = errors.New("session: aborted")
	// ErrNoSessionToken is returned when sign-in produced an empty token.
	ErrNoSessionToken = errors.New("session: no session token")
)

// Failure is returned when a fatal error ends the session. State is the
// state the session was in when the error occurred.
type Failure struct {
	State State
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("session failed while %s: %v", f.State, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// AbortError is returned when the session was aborted. Notify holds the
// error of the abort notification sent to the coordinator, if it failed;
// the session is Aborted either way.
type AbortError struct {
	State  State
	Notify error
}

func (e *AbortError) Error() string {
	if e.Notify != nil {
		return fmt.Sprintf("session aborted while %s; coordinator was not notified: %v", e.State, e.Notify)
	}
	return fmt.Sprintf("session aborted while %s", e.State)
}

func (e *AbortError) Unwrap() []error {
	if e.Notify == nil {
		return []error{ErrAborted}
	}
	return []error{ErrAborted, e.Notify}
}
