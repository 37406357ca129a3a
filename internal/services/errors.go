package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInputRejected means the submitted text was empty after trimming.
	// It is recovered silently: the message sequence is left untouched.
	ErrInputRejected = errors.New("input rejected: empty message")

	// ErrAgentBusy means the session already has an agent request in flight.
	ErrAgentBusy = errors.New("agent busy: a request is already in flight for this session")

	// ErrSessionNotFound means the session id is unknown.
	ErrSessionNotFound = errors.New("session not found")

	// ErrAgentUnavailable wraps failures of the external agent call
	// (network, timeout, upstream API). The session history survives it.
	ErrAgentUnavailable = errors.New("agent unavailable")
)

// MalformedReplyError carries the raw LLM output when it cannot be parsed
// into the structure the agent asked for. The chat loop degrades to showing
// Raw with a warning marker instead of dropping the reply.
type MalformedReplyError struct {
	Raw string
	Err error
}

func (e *MalformedReplyError) Error() string {
	return fmt.Sprintf("malformed agent reply: %v", e.Err)
}

func (e *MalformedReplyError) Unwrap() error { return e.Err }
