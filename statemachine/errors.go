package statemachine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when TransitionTo is given a nil target.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrIllegalState is returned when TransitionTo is called while another
	// transition is still in flight. Requests are never queued.
	ErrIllegalState = errors.New("transition already in progress")
)

// TransitionError wraps an error with transition context.
type TransitionError struct {
	Machine string
	From    string
	To      string
	Err     error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: transition %s -> %s: %v", e.Machine, e.From, e.To, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// SideError wraps the failure of one side of a transition: the outgoing
// state's exit task or the incoming state's enter task.
type SideError struct {
	Side  Side
	State string
	Err   error
}

func (e *SideError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.State, e.Side, e.Err)
}

func (e *SideError) Unwrap() error {
	return e.Err
}

// wrapSideError wraps an error with side context.
func wrapSideError(side Side, state string, err error) error {
	if err == nil {
		return nil
	}

	return &SideError{
		Side:  side,
		State: state,
		Err:   err,
	}
}
