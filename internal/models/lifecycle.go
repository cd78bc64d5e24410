package models

import (
	"errors"
	"fmt"
)

// LifecycleState is where a trashable record sits between use and permanent removal.
type LifecycleState string

const (
	LifecycleActive  LifecycleState = "active"
	LifecycleTrashed LifecycleState = "trashed"
	LifecycleDeleted LifecycleState = "deleted"
)

// LifecycleEvent moves a record between states.
type LifecycleEvent string

const (
	EventTrash   LifecycleEvent = "trash"
	EventRestore LifecycleEvent = "restore"
	EventPurge   LifecycleEvent = "purge"
)

// ErrInvalidTransition is returned for events that are not legal from the current state.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

var lifecycleTransitions = map[LifecycleState]map[LifecycleEvent]LifecycleState{
	LifecycleActive:  {EventTrash: LifecycleTrashed},
	LifecycleTrashed: {EventRestore: LifecycleActive, EventPurge: LifecycleDeleted},
}

// Next returns the state reached by applying event to s.
func (s LifecycleState) Next(event LifecycleEvent) (LifecycleState, error) {
	if s == "" {
		s = LifecycleActive
	}
	next, ok := lifecycleTransitions[s][event]
	if !ok {
		return s, fmt.Errorf("%w: cannot %s from %s", ErrInvalidTransition, event, s)
	}
	return next, nil
}

// ValidLifecycleState reports whether s is a known state.
func ValidLifecycleState(s LifecycleState) bool {
	switch s {
	case LifecycleActive, LifecycleTrashed, LifecycleDeleted:
		return true
	}
	return false
}
