// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     dictation
// Description: Session state machine
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package dictation

import (
	"sync"
	"time"
)

// State represents the current state of a dictation session
type State int

const (
	// StateIdle - no session active
	StateIdle State = iota

	// StateInitializing - components starting up, capture not yet running
	StateInitializing

	// StateRecording - capturing and segmenting audio
	StateRecording

	// StateDraining - capture stopped, waiting for pending transcriptions
	StateDraining

	// StateFinalizing - assembling and optionally polishing the transcript
	StateFinalizing

	// StateCompleted - transcript delivered
	StateCompleted

	// StateError - terminal failure state
	StateError
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitializing:
		return "initializing"
	case StateRecording:
		return "recording"
	case StateDraining:
		return "draining"
	case StateFinalizing:
		return "finalizing"
	case StateCompleted:
		return "completed"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// StateChangeListener is called after a successful transition
type StateChangeListener func(oldState, newState State)

// StateMachine manages validated session state transitions. StateError
// is terminal for the session; only a reset to idle leaves it.
type StateMachine struct {
	mu            sync.RWMutex
	currentState  State
	previousState State
	stateTime     time.Time
	listeners     []StateChangeListener
}

// NewStateMachine creates a state machine in the idle state
func NewStateMachine() *StateMachine {
	return &StateMachine{
		currentState: StateIdle,
		stateTime:    time.Now(),
		listeners:    make([]StateChangeListener, 0),
	}
}

// Current returns the current state
func (sm *StateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.currentState
}

// Previous returns the previous state
func (sm *StateMachine) Previous() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.previousState
}

// StateDuration returns how long the machine has been in the current state
func (sm *StateMachine) StateDuration() time.Duration {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return time.Since(sm.stateTime)
}

// Transition changes to a new state. Invalid transitions are rejected
// and return false.
func (sm *StateMachine) Transition(newState State) bool {
	sm.mu.Lock()
	oldState := sm.currentState

	if !isValidTransition(oldState, newState) {
		sm.mu.Unlock()
		return false
	}

	sm.previousState = oldState
	sm.currentState = newState
	sm.stateTime = time.Now()
	listeners := sm.listeners
	sm.mu.Unlock()

	for _, listener := range listeners {
		listener(oldState, newState)
	}

	return true
}

// AddListener adds a state change listener
func (sm *StateMachine) AddListener(listener StateChangeListener) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.listeners = append(sm.listeners, listener)
}

// isValidTransition checks if a state transition is valid. Any state
// except the terminals may fail into StateError.
func isValidTransition(from, to State) bool {
	validTransitions := map[State][]State{
		StateIdle:         {StateInitializing},
		StateInitializing: {StateRecording, StateError},
		StateRecording:    {StateDraining, StateError},
		StateDraining:     {StateFinalizing, StateError},
		StateFinalizing:   {StateCompleted, StateError},
		StateCompleted:    {StateIdle},
		StateError:        {StateIdle},
	}

	validTargets, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, valid := range validTargets {
		if valid == to {
			return true
		}
	}

	return false
}

// Reset forces the machine back to idle, e.g. to start a new session
// after completion or error.
func (sm *StateMachine) Reset() {
	sm.mu.Lock()
	oldState := sm.currentState
	sm.previousState = oldState
	sm.currentState = StateIdle
	sm.stateTime = time.Now()
	listeners := sm.listeners
	sm.mu.Unlock()

	if oldState == StateIdle {
		return
	}

	for _, listener := range listeners {
		listener(oldState, StateIdle)
	}
}

// IsActive returns true while a session is in flight
func (sm *StateMachine) IsActive() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	switch sm.currentState {
	case StateIdle, StateCompleted, StateError:
		return false
	default:
		return true
	}
}
