package presenter

import (
	"fmt"
	"sync"

	"github.com/samvad-hq/mini-postman/internal/dispatcher"
)

// State is a step of one dispatch as seen by the UI.
type State string

const (
	StateIdle           State = "idle"
	StateValidating     State = "validating"
	StateDispatching    State = "dispatching"
	StatePresenting     State = "presenting"
	StateErrorDisplayed State = "error_displayed"
)

var transitions = map[State][]State{
	StateIdle:           {StateValidating},
	StateValidating:     {StateDispatching, StateErrorDisplayed},
	StateDispatching:    {StatePresenting, StateErrorDisplayed},
	StatePresenting:     {StateIdle},
	StateErrorDisplayed: {StateValidating},
}

// Machine tracks the UI state and holds the last View. Safe for concurrent use.
type Machine struct {
	mu    sync.Mutex
	state State
	last  *View
}

// NewMachine returns a machine in StateIdle.
func NewMachine() *Machine {
	return &Machine{state: StateIdle}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Last returns the most recently presented view.
func (m *Machine) Last() (View, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return View{}, false
	}
	return *m.last, true
}

// Enter moves to next if the transition is allowed.
func (m *Machine) Enter(next State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enterLocked(next)
}

func (m *Machine) enterLocked(next State) error {
	for _, allowed := range transitions[m.state] {
		if allowed == next {
			m.state = next
			return nil
		}
	}
	return fmt.Errorf("illegal transition %s -> %s", m.state, next)
}

// Observe follows the dispatcher's stage notifications.
func (m *Machine) Observe(stage dispatcher.Stage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch stage {
	case dispatcher.StageValidating:
		_ = m.enterLocked(StateValidating)
	case dispatcher.StageDispatching:
		_ = m.enterLocked(StateDispatching)
	}
}

// Finish records v as the last view. A failure stays in StateErrorDisplayed;
// a success passes through StatePresenting back to StateIdle.
func (m *Machine) Finish(v View) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := StatePresenting
	if v.Failed {
		next = StateErrorDisplayed
	}
	if err := m.enterLocked(next); err != nil {
		return err
	}
	m.last = &v
	if !v.Failed {
		m.state = StateIdle
	}
	return nil
}
