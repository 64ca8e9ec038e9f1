package domain

import "fmt"

// Machine is a transition table for one status enum. Every status change in
// the services goes through Check, so an illegal move is rejected in one place.
type Machine[S ~string] struct {
	label    string
	initial  S
	allowed  map[S][]S
	terminal map[S]struct{}
}

func NewMachine[S ~string](label string, initial S, allowed map[S][]S, terminal ...S) *Machine[S] {
	m := &Machine[S]{
		label:    label,
		initial:  initial,
		allowed:  allowed,
		terminal: make(map[S]struct{}, len(terminal)),
	}
	for _, t := range terminal {
		m.terminal[t] = struct{}{}
	}
	return m
}

func (m *Machine[S]) Initial() S { return m.initial }

func (m *Machine[S]) IsTerminal(s S) bool {
	_, ok := m.terminal[s]
	return ok
}

func (m *Machine[S]) IsKnown(s S) bool {
	if s == m.initial || m.IsTerminal(s) {
		return true
	}
	if _, ok := m.allowed[s]; ok {
		return true
	}
	for _, targets := range m.allowed {
		for _, t := range targets {
			if t == s {
				return true
			}
		}
	}
	return false
}

func (m *Machine[S]) CanTransition(from, to S) bool {
	if m.IsTerminal(from) {
		return false
	}
	for _, t := range m.allowed[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Next returns the statuses reachable from s in one step.
func (m *Machine[S]) Next(s S) []S {
	if m.IsTerminal(s) {
		return nil
	}
	out := make([]S, len(m.allowed[s]))
	copy(out, m.allowed[s])
	return out
}

// Check returns ErrValidation for an unknown target and ErrInvalidTransition
// for a move the table does not allow.
func (m *Machine[S]) Check(from, to S) error {
	if !m.IsKnown(to) {
		return fmt.Errorf("%w: unknown %s status %q", ErrValidation, m.label, to)
	}
	if !m.CanTransition(from, to) {
		return fmt.Errorf("%w: %s cannot move from %s to %s", ErrInvalidTransition, m.label, from, to)
	}
	return nil
}
