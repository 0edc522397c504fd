// Package session derives backend session state from process-table text.
//
// A session is a running Lich backend bound to one character and one
// detachable-client port. Sessions are never stored: every view of them is a
// [Snapshot] built from a single read of the process table, and a snapshot is
// stale the moment it is taken.
//
// Everything in this package is pure. The code that actually runs ps lives in
// internal/process.
package session

import (
	"slices"
	"strings"
)

// Session is a backend process observed in the process table.
type Session struct {
	// Character is the name as it appeared on the command line.
	Character string
	// Port is the detachable-client port the backend listens on.
	Port int
	// PID is the process ID, or 0 when the listing had no PID column.
	PID int
}

// Status is one row of the session registry: a roster character annotated
// with whether a backend was observed for it.
type Status struct {
	Name   string
	Online bool
	Port   int
}

// PortSet is the set of detachable-client ports bound by any observed backend.
type PortSet map[int]struct{}

// NewPortSet builds a PortSet from the given ports.
func NewPortSet(ports ...int) PortSet {
	s := make(PortSet, len(ports))
	for _, p := range ports {
		s.Add(p)
	}
	return s
}

// Add inserts a port into the set.
func (s PortSet) Add(port int) {
	s[port] = struct{}{}
}

// Sorted returns the ports in ascending order.
func (s PortSet) Sorted() []int {
	ports := make([]int, 0, len(s))
	for p := range s {
		ports = append(ports, p)
	}
	slices.Sort(ports)
	return ports
}

// Max returns the highest port in the set and false if the set is empty.
func (s PortSet) Max() (int, bool) {
	highest, found := 0, false
	for p := range s {
		if !found || p > highest {
			highest, found = p, true
		}
	}
	return highest, found
}

// normalize folds a character name to its matching key.
func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
