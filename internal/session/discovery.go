package session

import (
	"slices"
	"strings"
	"time"
)

// Snapshot is the session view derived from one read of the process table.
// It is immutable once built; a decision that needs session state should
// take one snapshot and carry it through instead of re-reading mid-way.
type Snapshot struct {
	// TakenAt is when the underlying process listing was read.
	TakenAt time.Time

	sessions   map[string]Session
	duplicates map[string][]Session
	ports      PortSet
}

// EmptySnapshot returns a snapshot with no sessions and no ports.
func EmptySnapshot(takenAt time.Time) *Snapshot {
	return &Snapshot{
		TakenAt:    takenAt,
		sessions:   make(map[string]Session),
		duplicates: make(map[string][]Session),
		ports:      make(PortSet),
	}
}

// ParseSnapshot builds a snapshot from process-table text, one process per
// line.
//
// When several lines match the same character, the session on the highest
// port wins: under the max+1 allocation policy it is the most recent
// backend. The others are reported by Duplicates. Lines have no length
// limit, so one huge command line cannot hide the processes after it.
func ParseSnapshot(text string, takenAt time.Time) *Snapshot {
	snap := EmptySnapshot(takenAt)

	for line := range strings.Lines(text) {
		for _, p := range ParsePorts(line) {
			snap.ports.Add(p)
		}
		s, ok := ParseSessionLine(line)
		if !ok {
			continue
		}
		snap.add(s)
	}
	return snap
}

func (s *Snapshot) add(sess Session) {
	key := normalize(sess.Character)
	current, exists := s.sessions[key]
	if !exists {
		s.sessions[key] = sess
		return
	}
	// A wrapper and its child (sh -c, env, ...) list the same backend twice.
	if sess.Port == current.Port {
		return
	}
	if sess.Port > current.Port {
		s.sessions[key] = sess
		s.duplicates[key] = append(s.duplicates[key], current)
		return
	}
	s.duplicates[key] = append(s.duplicates[key], sess)
}

// Lookup returns the canonical session for a character, matched
// case-insensitively.
func (s *Snapshot) Lookup(character string) (Session, bool) {
	sess, ok := s.sessions[normalize(character)]
	return sess, ok
}

// Sessions returns the canonical sessions keyed by lower-cased character name.
func (s *Snapshot) Sessions() map[string]Session {
	out := make(map[string]Session, len(s.sessions))
	for k, v := range s.sessions {
		out[k] = v
	}
	return out
}

// Duplicates returns the non-canonical sessions for a character.
func (s *Snapshot) Duplicates(character string) []Session {
	return append([]Session(nil), s.duplicates[normalize(character)]...)
}

// DuplicatedCharacters returns the lower-cased names that matched more than
// one process.
func (s *Snapshot) DuplicatedCharacters() []string {
	names := make([]string, 0, len(s.duplicates))
	for k := range s.duplicates {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// ActivePorts returns a copy of every bound port seen in the listing,
// including ports of characters outside any roster.
func (s *Snapshot) ActivePorts() PortSet {
	out := make(PortSet, len(s.ports))
	for p := range s.ports {
		out.Add(p)
	}
	return out
}

// Status returns the registry row for one character.
func (s *Snapshot) Status(character string) Status {
	sess, ok := s.Lookup(character)
	if !ok {
		return Status{Name: character}
	}
	return Status{Name: character, Online: true, Port: sess.Port}
}

// Statuses annotates each name with its online state. Absent characters map
// to {Online: false, Port: 0}.
func (s *Snapshot) Statuses(names []string) map[string]Status {
	out := make(map[string]Status, len(names))
	for _, n := range names {
		out[n] = s.Status(n)
	}
	return out
}
