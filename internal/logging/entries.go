package logging

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"
)

// Entry is one parsed line of launcher.log.
type Entry struct {
	Time      time.Time
	Level     string
	Message   string
	Character string
	LaunchID  string
	// Attrs holds every other key of the JSON object.
	Attrs map[string]any
}

// ParseEntry decodes one JSON log line.
func ParseEntry(line string) (Entry, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, fmt.Errorf("invalid JSON: %w", err)
	}

	var e Entry
	if s, ok := raw["time"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			e.Time = t
		}
	}
	e.Level, _ = raw["level"].(string)
	e.Message, _ = raw["msg"].(string)
	e.Character, _ = raw[KeyCharacter].(string)
	e.LaunchID, _ = raw[KeyLaunchID].(string)

	for _, k := range []string{"time", "level", "msg", KeyCharacter, KeyLaunchID} {
		delete(raw, k)
	}
	if len(raw) > 0 {
		e.Attrs = raw
	}
	return e, nil
}

// Filter selects log entries. Zero fields match everything; set fields are
// combined with AND.
type Filter struct {
	// MinLevel keeps entries at or above this level.
	MinLevel string
	// Since drops entries older than this time.
	Since time.Time
	// Pattern must match the message or one of the attribute values.
	Pattern *regexp.Regexp
	// Character keeps entries about this character, case-insensitively.
	Character string
	// LaunchID keeps entries of one launch.
	LaunchID string
}

// Match reports whether e passes every criterion of f.
func (f Filter) Match(e Entry) bool {
	if f.MinLevel != "" && LevelPriority(e.Level) < LevelPriority(f.MinLevel) {
		return false
	}
	if !f.Since.IsZero() && e.Time.Before(f.Since) {
		return false
	}
	if f.Character != "" && !strings.EqualFold(e.Character, f.Character) {
		return false
	}
	if f.LaunchID != "" && e.LaunchID != f.LaunchID {
		return false
	}
	if f.Pattern != nil {
		text := e.Message
		for _, v := range e.Attrs {
			text += " " + fmt.Sprint(v)
		}
		if !f.Pattern.MatchString(text) {
			return false
		}
	}
	return true
}

// ReadEntries parses r line by line and returns the matching entries, or
// only the last tail of them when tail > 0. Lines that are not JSON are
// skipped.
func ReadEntries(r io.Reader, f Filter, tail int) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var entries []Entry
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		e, err := ParseEntry(line)
		if err != nil {
			continue
		}
		if !f.Match(e) {
			continue
		}
		entries = append(entries, e)
		if tail > 0 && len(entries) > 2*tail {
			entries = append(entries[:0], entries[len(entries)-tail:]...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading log file: %w", err)
	}

	if tail > 0 && len(entries) > tail {
		entries = entries[len(entries)-tail:]
	}
	return entries, nil
}

// ReadFile is ReadEntries over the log file at path.
func ReadFile(path string, f Filter, tail int) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()
	return ReadEntries(file, f, tail)
}
