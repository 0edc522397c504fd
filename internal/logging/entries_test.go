package logging

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

const sampleLog = `{"time":"2026-03-01T10:00:00Z","level":"INFO","msg":"launch requested","launch_id":"L1","character":"Thorin"}
{"time":"2026-03-01T10:00:01Z","level":"DEBUG","msg":"snapshot taken","component":"inspector","sessions":2}
not json at all
{"time":"2026-03-01T10:00:02Z","level":"WARN","msg":"backend not ready","launch_id":"L1","character":"Thorin","port":8003}

{"time":"2026-03-01T10:05:00Z","level":"ERROR","msg":"attach failed","launch_id":"L2","character":"Balin","error":"exit status 1"}
`

func TestParseEntry(t *testing.T) {
	e, err := ParseEntry(`{"time":"2026-03-01T10:00:02Z","level":"WARN","msg":"m","character":"Thorin","launch_id":"L1","port":8003}`)
	if err != nil {
		t.Fatalf("ParseEntry() error = %v", err)
	}
	if e.Level != "WARN" || e.Message != "m" || e.Character != "Thorin" || e.LaunchID != "L1" {
		t.Errorf("entry = %+v", e)
	}
	if !e.Time.Equal(time.Date(2026, 3, 1, 10, 0, 2, 0, time.UTC)) {
		t.Errorf("Time = %v", e.Time)
	}
	if e.Attrs["port"] != float64(8003) || len(e.Attrs) != 1 {
		t.Errorf("Attrs = %v, want only port", e.Attrs)
	}

	if _, err := ParseEntry("{broken"); err == nil {
		t.Error("ParseEntry should reject invalid JSON")
	}
}

func TestReadEntries(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		tail   int
		want   []string
	}{
		{
			name: "everything parseable",
			want: []string{"launch requested", "snapshot taken", "backend not ready", "attach failed"},
		},
		{
			name:   "minimum level",
			filter: Filter{MinLevel: "warn"},
			want:   []string{"backend not ready", "attach failed"},
		},
		{
			name:   "character ignores case",
			filter: Filter{Character: "THORIN"},
			want:   []string{"launch requested", "backend not ready"},
		},
		{
			name:   "launch id",
			filter: Filter{LaunchID: "L2"},
			want:   []string{"attach failed"},
		},
		{
			name:   "since",
			filter: Filter{Since: time.Date(2026, 3, 1, 10, 1, 0, 0, time.UTC)},
			want:   []string{"attach failed"},
		},
		{
			name:   "pattern matches attribute values",
			filter: Filter{Pattern: regexp.MustCompile(`exit status`)},
			want:   []string{"attach failed"},
		},
		{
			name: "tail keeps the last entries",
			tail: 2,
			want: []string{"backend not ready", "attach failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := ReadEntries(strings.NewReader(sampleLog), tt.filter, tt.tail)
			if err != nil {
				t.Fatalf("ReadEntries() error = %v", err)
			}
			var got []string
			for _, e := range entries {
				got = append(got, e.Message)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("messages = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadEntries_LongTail(t *testing.T) {
	var sb strings.Builder
	for i := range 100 {
		sb.WriteString(`{"level":"INFO","msg":"m` + string(rune('a'+i%26)) + `"}` + "\n")
	}
	entries, err := ReadEntries(strings.NewReader(sb.String()), Filter{}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3", len(entries))
	}
	// i = 97, 98, 99 -> 't', 'u', 'v'
	if entries[0].Message != "mt" || entries[2].Message != "mv" {
		t.Errorf("tail = %v, %v", entries[0].Message, entries[2].Message)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(sampleLog), 0o644); err != nil {
		t.Fatal(err)
	}
	entries, err := ReadFile(path, Filter{MinLevel: LevelError}, 0)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Character != "Balin" {
		t.Errorf("entries = %+v", entries)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.log"), Filter{}, 0); !os.IsNotExist(err) {
		t.Errorf("missing file error = %v, want not-exist", err)
	}
}
