package session

import (
	"slices"
	"strings"
	"testing"
)

func TestParseSessionLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantOK   bool
		wantChar string
		wantPort int
		wantPID  int
	}{
		{
			name:     "ps line with pid",
			line:     "  4242 ruby /opt/lich/lich.rbw --login Thorin --detachable-client=8001 --without-frontend",
			wantOK:   true,
			wantChar: "Thorin",
			wantPort: 8001,
			wantPID:  4242,
		},
		{
			name:     "no pid column",
			line:     "ruby lich.rbw --login Balin --detachable-client=8000",
			wantOK:   true,
			wantChar: "Balin",
			wantPort: 8000,
		},
		{
			name:     "flags in upper case",
			line:     "ruby lich.rbw --LOGIN gimli --DETACHABLE-CLIENT=8010",
			wantOK:   true,
			wantChar: "gimli",
			wantPort: 8010,
		},
		{
			name:     "extra flags between login and port",
			line:     "ruby lich.rbw --login Dwalin --gemstone --platinum --detachable-client=9000 --without-frontend",
			wantOK:   true,
			wantChar: "Dwalin",
			wantPort: 9000,
		},
		{
			name:   "port before login is ignored",
			line:   "ruby lich.rbw --detachable-client=8000 --login Thorin",
			wantOK: false,
		},
		{
			name:   "login without port",
			line:   "ruby lich.rbw --login Thorin --without-frontend",
			wantOK: false,
		},
		{
			name:   "login value is a flag",
			line:   "ruby lich.rbw --login --detachable-client=8000",
			wantOK: false,
		},
		{
			name:   "port out of range",
			line:   "ruby lich.rbw --login Thorin --detachable-client=70000",
			wantOK: false,
		},
		{
			name:   "port not numeric",
			line:   "ruby lich.rbw --login Thorin --detachable-client=abc",
			wantOK: false,
		},
		{
			name:   "frontend process",
			line:   "1234 ruby profanity.rb --port=8000 --char=Thorin",
			wantOK: false,
		},
		{
			name:   "empty line",
			line:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseSessionLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ParseSessionLine(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Character != tt.wantChar {
				t.Errorf("Character = %q, want %q", got.Character, tt.wantChar)
			}
			if got.Port != tt.wantPort {
				t.Errorf("Port = %d, want %d", got.Port, tt.wantPort)
			}
			if got.PID != tt.wantPID {
				t.Errorf("PID = %d, want %d", got.PID, tt.wantPID)
			}
		})
	}
}

func TestParseSessionLine_RoundTripsBackendArgs(t *testing.T) {
	args := append([]string{"ruby", "/opt/lich/lich.rbw"}, BackendArgs("Thorin", 8123)...)
	line := "777 " + strings.Join(args, " ")

	got, ok := ParseSessionLine(line)
	if !ok {
		t.Fatalf("ParseSessionLine did not recognize backend command line %q", line)
	}
	if got.Character != "Thorin" || got.Port != 8123 || got.PID != 777 {
		t.Errorf("got %+v, want Thorin on 8123 pid 777", got)
	}
}

func TestParsePorts(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []int
	}{
		{"session line", "ruby lich.rbw --login Thorin --detachable-client=8001", []int{8001}},
		{"port without login", "ruby lich.rbw --detachable-client=8004 --without-frontend", []int{8004}},
		{"no port", "ruby profanity.rb --port=8000 --char=Thorin", nil},
		{"invalid port skipped", "x --detachable-client=0 --detachable-client=8002", []int{8002}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePorts(tt.line)
			if !slices.Equal(got, tt.want) {
				t.Errorf("ParsePorts(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}
