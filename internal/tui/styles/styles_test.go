package styles

import "testing"

func TestStatusColor(t *testing.T) {
	tests := []struct {
		state    string
		expected string // Expected color hex value
	}{
		{StateOnline, "#10B981"},
		{StateOffline, "#F9FAFB"},
		{StateUnknown, "#9CA3AF"},
		{"bogus", "#9CA3AF"}, // Should fall back to StatusUnknown
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			got := StatusColor(tt.state)
			if string(got) != tt.expected {
				t.Errorf("StatusColor(%q) = %q, want %q", tt.state, got, tt.expected)
			}
		})
	}
}

func TestStatusIcon(t *testing.T) {
	tests := []struct {
		state    string
		expected string
	}{
		{StateOnline, "●"},
		{StateOffline, "○"},
		{StateUnknown, "?"},
		{"bogus", "?"},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			got := StatusIcon(tt.state)
			if got != tt.expected {
				t.Errorf("StatusIcon(%q) = %q, want %q", tt.state, got, tt.expected)
			}
		})
	}
}
