package config

import (
	"slices"
	"testing"
)

func TestParseRoster(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    Roster
		wantErr bool
	}{
		{
			name: "order and case preserved",
			yaml: "accounts:\n  Zed: [Thorin, BALIN]\n  abe: [gimli]\n",
			want: Roster{
				{Name: "Zed", Characters: []string{"Thorin", "BALIN"}},
				{Name: "abe", Characters: []string{"gimli"}},
			},
		},
		{
			name: "block sequence",
			yaml: "accounts:\n  MAIN:\n    - Thorin\n    - Balin\n",
			want: Roster{{Name: "MAIN", Characters: []string{"Thorin", "Balin"}}},
		},
		{
			name: "single scalar character",
			yaml: "accounts:\n  MAIN: Thorin\n",
			want: Roster{{Name: "MAIN", Characters: []string{"Thorin"}}},
		},
		{
			name: "empty account",
			yaml: "accounts:\n  MAIN:\n",
			want: Roster{{Name: "MAIN"}},
		},
		{
			name: "no accounts key",
			yaml: "paths:\n  lich_bin: x\n",
			want: nil,
		},
		{
			name: "empty document",
			yaml: "",
			want: nil,
		},
		{
			name:    "accounts is a list",
			yaml:    "accounts: [Thorin]\n",
			wantErr: true,
		},
		{
			name:    "nested mapping as character",
			yaml:    "accounts:\n  MAIN:\n    - {name: Thorin}\n",
			wantErr: true,
		},
		{
			name:    "document is a scalar",
			yaml:    "just text\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRoster([]byte(tt.yaml))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRoster() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseRoster() = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i].Name != tt.want[i].Name || !slices.Equal(got[i].Characters, tt.want[i].Characters) {
					t.Errorf("account %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRoster_Characters(t *testing.T) {
	r := Roster{
		{Name: "A", Characters: []string{"Thorin", "Balin"}},
		{Name: "B", Characters: []string{"Gimli"}},
	}
	if got := r.Characters(); !slices.Equal(got, []string{"Thorin", "Balin", "Gimli"}) {
		t.Errorf("Characters() = %v", got)
	}
}

func TestRoster_Find(t *testing.T) {
	r := Roster{{Name: "A", Characters: []string{"Thorin"}}}

	if got, ok := r.Find("  THORIN "); !ok || got != "Thorin" {
		t.Errorf("Find(THORIN) = %q, %v; want Thorin, true", got, ok)
	}
	if _, ok := r.Find("Smaug"); ok {
		t.Error("Find(Smaug) should not match")
	}
}
