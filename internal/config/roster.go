package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Account groups the characters that log in with one set of credentials.
type Account struct {
	Name       string
	Characters []string
}

// Roster is the ordered list of accounts, in config file order.
type Roster []Account

// Characters returns every character name in roster order.
func (r Roster) Characters() []string {
	var names []string
	for _, a := range r {
		names = append(names, a.Characters...)
	}
	return names
}

// Find returns the roster spelling of name, matched case-insensitively.
func (r Roster) Find(name string) (string, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, a := range r {
		for _, c := range a.Characters {
			if strings.ToLower(c) == want {
				return c, true
			}
		}
	}
	return "", false
}

// LoadRoster reads the accounts section of the config file at path.
func LoadRoster(path string) (Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRoster(data)
}

// ParseRoster extracts the accounts mapping from a YAML document, keeping
// account and character order and spelling as written:
//
//	accounts:
//	  MAIN: [Thorin, Balin]
//	  ALT:
//	    - Gimli
//
// A missing accounts key yields an empty roster.
func ParseRoster(data []byte) (Roster, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: config must be a mapping", root.Line)
	}

	accounts := mappingValue(root, "accounts")
	if accounts == nil || accounts.Tag == "!!null" {
		return nil, nil
	}
	if accounts.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: accounts must map account names to character lists", accounts.Line)
	}

	var roster Roster
	for i := 0; i+1 < len(accounts.Content); i += 2 {
		key, val := accounts.Content[i], accounts.Content[i+1]
		acct := Account{Name: key.Value}

		switch val.Kind {
		case yaml.SequenceNode:
			for _, item := range val.Content {
				if item.Kind != yaml.ScalarNode {
					return nil, fmt.Errorf("line %d: account %q: character names must be strings", item.Line, acct.Name)
				}
				acct.Characters = append(acct.Characters, item.Value)
			}
		case yaml.ScalarNode:
			// A single character may be written without a list.
			if val.Tag != "!!null" {
				acct.Characters = append(acct.Characters, val.Value)
			}
		default:
			return nil, fmt.Errorf("line %d: account %q: expected a list of characters", val.Line, acct.Name)
		}

		roster = append(roster, acct)
	}
	return roster, nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}
