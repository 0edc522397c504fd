package process

import (
	"slices"
	"strings"
)

// ChildEnv returns a copy of base with each key of defaults added when
// base has no non-empty value for it. Caller-set values always win, and
// base itself is never modified. Defaults with an empty value are skipped.
func ChildEnv(base []string, defaults map[string]string) []string {
	env := slices.Clone(base)

	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		v := defaults[k]
		if v == "" || lookup(env, k) != "" {
			continue
		}
		env = slices.DeleteFunc(env, func(kv string) bool {
			return strings.HasPrefix(kv, k+"=")
		})
		env = append(env, k+"="+v)
	}
	return env
}

// lookup returns the last value of key in env, as os/exec does.
func lookup(env []string, key string) string {
	val := ""
	for _, kv := range env {
		if name, v, ok := strings.Cut(kv, "="); ok && name == key {
			val = v
		}
	}
	return val
}
