package session

import (
	"strconv"
	"strings"
)

// Flag vocabulary shared by the backend command line and the session grammar.
// Whatever BackendArgs produces, ParseSessionLine must recognize.
const (
	LoginFlag    = "--login"
	ClientFlag   = "--detachable-client"
	HeadlessFlag = "--without-frontend"
)

// MaxPort is the highest valid TCP port.
const MaxPort = 65535

// BackendArgs returns the backend arguments that bind character to port
// without starting a frontend of its own.
func BackendArgs(character string, port int) []string {
	return []string{
		LoginFlag, character,
		ClientFlag + "=" + strconv.Itoa(port),
		HeadlessFlag,
	}
}

// ParseSessionLine extracts a session from one process-table line.
//
// The grammar, over whitespace-separated tokens, is:
//
//	[pid] ... --login <character> ... --detachable-client=<port> ...
//
// Flags match case-insensitively, the character token may not itself look
// like a flag, and port must be in 1..65535. Only the first --login on the
// line is considered.
func ParseSessionLine(line string) (Session, bool) {
	fields := strings.Fields(line)
	pid, fields := splitPID(fields)

	for i := 0; i < len(fields)-1; i++ {
		if !strings.EqualFold(fields[i], LoginFlag) {
			continue
		}
		name := fields[i+1]
		if strings.HasPrefix(name, "-") {
			return Session{}, false
		}
		for _, tok := range fields[i+2:] {
			if port, ok := clientPort(tok); ok {
				return Session{Character: name, Port: port, PID: pid}, true
			}
		}
		return Session{}, false
	}
	return Session{}, false
}

// ParsePorts returns every detachable-client port on the line, whether or
// not the line also carries a --login flag.
func ParsePorts(line string) []int {
	var ports []int
	for _, tok := range strings.Fields(line) {
		if port, ok := clientPort(tok); ok {
			ports = append(ports, port)
		}
	}
	return ports
}

// clientPort parses a --detachable-client=<port> token.
func clientPort(tok string) (int, bool) {
	prefix := ClientFlag + "="
	if len(tok) <= len(prefix) || !strings.EqualFold(tok[:len(prefix)], prefix) {
		return 0, false
	}
	digits := tok[len(prefix):]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	port, err := strconv.Atoi(digits)
	if err != nil || port < 1 || port > MaxPort {
		return 0, false
	}
	return port, true
}

// splitPID peels a leading numeric PID column off a ps line.
func splitPID(fields []string) (int, []string) {
	if len(fields) < 2 {
		return 0, fields
	}
	pid, err := strconv.Atoi(fields[0])
	if err != nil || pid <= 0 {
		return 0, fields
	}
	return pid, fields[1:]
}
