package session

// DefaultBasePort is the port handed out when no backend is running.
const DefaultBasePort = 8000

// NextPort picks the port for a new backend: base when nothing is bound,
// otherwise one past the highest bound port. Freed ports below the maximum
// are never reused. The result may exceed MaxPort; callers must check.
func NextPort(ports PortSet, base int) int {
	highest, ok := ports.Max()
	if !ok {
		return base
	}
	return highest + 1
}
