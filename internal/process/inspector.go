package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/Iron-Ham/lichlaunch/internal/logging"
	"github.com/Iron-Ham/lichlaunch/internal/session"
)

// DefaultQueryTimeout bounds a process-table read when none is configured.
const DefaultQueryTimeout = 5 * time.Second

// Lister returns the raw process table, one process per line.
type Lister interface {
	List(ctx context.Context) ([]byte, error)
}

// PSLister lists processes with ps, printing the pid and the full,
// untruncated command line of every process.
type PSLister struct {
	// Path is the ps binary (default: "ps").
	Path string
}

// List implements Lister.
func (p PSLister) List(ctx context.Context) ([]byte, error) {
	path := p.Path
	if path == "" {
		path = "ps"
	}
	cmd := exec.CommandContext(ctx, path, "-e", "-ww", "-o", "pid=,args=")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", path, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// QueryError reports that the process table could not be read. It is
// distinct from an empty result.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("process query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Inspector reads session state from the process table. It never modifies
// any process.
type Inspector struct {
	lister  Lister
	timeout time.Duration
	logger  *logging.Logger
	now     func() time.Time
}

// NewInspector creates an Inspector. A zero timeout uses DefaultQueryTimeout
// and a nil logger discards output.
func NewInspector(lister Lister, timeout time.Duration, logger *logging.Logger) *Inspector {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Inspector{
		lister:  lister,
		timeout: timeout,
		logger:  logger.WithComponent("inspector"),
		now:     time.Now,
	}
}

// Snapshot reads the process table once. On failure it returns an empty,
// non-nil snapshot and a *QueryError; a timeout is reported with
// context.DeadlineExceeded in the chain.
func (i *Inspector) Snapshot(ctx context.Context) (*session.Snapshot, error) {
	start := i.now()

	qctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	out, err := i.lister.List(qctx)
	if err == nil && qctx.Err() != nil {
		err = qctx.Err()
	}
	if err != nil {
		if cerr := qctx.Err(); cerr != nil && !errors.Is(err, cerr) {
			err = fmt.Errorf("%w: %v", cerr, err)
		}
		i.logger.Warn("process query failed", "error", err.Error(), "timeout_ms", i.timeout.Milliseconds())
		return session.EmptySnapshot(start), &QueryError{Err: err}
	}

	snap := session.ParseSnapshot(string(out), start)

	for _, name := range snap.DuplicatedCharacters() {
		canonical, _ := snap.Lookup(name)
		var others []int
		for _, d := range snap.Duplicates(name) {
			others = append(others, d.Port)
		}
		i.logger.Warn("multiple backends for one character",
			logging.KeyCharacter, canonical.Character,
			"using_port", canonical.Port,
			"other_ports", others)
	}

	i.logger.Debug("process table read",
		"sessions", len(snap.Sessions()),
		"ports", len(snap.ActivePorts()),
		"duration_ms", i.now().Sub(start).Milliseconds())

	return snap, nil
}

// ListSessions returns the online sessions keyed by lower-cased character
// name.
func (i *Inspector) ListSessions(ctx context.Context) (map[string]session.Session, error) {
	snap, err := i.Snapshot(ctx)
	return snap.Sessions(), err
}

// ListActivePorts returns every port held by a backend, including backends
// for characters outside the roster.
func (i *Inspector) ListActivePorts(ctx context.Context) (session.PortSet, error) {
	snap, err := i.Snapshot(ctx)
	return snap.ActivePorts(), err
}
