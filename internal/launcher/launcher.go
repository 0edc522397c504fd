// Package launcher attaches a frontend to a character's backend session,
// starting the backend first when the character is offline.
//
// A launch moves through these states:
//
//	Snapshot -> (online)  -----------------------------------------------------> Attach
//	         -> (offline) -> Lock -> Snapshot -> Allocate -> Start Backend -> Await Ready -> Attach
//	Attach -> Attached | Failed
//
// Attaching to a running session never waits for the allocation lock. An
// offline character takes the lock, then decides from one fresh snapshot.
// The lock is held until the new backend is visible, so cooperating
// lichlaunch processes never hand out the same port.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/Iron-Ham/lichlaunch/internal/config"
	"github.com/Iron-Ham/lichlaunch/internal/logging"
	"github.com/Iron-Ham/lichlaunch/internal/process"
	"github.com/Iron-Ham/lichlaunch/internal/session"
)

// Sentinel errors returned by Launch.
var (
	// ErrAttachExhausted is returned when every attach attempt failed.
	ErrAttachExhausted = errors.New("frontend attach attempts exhausted")

	// ErrPortsExhausted is returned when the next port would exceed 65535.
	ErrPortsExhausted = errors.New("no backend ports left")
)

// SpawnError reports a backend that could not be started. Launch logs it
// and still tries to attach.
type SpawnError struct {
	Character string
	Port      int
	Err       error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("start backend for %s on port %d: %v", e.Character, e.Port, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Inspector provides process-table snapshots.
type Inspector interface {
	Snapshot(ctx context.Context) (*session.Snapshot, error)
}

// Options configures a Launcher.
type Options struct {
	Paths config.PathsConfig
	// StateDir holds launch.lock and the backend-<character>.log files.
	StateDir string

	BasePort          int
	SettleDelay       time.Duration
	ReadyTimeout      time.Duration
	ReadyPollInterval time.Duration
	ReadyProbe        bool
	AttachAttempts    int
	AttachBackoff     time.Duration

	// Lock enables the cross-process allocation lock.
	Lock bool
	// LockTimeout bounds the wait for another launch to release the lock.
	LockTimeout time.Duration

	// EnvDefaults are added to the child environment when unset.
	EnvDefaults map[string]string
	// BaseEnv is the environment children inherit (default: os.Environ()).
	BaseEnv []string
}

// OptionsFromConfig maps the loaded configuration to launcher options.
func OptionsFromConfig(cfg *config.Config) Options {
	l := cfg.Launch
	return Options{
		Paths:             cfg.Paths,
		StateDir:          cfg.Paths.ResolveStateDir(),
		BasePort:          l.BasePort,
		SettleDelay:       l.SettleDelay(),
		ReadyTimeout:      l.ReadyTimeout(),
		ReadyPollInterval: l.ReadyPollInterval(),
		ReadyProbe:        l.ReadyProbe,
		AttachAttempts:    l.AttachAttempts,
		AttachBackoff:     l.AttachBackoff(),
		Lock:              l.Lock,
		// Another launch holds the lock at most through its readiness wait.
		LockTimeout: l.ReadyTimeout() + l.SettleDelay() + 5*time.Second,
		EnvDefaults: map[string]string{
			"TERM":    l.Term,
			"DISPLAY": l.Display,
		},
	}
}

// Outcome describes one launch. It is never persisted.
type Outcome struct {
	LaunchID  string
	Character string
	Port      int

	// StartedBackend is true when this launch started the backend.
	StartedBackend bool
	BackendPID     int
	// SpawnErr is the non-fatal backend start failure, if any.
	SpawnErr error
	// Ready is true when the new backend was seen before the readiness
	// timeout. Always false for sessions that were already online.
	Ready bool

	// Attempts counts frontend runs; Backoffs counts waits between them.
	Attempts int
	Backoffs int
}

// Launcher runs the launch state machine.
type Launcher struct {
	opts      Options
	inspector Inspector
	spawner   process.Spawner
	logger    *logging.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
	dial  func(ctx context.Context, port int) error
	newID func() string
}

// New creates a Launcher. A nil logger discards output.
func New(opts Options, inspector Inspector, spawner process.Spawner, logger *logging.Logger) *Launcher {
	if opts.BasePort == 0 {
		opts.BasePort = session.DefaultBasePort
	}
	if opts.AttachAttempts < 1 {
		opts.AttachAttempts = 1
	}
	if opts.ReadyPollInterval <= 0 {
		opts.ReadyPollInterval = 500 * time.Millisecond
	}
	if opts.BaseEnv == nil {
		opts.BaseEnv = os.Environ()
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Launcher{
		opts:      opts,
		inspector: inspector,
		spawner:   spawner,
		logger:    logger.WithComponent("launcher"),
		now:       time.Now,
		sleep:     sleepContext,
		dial:      dialPort,
		newID:     uuid.NewString,
	}
}

// Launch attaches a frontend to character's session, starting a backend
// first when the character is offline. The returned Outcome is non-nil even
// on error.
//
// A process query failure aborts the launch before anything is started.
// Cancelling ctx stops the launch between steps and between attach
// attempts; a running frontend is never killed.
func (l *Launcher) Launch(ctx context.Context, character string) (*Outcome, error) {
	out := &Outcome{LaunchID: l.newID(), Character: character}
	log := l.logger.WithLaunch(out.LaunchID).WithCharacter(character)
	log.Info("launch requested")

	if err := ctx.Err(); err != nil {
		return out, err
	}

	snap, err := l.inspector.Snapshot(ctx)
	if err != nil {
		log.Error("launch aborted: session state unknown", "error", err.Error())
		return out, err
	}

	release := func() {}
	if _, online := snap.Lookup(character); !online {
		// Allocation is serialized across launches. Another launch may have
		// started this character while we waited, so look again once locked.
		var held bool
		release, held = l.acquireLock(ctx, log)
		defer release()
		if held {
			if snap, err = l.inspector.Snapshot(ctx); err != nil {
				log.Error("launch aborted: session state unknown", "error", err.Error())
				return out, err
			}
		}
	}

	if sess, online := snap.Lookup(character); online {
		out.Port = sess.Port
		log.Info("session online", "port", sess.Port, "pid", sess.PID)
	} else {
		port := session.NextPort(snap.ActivePorts(), l.opts.BasePort)
		if port > session.MaxPort {
			log.Error("no port available", "next_port", port)
			return out, fmt.Errorf("%w: next port would be %d", ErrPortsExhausted, port)
		}
		out.Port = port
		log.Info("session offline, allocated port", "port", port, "ports_in_use", len(snap.ActivePorts()))

		startedAt := l.now()
		pid, err := l.startBackend(character, port)
		if err != nil {
			out.SpawnErr = &SpawnError{Character: character, Port: port, Err: err}
			log.Warn("backend start failed, attaching anyway", "port", port, "error", err.Error())
			if err := l.waitUntil(ctx, startedAt.Add(l.opts.SettleDelay)); err != nil {
				return out, err
			}
		} else {
			out.StartedBackend = true
			out.BackendPID = pid
			log.Info("backend started", "port", port, "pid", pid)

			ready, err := l.awaitReady(ctx, character, port, startedAt, log)
			if err != nil {
				return out, err
			}
			out.Ready = ready
		}
	}

	release()

	return out, l.attach(ctx, out, log)
}

// acquireLock takes the allocation lock and returns an idempotent release
// func and whether the lock is held. A lock that cannot be taken is logged
// and skipped.
func (l *Launcher) acquireLock(ctx context.Context, log *logging.Logger) (func(), bool) {
	if !l.opts.Lock || l.opts.StateDir == "" {
		return func() {}, false
	}
	lock, err := acquireLaunchLock(ctx, filepath.Join(l.opts.StateDir, LockFileName), l.opts.LockTimeout)
	if err != nil {
		log.Warn("continuing without launch lock", "error", err.Error())
		return func() {}, false
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			if err := lock.Unlock(); err != nil {
				log.Warn("failed to release launch lock", "error", err.Error())
			}
		})
	}, true
}

func (l *Launcher) startBackend(character string, port int) (int, error) {
	name, args := l.opts.Paths.Command(l.opts.Paths.LichBin)
	cmd := process.Command{
		Name: name,
		Args: append(args, session.BackendArgs(character, port)...),
		Env:  process.ChildEnv(l.opts.BaseEnv, l.opts.EnvDefaults),
	}
	if l.opts.StateDir != "" {
		cmd.LogPath = BackendLogPath(l.opts.StateDir, character)
	}
	return l.spawner.Start(cmd)
}

// BackendLogPath is where a detached backend's output goes.
func BackendLogPath(stateDir, character string) string {
	return filepath.Join(stateDir, "backend-"+strings.ToLower(character)+".log")
}

// FrontendArgs are the frontend flags that attach to a backend port.
func FrontendArgs(character string, port int) []string {
	return []string{"--port=" + strconv.Itoa(port), "--char=" + character}
}

// awaitReady polls until the backend for character is listed on port (and
// accepts connections when probing is on) or the readiness timeout passes.
// The first attach never happens before the settle delay has elapsed. Only
// cancellation is returned as an error; a timeout reports not ready.
func (l *Launcher) awaitReady(ctx context.Context, character string, port int, startedAt time.Time, log *logging.Logger) (bool, error) {
	deadline := startedAt.Add(l.opts.ReadyTimeout)
	polls := 0
	ready := false

	for {
		polls++
		if l.isReady(ctx, character, port) {
			ready = true
			break
		}
		if err := ctx.Err(); err != nil {
			return false, err
		}
		remaining := deadline.Sub(l.now())
		if remaining <= 0 {
			break
		}
		if err := l.sleep(ctx, min(l.opts.ReadyPollInterval, remaining)); err != nil {
			return false, err
		}
	}

	waited := l.now().Sub(startedAt)
	if ready {
		log.Info("backend ready", "port", port, "polls", polls, "waited_ms", waited.Milliseconds())
	} else {
		log.Warn("backend not ready before timeout, attaching anyway",
			"port", port, "polls", polls, "timeout_ms", l.opts.ReadyTimeout.Milliseconds())
	}

	if err := l.waitUntil(ctx, startedAt.Add(l.opts.SettleDelay)); err != nil {
		return ready, err
	}
	return ready, nil
}

func (l *Launcher) isReady(ctx context.Context, character string, port int) bool {
	snap, err := l.inspector.Snapshot(ctx)
	if err != nil {
		return false
	}
	sess, ok := snap.Lookup(character)
	if !ok || sess.Port != port {
		return false
	}
	if !l.opts.ReadyProbe {
		return true
	}
	return l.dial(ctx, port) == nil
}

func (l *Launcher) waitUntil(ctx context.Context, t time.Time) error {
	if d := t.Sub(l.now()); d > 0 {
		return l.sleep(ctx, d)
	}
	return ctx.Err()
}

// attach runs the frontend until it exits cleanly, retrying with a constant
// backoff up to the configured number of attempts.
func (l *Launcher) attach(ctx context.Context, out *Outcome, log *logging.Logger) error {
	name, args := l.opts.Paths.Command(l.opts.Paths.ProfanityBin)
	cmd := process.Command{
		Name: name,
		Args: append(args, FrontendArgs(out.Character, out.Port)...),
		Env:  process.ChildEnv(l.opts.BaseEnv, l.opts.EnvDefaults),
	}

	op := func() (struct{}, error) {
		if err := ctx.Err(); err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		out.Attempts++
		log.Info("attaching frontend", "port", out.Port, "attempt", out.Attempts)

		start := l.now()
		err := l.spawner.Run(cmd)
		if err != nil {
			log.Warn("frontend exited with error",
				"port", out.Port,
				"attempt", out.Attempts,
				"ran_ms", l.now().Sub(start).Milliseconds(),
				"error", err.Error())
		}
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(&sleepBackOff{
			ctx:   ctx,
			next:  backoff.NewConstantBackOff(l.opts.AttachBackoff),
			sleep: l.sleep,
			log:   log,
		}),
		backoff.WithMaxTries(uint(l.opts.AttachAttempts)),
		// The frontend may run for hours; only the attempt count bounds retries.
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(error, time.Duration) {
			out.Backoffs++
		}),
	)
	if err == nil {
		log.Info("frontend exited", "port", out.Port, "attempts", out.Attempts)
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Info("launch cancelled", "attempts", out.Attempts)
		return ctxErr
	}

	log.Error("frontend attach failed", "port", out.Port, "attempts", out.Attempts, "error", err.Error())
	return fmt.Errorf("%w after %d attempts: %w", ErrAttachExhausted, out.Attempts, err)
}
