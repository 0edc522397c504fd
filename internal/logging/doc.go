// Package logging provides structured logging for lichlaunch.
//
// It wraps log/slog to write JSON lines to launcher.log in the state
// directory. The terminal belongs to the selector and then to the frontend,
// so nothing is logged to it once either is running.
//
// # Context Propagation
//
// Child loggers carry persistent attributes:
//
//	logger := base.WithComponent("launcher").WithLaunch(id).WithCharacter("Thorin")
//	logger.Info("backend started", "port", 8003, "pid", pid)
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"backend started","component":"launcher","launch_id":"...","character":"Thorin","port":8003,"pid":4242}
//
// # Rotation
//
// [NewLoggerWithRotation] rotates launcher.log by size through
// [RotatingWriter]; backups are launcher.log.1 (newest) to launcher.log.N.
//
// # Reading Logs
//
// [ReadFile] and [Filter] back the `lichlaunch logs` command:
//
//	entries, err := logging.ReadFile(path, logging.Filter{MinLevel: "WARN", Character: "thorin"}, 50)
//
// Use [NopLogger] in tests, or [NewWriterLogger] with a bytes.Buffer to
// assert on output.
package logging
