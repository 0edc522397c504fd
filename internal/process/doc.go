// Package process reads the host process table and starts child programs.
//
// [Inspector] turns one read of the process table into a
// [session.Snapshot]. A failed or timed-out read is reported as a
// [*QueryError] together with an empty snapshot, so callers can tell
// "nobody is online" apart from "we could not look".
//
// [ExecSpawner] starts the two kinds of children the launcher needs:
//   - detached backends, in their own session with output sent to a log file
//   - the foreground frontend, attached to the caller's terminal and waited on
//
// [ChildEnv] builds a child environment that fills in defaults without
// touching the caller's own environment.
package process
