// Package logging builds the zap loggers shared by the daemon, the CLI, and
// the child-process executors.
//
// New constructs a logger from Options (console or JSON encoding, level,
// output sinks). WithContext decorates a logger with the work item, task,
// stage, worker, and correlation identifiers stored on a context by the
// services package so every line emitted while processing a record carries
// the same keys.
package logging
