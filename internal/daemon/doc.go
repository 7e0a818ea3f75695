// Package daemon wraps the stage orchestrator in a single-instance process
// lifecycle.
//
// A flock on the data directory keeps one coordinator per store. Start takes
// the lock and runs the orchestrator in the background; Stop cancels it,
// waits for in-flight calls to be recorded, and releases the lock.
package daemon
