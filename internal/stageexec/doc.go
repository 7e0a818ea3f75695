// Package stageexec supervises stage executor child processes.
//
// Each run launches "<binary> exec" in its own process group, writes one
// Request document to stdin, and reads one Result document from stdout.
// Stderr is kept as a bounded tail for crash notes. When the timeout
// expires the whole process group is killed.
package stageexec
