// Package queue persists outreach work items and ad hoc tasks in SQLite and
// exposes helpers for driving their lifecycle.
//
// The Store is the only shared mutable resource in the system. Every
// coordination point (claiming a task, claiming an item for a stage,
// recording a stage outcome, reclaiming stale processing rows) is a
// conditional UPDATE matching the expected prior status, so multiple
// processes can share one database without in-memory locks.
//
// Status values and the transitions between them are defined once in
// models.go; Transition refuses any move the table does not list. Items are
// never deleted.
package queue
