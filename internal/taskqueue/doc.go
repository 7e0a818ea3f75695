// Package taskqueue runs the generic task poller: claim the oldest pending
// task, execute it through the skill dispatcher, record the outcome.
//
// Claims are conditional updates in the store, so any number of workers in
// any number of processes may poll the same database.
package taskqueue
