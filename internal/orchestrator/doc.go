// Package orchestrator runs the stage coordinator: a single polling loop
// that moves work items through the email, warm-up, and call stages.
//
// Every move is a conditional transition in the store, so a second
// coordinator against the same database can never double-dispatch an item.
// Email runs synchronously inside the tick. Calls run concurrently up to
// the configured cap and are tracked in an in-memory active set that the
// tick polls; only the coordinator writes their outcome.
package orchestrator
