// Command outreach is the operator CLI for the outreach queue.
//
// It runs ad hoc skill workers, the prospect/enrich/send pipeline jobs, and
// queue and task maintenance against the shared SQLite store. The hidden
// "exec" subcommand is the stage executor entrypoint the orchestrator
// launches as a child process.
package main
