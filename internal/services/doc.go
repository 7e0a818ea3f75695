// Package services defines shared utilities consumed by the orchestrator,
// the task worker, the pipeline jobs and the external collaborator clients.
//
// Key responsibilities:
//   - Context helpers that stamp work item IDs, task IDs, stage names, worker
//     IDs, and correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified (transient store trouble vs permanent validation or
//     collaborator errors) without string matching.
//
// Collaborator clients live in sub-packages (crm, voice, bizsearch,
// sitescore) and share the circuit-breaker guarded JSON client in httpclient.
package services
