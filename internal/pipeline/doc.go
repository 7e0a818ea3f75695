// Package pipeline holds the three batch jobs that feed the orchestrator:
// prospecting inserts new items, enrichment classifies them, and outreach
// sends the first message. Each job only moves items out of its source
// status, so re-running it without upstream changes does nothing.
package pipeline
