// Package config loads, normalizes, and validates outreach configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and applies OUTREACH_* environment overrides
// so the orchestrator daemon can run from the environment alone. The Config
// type centralizes every knob the daemon, the task workers, the pipeline jobs,
// and the collaborator clients need; it is constructed once at process start
// and passed down explicitly.
//
// Durations are stored as integer seconds and exposed as time.Duration through
// accessor methods.
package config
