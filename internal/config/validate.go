package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOrchestrator(); err != nil {
		return err
	}
	if err := c.validateTasks(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateCollaborators(); err != nil {
		return err
	}
	if err := c.validateBreaker(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateOrchestrator() error {
	if err := ensurePositiveMap(map[string]int{
		"orchestrator.poll_interval":        c.Orchestrator.PollInterval,
		"orchestrator.error_retry_interval": c.Orchestrator.ErrorRetryInterval,
		"orchestrator.max_concurrency":      c.Orchestrator.MaxConcurrency,
		"orchestrator.stale_timeout":        c.Orchestrator.StaleTimeout,
		"orchestrator.executor_timeout":     c.Orchestrator.ExecutorTimeout,
		"orchestrator.stderr_tail_bytes":    c.Orchestrator.StderrTailBytes,
	}); err != nil {
		return err
	}
	if c.Orchestrator.WarmupSeconds < 0 {
		return errors.New("orchestrator.warmup_seconds must not be negative")
	}
	if c.Orchestrator.StaleTimeout <= c.Orchestrator.ExecutorTimeout {
		return errors.New("orchestrator.stale_timeout must be greater than orchestrator.executor_timeout")
	}
	return nil
}

func (c *Config) validateTasks() error {
	if err := ensurePositiveMap(map[string]int{
		"tasks.poll_interval":        c.Tasks.PollInterval,
		"tasks.error_retry_interval": c.Tasks.ErrorRetryInterval,
		"tasks.workers":              c.Tasks.Workers,
		"tasks.stale_timeout":        c.Tasks.StaleTimeout,
	}); err != nil {
		return err
	}
	if c.Tasks.PollInterval > 2 {
		return errors.New("tasks.poll_interval must be at most 2 seconds")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if err := ensurePositiveMap(map[string]int{
		"pipeline.prospect_batch":     c.Pipeline.ProspectBatch,
		"pipeline.results_per_target": c.Pipeline.ResultsPerTarget,
		"pipeline.enrich_batch":       c.Pipeline.EnrichBatch,
		"pipeline.outreach_batch":     c.Pipeline.OutreachBatch,
	}); err != nil {
		return err
	}
	if c.Pipeline.CooldownDays < 0 {
		return errors.New("pipeline.cooldown_days must not be negative")
	}
	if c.Pipeline.PassingSiteScore < 0 || c.Pipeline.PassingSiteScore > 100 {
		return errors.New("pipeline.passing_site_score must be between 0 and 100")
	}
	return nil
}

func (c *Config) validateCollaborators() error {
	for name, collab := range map[string]Collaborator{
		"crm":       c.CRM,
		"voice":     c.Voice,
		"bizsearch": c.BizSearch,
		"sitescore": c.SiteScore,
	} {
		if strings.TrimSpace(collab.BaseURL) == "" {
			continue
		}
		parsed, err := url.Parse(collab.BaseURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%s.base_url must be an absolute URL, got %q", name, collab.BaseURL)
		}
	}
	return nil
}

func (c *Config) validateBreaker() error {
	return ensurePositiveMap(map[string]int{
		"breaker.consecutive_failures": c.Breaker.ConsecutiveFailures,
		"breaker.open_seconds":         c.Breaker.OpenSeconds,
		"breaker.half_open_requests":   c.Breaker.HalfOpenRequests,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
