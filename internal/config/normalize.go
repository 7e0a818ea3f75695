package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.applyEnv(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCollaborators()
	c.normalizeCache()
	c.normalizePipeline()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.ExecutorBinary = strings.TrimSpace(c.Paths.ExecutorBinary); c.Paths.ExecutorBinary != "" {
		if strings.ContainsAny(c.Paths.ExecutorBinary, `/\`) || strings.HasPrefix(c.Paths.ExecutorBinary, "~") {
			if c.Paths.ExecutorBinary, err = expandPath(c.Paths.ExecutorBinary); err != nil {
				return fmt.Errorf("paths.executor_binary: %w", err)
			}
		}
	}
	if c.Paths.TargetsFile, err = expandPath(strings.TrimSpace(c.Paths.TargetsFile)); err != nil {
		return fmt.Errorf("paths.targets_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeCollaborators() {
	for _, collab := range []*Collaborator{&c.CRM, &c.Voice, &c.BizSearch, &c.SiteScore} {
		collab.BaseURL = strings.TrimRight(strings.TrimSpace(collab.BaseURL), "/")
		collab.APIKey = strings.TrimSpace(collab.APIKey)
		if collab.TimeoutSeconds <= 0 {
			collab.TimeoutSeconds = defaultCollaboratorTimeout
		}
	}
}

func (c *Config) normalizeCache() {
	c.Cache.RedisURL = strings.TrimSpace(c.Cache.RedisURL)
	c.Cache.KeyPrefix = strings.TrimSpace(c.Cache.KeyPrefix)
	if c.Cache.TTLSeconds < 0 {
		c.Cache.TTLSeconds = 0
	}
}

func (c *Config) normalizePipeline() {
	c.Pipeline.ProspectSource = strings.TrimSpace(c.Pipeline.ProspectSource)
	if c.Pipeline.ProspectSource == "" {
		c.Pipeline.ProspectSource = defaultProspectSource
	}
	if strings.TrimSpace(c.Pipeline.OutreachSubject) == "" {
		c.Pipeline.OutreachSubject = defaultOutreachSubject
	}
	if strings.TrimSpace(c.Pipeline.OutreachBody) == "" {
		c.Pipeline.OutreachBody = defaultOutreachBody
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "auto":
		c.Logging.Format = defaultLogFormat
	case "console", "json":
	default:
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
