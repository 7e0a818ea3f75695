package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables recognized by Load.
const (
	EnvConfig          = "OUTREACH_CONFIG"
	EnvDataDir         = "OUTREACH_DATA_DIR"
	EnvExecutorBinary  = "OUTREACH_EXECUTOR_BINARY"
	EnvMaxConcurrency  = "OUTREACH_MAX_CONCURRENCY"
	EnvWarmup          = "OUTREACH_WARMUP"
	EnvPollInterval    = "OUTREACH_POLL_INTERVAL"
	EnvStaleTimeout    = "OUTREACH_STALE_TIMEOUT"
	EnvExecutorTimeout = "OUTREACH_EXECUTOR_TIMEOUT"
	EnvCRMBaseURL      = "OUTREACH_CRM_BASE_URL"
	EnvCRMAPIKey       = "OUTREACH_CRM_API_KEY"
	EnvVoiceBaseURL    = "OUTREACH_VOICE_BASE_URL"
	EnvVoiceAPIKey     = "OUTREACH_VOICE_API_KEY"
	EnvBizSearchURL    = "OUTREACH_BIZSEARCH_BASE_URL"
	EnvBizSearchAPIKey = "OUTREACH_BIZSEARCH_API_KEY"
	EnvSiteScoreURL    = "OUTREACH_SITESCORE_BASE_URL"
	EnvSiteScoreAPIKey = "OUTREACH_SITESCORE_API_KEY"
	EnvRedisURL        = "OUTREACH_REDIS_URL"
	EnvLogLevel        = "OUTREACH_LOG_LEVEL"
	EnvLogFormat       = "OUTREACH_LOG_FORMAT"
)

// applyEnv overrides file values with any OUTREACH_* variables that are set.
func (c *Config) applyEnv() error {
	overrideString(&c.Paths.DataDir, EnvDataDir)
	overrideString(&c.Paths.ExecutorBinary, EnvExecutorBinary)
	overrideString(&c.CRM.BaseURL, EnvCRMBaseURL)
	overrideString(&c.CRM.APIKey, EnvCRMAPIKey)
	overrideString(&c.Voice.BaseURL, EnvVoiceBaseURL)
	overrideString(&c.Voice.APIKey, EnvVoiceAPIKey)
	overrideString(&c.BizSearch.BaseURL, EnvBizSearchURL)
	overrideString(&c.BizSearch.APIKey, EnvBizSearchAPIKey)
	overrideString(&c.SiteScore.BaseURL, EnvSiteScoreURL)
	overrideString(&c.SiteScore.APIKey, EnvSiteScoreAPIKey)
	overrideString(&c.Cache.RedisURL, EnvRedisURL)
	overrideString(&c.Logging.Level, EnvLogLevel)
	overrideString(&c.Logging.Format, EnvLogFormat)

	if err := overrideInt(&c.Orchestrator.MaxConcurrency, EnvMaxConcurrency); err != nil {
		return err
	}
	for key, target := range map[string]*int{
		EnvWarmup:          &c.Orchestrator.WarmupSeconds,
		EnvPollInterval:    &c.Orchestrator.PollInterval,
		EnvStaleTimeout:    &c.Orchestrator.StaleTimeout,
		EnvExecutorTimeout: &c.Orchestrator.ExecutorTimeout,
	} {
		if err := overrideSeconds(target, key); err != nil {
			return err
		}
	}
	return nil
}

func overrideString(target *string, key string) {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideInt(target *int, key string) error {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, value)
	}
	*target = parsed
	return nil
}

// overrideSeconds accepts either plain seconds ("300") or a Go duration
// ("5m").
func overrideSeconds(target *int, key string) error {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if parsed, err := strconv.Atoi(value); err == nil {
		*target = parsed
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q", key, value)
	}
	*target = int(d / time.Second)
	return nil
}
