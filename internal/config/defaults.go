package config

const (
	defaultDataDir                  = "~/.local/share/outreach"
	defaultLogFormat                = "auto"
	defaultLogLevel                 = "info"
	defaultOrchestratorPoll         = 1
	defaultOrchestratorErrorRetry   = 5
	defaultWarmupSeconds            = 3600
	defaultMaxConcurrency           = 3
	defaultStaleTimeoutSeconds      = 900
	defaultExecutorTimeoutSeconds   = 120
	defaultStderrTailBytes          = 4096
	defaultTaskPollInterval         = 1
	defaultTaskErrorRetryInterval   = 5
	defaultTaskWorkers              = 1
	defaultTaskStaleTimeoutSeconds  = 900
	defaultProspectBatch            = 50
	defaultEnrichBatch              = 50
	defaultOutreachBatch            = 25
	defaultCooldownDays             = 7
	defaultOutreachSubject          = "Quick question about {company}"
	defaultOutreachBody             = "Hi {contact},\n\nI took a look at {website} and noticed a few things worth fixing. Would a short call this week work?\n"
	defaultCollaboratorTimeout      = 30
	defaultCacheTTLSeconds          = 86400
	defaultCacheKeyPrefix           = "outreach"
	defaultBreakerFailures          = 5
	defaultBreakerOpenSeconds       = 30
	defaultBreakerHalfOpenRequests  = 1
	defaultCRMBaseURL               = "http://127.0.0.1:8081"
	defaultVoiceBaseURL             = "http://127.0.0.1:8082"
	defaultBizSearchBaseURL         = "http://127.0.0.1:8083"
	defaultSiteScoreBaseURL         = "http://127.0.0.1:8084"
	defaultSiteScorePassingScore    = 70
	defaultProspectSource           = "bizsearch"
	defaultProspectResultsPerTarget = 20
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		Orchestrator: Orchestrator{
			PollInterval:       defaultOrchestratorPoll,
			ErrorRetryInterval: defaultOrchestratorErrorRetry,
			WarmupSeconds:      defaultWarmupSeconds,
			MaxConcurrency:     defaultMaxConcurrency,
			StaleTimeout:       defaultStaleTimeoutSeconds,
			ExecutorTimeout:    defaultExecutorTimeoutSeconds,
			StderrTailBytes:    defaultStderrTailBytes,
		},
		Tasks: Tasks{
			PollInterval:       defaultTaskPollInterval,
			ErrorRetryInterval: defaultTaskErrorRetryInterval,
			Workers:            defaultTaskWorkers,
			StaleTimeout:       defaultTaskStaleTimeoutSeconds,
		},
		Pipeline: Pipeline{
			ProspectBatch:     defaultProspectBatch,
			ResultsPerTarget:  defaultProspectResultsPerTarget,
			EnrichBatch:       defaultEnrichBatch,
			OutreachBatch:     defaultOutreachBatch,
			CooldownDays:      defaultCooldownDays,
			PassingSiteScore:  defaultSiteScorePassingScore,
			ProspectSource:    defaultProspectSource,
			OutreachSubject:   defaultOutreachSubject,
			OutreachBody:      defaultOutreachBody,
			PromoteAfterSends: true,
		},
		CRM:       Collaborator{BaseURL: defaultCRMBaseURL, TimeoutSeconds: defaultCollaboratorTimeout},
		Voice:     Collaborator{BaseURL: defaultVoiceBaseURL, TimeoutSeconds: defaultCollaboratorTimeout},
		BizSearch: Collaborator{BaseURL: defaultBizSearchBaseURL, TimeoutSeconds: defaultCollaboratorTimeout},
		SiteScore: Collaborator{BaseURL: defaultSiteScoreBaseURL, TimeoutSeconds: defaultCollaboratorTimeout},
		Cache: Cache{
			TTLSeconds: defaultCacheTTLSeconds,
			KeyPrefix:  defaultCacheKeyPrefix,
		},
		Breaker: Breaker{
			ConsecutiveFailures: defaultBreakerFailures,
			OpenSeconds:         defaultBreakerOpenSeconds,
			HalfOpenRequests:    defaultBreakerHalfOpenRequests,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
