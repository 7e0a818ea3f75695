package main

import (
	"go.uber.org/zap"

	"outreach/internal/config"
	"outreach/internal/pipeline"
	"outreach/internal/queue"
	"outreach/internal/services/bizsearch"
	"outreach/internal/services/crm"
	"outreach/internal/services/sitescore"
	"outreach/internal/services/voice"
	"outreach/internal/skills"
	"outreach/internal/skills/cache"
)

// newDispatcher wires every collaborator and the lookup cache into a skill
// dispatcher. The returned close function releases the cache connection.
func newDispatcher(cfg *config.Config, store *queue.Store, logger *zap.Logger) (*skills.Dispatcher, func() error, error) {
	lookupCache, closeCache, err := cache.Open(cfg.Cache)
	if err != nil {
		return nil, nil, err
	}
	scorer := sitescore.NewFromConfig(cfg, logger)
	dispatcher := skills.New(skills.Deps{
		Search:      bizsearch.NewFromConfig(cfg, logger),
		Scorer:      scorer,
		Messenger:   crm.NewFromConfig(cfg, logger),
		Caller:      voice.NewFromConfig(cfg, logger),
		Enricher:    pipeline.NewEnricher(cfg, store, scorer, logger),
		Cache:       lookupCache,
		CacheTTL:    cfg.Cache.TTL(),
		SearchLimit: cfg.Pipeline.ResultsPerTarget,
		Logger:      logger,
	})
	return dispatcher, closeCache, nil
}
