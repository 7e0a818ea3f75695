package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"outreach/internal/config"
	"outreach/internal/logging"
	"outreach/internal/queue"
	"outreach/internal/services"
	"outreach/internal/services/sitescore"
)

// Scorer is satisfied by *sitescore.Client.
type Scorer interface {
	Score(ctx context.Context, siteURL string) (sitescore.Report, error)
}

// EnrichReport summarizes one enrichment run.
type EnrichReport struct {
	Processed   int
	Enriched    int
	Unreachable int
	Deferred    int
}

// Enricher classifies new items and moves them to enriched.
type Enricher struct {
	store   *queue.Store
	scorer  Scorer
	batch   int
	passing int
	logger  *zap.Logger
	settings
}

// NewEnricher builds an enricher from cfg.Pipeline.
func NewEnricher(cfg *config.Config, store *queue.Store, scorer Scorer, logger *zap.Logger, opts ...Option) *Enricher {
	return &Enricher{
		store:    store,
		scorer:   scorer,
		batch:    cfg.Pipeline.EnrichBatch,
		passing:  cfg.Pipeline.PassingSiteScore,
		logger:   logging.NewComponentLogger(logger, "enricher"),
		settings: applyOptions(opts),
	}
}

type enrichResult int

const (
	resultUnchanged enrichResult = iota
	resultEnriched
	resultUnreachable
	resultDeferred
)

// Run enriches one bounded batch of new and needs_enrichment items.
func (e *Enricher) Run(ctx context.Context) (EnrichReport, error) {
	var report EnrichReport
	items, err := e.store.Batch(ctx, e.batch, queue.StatusNew, queue.StatusNeedsEnrichment)
	if err != nil {
		return report, err
	}
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		report.Processed++
		res, err := e.enrich(ctx, item)
		if err != nil {
			return report, err
		}
		switch res {
		case resultEnriched:
			report.Enriched++
		case resultUnreachable:
			report.Unreachable++
		case resultDeferred:
			report.Deferred++
		}
	}
	e.logger.Info("enrichment finished",
		logging.Event("enrich_run_complete"),
		zap.Int("processed", report.Processed),
		zap.Int("enriched", report.Enriched),
		zap.Int("unreachable", report.Unreachable),
		zap.Int("deferred", report.Deferred),
	)
	return report, nil
}

// EnrichItem enriches a single item by id and returns its updated row.
// Items outside new and needs_enrichment are returned unchanged.
func (e *Enricher) EnrichItem(ctx context.Context, id int64) (*queue.Item, error) {
	item, err := e.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, services.Wrap(services.ErrValidation, "enricher", "enrich item", fmt.Sprintf("item %d not found", id), nil)
	}
	if item.Status == queue.StatusNew || item.Status == queue.StatusNeedsEnrichment {
		if _, err := e.enrich(ctx, item); err != nil {
			return nil, err
		}
	}
	return e.store.GetByID(ctx, id)
}

func (e *Enricher) enrich(ctx context.Context, item *queue.Item) (enrichResult, error) {
	ctx = services.WithItemID(ctx, item.ID)
	logger := logging.WithContext(ctx, e.logger)

	if !item.Reachable() {
		moved, err := e.store.Transition(ctx, item.ID, item.Status, queue.StatusUnreachable,
			queue.Change{}.WithNotes("no phone or email on record"))
		if err != nil || !moved {
			return resultUnchanged, err
		}
		logger.Info("item unreachable", logging.Event("enrich_unreachable"))
		return resultUnreachable, nil
	}

	failing := make([]string, 0, 4)
	signals := make(map[string]bool)
	var siteScore *int

	if website := strings.TrimSpace(item.Website); website == "" {
		failing = append(failing, SignalNoWebsite)
		signals["has_website"] = false
	} else {
		report, err := e.score(ctx, website)
		if err != nil {
			return e.deferItem(ctx, item, err)
		}
		signals["has_website"] = true
		for name, passed := range report.Signals {
			signals[name] = passed
		}
		failing = append(failing, report.Failing()...)
		score := report.Score
		siteScore = &score
		if score < e.passing {
			failing = append(failing, SignalLowSiteScore)
		}
	}

	class := Classify(failing)
	now := e.now()
	moved, err := e.store.Transition(ctx, item.ID, item.Status, queue.StatusEnriched, queue.Change{
		EnrichedAt: &now,
		Metadata: func(m *queue.Metadata) {
			m.Tier = class.Tier
			m.Score = class.Score
			m.Issues = class.Issues
			m.Signals = signals
			m.SiteScore = siteScore
		},
	})
	if err != nil || !moved {
		return resultUnchanged, err
	}
	logger.Info("item enriched",
		logging.Event("enrich_complete"),
		zap.String("tier", string(class.Tier)),
		zap.Int("points", class.Points),
		zap.Int("score", class.Score),
	)
	return resultEnriched, nil
}

// score calls the scorer, converting a panic into a scoring error.
func (e *Enricher) score(ctx context.Context, website string) (report sitescore.Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("site scorer panicked: %v", r)
		}
	}()
	return e.scorer.Score(ctx, website)
}

// deferItem parks an item whose site report failed. A new item moves to
// needs_enrichment; one already there keeps its status with a fresh note.
func (e *Enricher) deferItem(ctx context.Context, item *queue.Item, cause error) (enrichResult, error) {
	note := services.Truncate("site score unavailable: " + services.ErrorMessage(cause))
	logging.WithContext(ctx, e.logger).Warn("site score failed; enrichment deferred",
		zap.Error(cause),
		logging.Event("enrich_deferred"),
		logging.ErrorKind(cause),
	)
	if item.Status == queue.StatusNew {
		_, err := e.store.Transition(ctx, item.ID, queue.StatusNew, queue.StatusNeedsEnrichment, queue.Change{
			Notes:    &note,
			Metadata: func(m *queue.Metadata) { m.EnrichAttempts++ },
		})
		return resultDeferred, err
	}
	_, err := e.store.Annotate(ctx, item.ID, item.Status, note)
	return resultDeferred, err
}
