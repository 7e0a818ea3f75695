package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"outreach/internal/config"
	"outreach/internal/logging"
	"outreach/internal/queue"
	"outreach/internal/services"
	"outreach/internal/services/bizsearch"
	"outreach/internal/textutil"
)

// Searcher is satisfied by *bizsearch.Client.
type Searcher interface {
	Search(ctx context.Context, query, location string, limit int) ([]bizsearch.Business, error)
}

// ProspectReport summarizes one prospecting run.
type ProspectReport struct {
	Targets    int
	Found      int
	Inserted   int
	Duplicates int
	Skipped    int
	Failed     int
}

// Prospector discovers businesses and inserts them as new items.
type Prospector struct {
	store     *queue.Store
	search    Searcher
	batch     int
	perTarget int
	source    string
	logger    *zap.Logger
}

// NewProspector builds a prospector from cfg.Pipeline.
func NewProspector(cfg *config.Config, store *queue.Store, search Searcher, logger *zap.Logger) *Prospector {
	return &Prospector{
		store:     store,
		search:    search,
		batch:     cfg.Pipeline.ProspectBatch,
		perTarget: cfg.Pipeline.ResultsPerTarget,
		source:    cfg.Pipeline.ProspectSource,
		logger:    logging.NewComponentLogger(logger, "prospector"),
	}
}

// Run searches every target and inserts up to the batch size of unseen
// businesses. A failed search is logged and the next target is tried; only
// store errors abort the run.
func (p *Prospector) Run(ctx context.Context, targets []Target) (ProspectReport, error) {
	var report ProspectReport

	for _, target := range targets {
		if p.batch > 0 && report.Inserted >= p.batch {
			break
		}
		report.Targets++
		limit := p.perTarget
		if target.Limit > 0 {
			limit = target.Limit
		}
		results, err := p.search.Search(ctx, target.Query, target.Location, limit)
		if err != nil {
			report.Failed++
			p.logger.Warn("prospect search failed",
				zap.Error(err),
				logging.Event("prospect_search_failed"),
				logging.ErrorKind(err),
				zap.String("query", target.Query),
				zap.String("location", target.Location),
			)
			continue
		}
		report.Found += len(results)

		for _, biz := range results {
			if p.batch > 0 && report.Inserted >= p.batch {
				break
			}
			name := CompanyName(biz.Name)
			phone := strings.TrimSpace(biz.Phone)
			email := textutil.NormalizeEmail(biz.Email)
			if name == "" || (phone == "" && email == "") {
				report.Skipped++
				continue
			}
			// Inserted rows are visible to later lookups, so this also
			// dedupes within the run.
			dup, err := p.store.FindDuplicate(ctx, phone, biz.Website)
			if err != nil {
				return report, err
			}
			if dup != nil {
				report.Duplicates++
				continue
			}
			item, err := p.store.Insert(ctx, queue.NewItem{
				CompanyName: name,
				ContactName: strings.TrimSpace(biz.ContactName),
				Phone:       phone,
				Email:       email,
				Website:     strings.TrimSpace(biz.Website),
				Status:      queue.StatusNew,
				Metadata:    queue.Metadata{Source: p.source, Query: strings.TrimSpace(target.Query + " " + target.Location)},
			})
			if err != nil {
				return report, err
			}
			report.Inserted++
			logging.WithContext(services.WithItemID(ctx, item.ID), p.logger).Debug("prospect inserted",
				logging.Event("prospect_inserted"),
				zap.String("company", name),
			)
		}
	}

	p.logger.Info("prospecting finished",
		logging.Event("prospect_run_complete"),
		zap.Int("targets", report.Targets),
		zap.Int("found", report.Found),
		zap.Int("inserted", report.Inserted),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}
