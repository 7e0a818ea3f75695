// Package skills maps task types to typed, validated handlers. Each skill
// decodes its payload into a struct, validates it, and only then performs
// side effects.
package skills

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"outreach/internal/logging"
	"outreach/internal/queue"
	"outreach/internal/services"
	"outreach/internal/services/bizsearch"
	"outreach/internal/services/crm"
	"outreach/internal/services/sitescore"
	"outreach/internal/services/voice"
	"outreach/internal/skills/cache"
	"outreach/internal/textutil"
)

// BusinessSearcher is satisfied by *bizsearch.Client.
type BusinessSearcher interface {
	Search(ctx context.Context, query, location string, limit int) ([]bizsearch.Business, error)
}

// SiteScorer is satisfied by *sitescore.Client.
type SiteScorer interface {
	Score(ctx context.Context, siteURL string) (sitescore.Report, error)
}

// Messenger is satisfied by *crm.Client.
type Messenger interface {
	Deliver(ctx context.Context, contact crm.Contact, msg crm.Message) (string, error)
}

// Caller is satisfied by *voice.Client.
type Caller interface {
	PlaceCall(ctx context.Context, call voice.Call) (string, error)
}

// ItemEnricher enriches one work item and returns its updated row.
type ItemEnricher interface {
	EnrichItem(ctx context.Context, id int64) (*queue.Item, error)
}

// Deps wires collaborators into the dispatcher. Nil collaborators make the
// corresponding skill fail with a configuration error.
type Deps struct {
	Search      BusinessSearcher
	Scorer      SiteScorer
	Messenger   Messenger
	Caller      Caller
	Enricher    ItemEnricher
	Cache       cache.Cache
	CacheTTL    time.Duration
	SearchLimit int
	Logger      *zap.Logger
}

type handler func(ctx context.Context, raw json.RawMessage) (any, error)

// Dispatcher executes skills by name.
type Dispatcher struct {
	deps     Deps
	logger   *zap.Logger
	handlers map[string]handler
}

// New builds a dispatcher with every skill registered.
func New(deps Deps) *Dispatcher {
	if deps.Cache == nil {
		deps.Cache = cache.Nop{}
	}
	if deps.SearchLimit <= 0 {
		deps.SearchLimit = 20
	}
	d := &Dispatcher{
		deps:     deps,
		logger:   logging.NewComponentLogger(deps.Logger, "skills"),
		handlers: make(map[string]handler),
	}
	register(d, SkillLookupBusiness, d.lookupBusiness)
	register(d, SkillScoreSite, d.scoreSite)
	register(d, SkillSendMessage, d.sendMessage)
	register(d, SkillPlaceCall, d.placeCall)
	register(d, SkillEnrichItem, d.enrichItem)
	return d
}

func register[P Payload](d *Dispatcher, name string, fn func(context.Context, P) (any, error)) {
	d.handlers[name] = func(ctx context.Context, raw json.RawMessage) (any, error) {
		var payload P
		if len(strings.TrimSpace(string(raw))) == 0 {
			raw = json.RawMessage(`{}`)
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, &InvalidPayloadError{Skill: name, Reason: "decode", Err: err}
		}
		if err := payload.Validate(); err != nil {
			return nil, err
		}
		return fn(ctx, payload)
	}
}

// Names returns the registered skill names in sorted order.
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs the skill registered under taskType and returns its JSON
// result.
func (d *Dispatcher) Execute(ctx context.Context, taskType string, payload json.RawMessage) (json.RawMessage, error) {
	h, ok := d.handlers[strings.TrimSpace(taskType)]
	if !ok {
		return nil, &UnknownSkillError{Name: taskType}
	}
	result, err := h(ctx, payload)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", taskType, err)
	}
	return encoded, nil
}

func notConfigured(skill, collaborator string) error {
	return services.Wrap(services.ErrConfiguration, "skills", skill, collaborator+" collaborator not configured", nil)
}

// cached serves key from the cache when possible and stores fresh results.
// Cache failures are logged and otherwise ignored.
func cached[T any](ctx context.Context, d *Dispatcher, key string, fetch func(context.Context) (T, error)) (T, error) {
	logger := logging.WithContext(ctx, d.logger)
	if raw, hit, err := d.deps.Cache.Get(ctx, key); err != nil {
		logger.Warn("skill cache read failed",
			logging.Event("cache_read_failed"),
			zap.String("cache_key", key),
			zap.Error(err),
			logging.Hint("check redis connectivity; lookups continue uncached"),
		)
	} else if hit {
		var value T
		if err := json.Unmarshal(raw, &value); err == nil {
			logger.Debug("skill cache hit", logging.Event("cache_hit"), zap.String("cache_key", key))
			return value, nil
		}
	}

	value, err := fetch(ctx)
	if err != nil {
		return value, err
	}
	encoded, err := json.Marshal(value)
	if err == nil {
		err = d.deps.Cache.Set(ctx, key, encoded, d.deps.CacheTTL)
	}
	if err != nil {
		logger.Warn("skill cache write failed",
			logging.Event("cache_write_failed"),
			zap.String("cache_key", key),
			zap.Error(err),
		)
	}
	return value, nil
}

// LookupResult is the lookup_business result.
type LookupResult struct {
	Results []bizsearch.Business `json:"results"`
}

func (d *Dispatcher) lookupBusiness(ctx context.Context, p LookupBusiness) (any, error) {
	if d.deps.Search == nil {
		return nil, notConfigured(SkillLookupBusiness, "bizsearch")
	}
	limit := p.Limit
	if limit == 0 {
		limit = d.deps.SearchLimit
	}
	key := cache.Key(SkillLookupBusiness, p.Query, p.Location, fmt.Sprint(limit))
	return cached(ctx, d, key, func(ctx context.Context) (LookupResult, error) {
		results, err := d.deps.Search.Search(ctx, p.Query, p.Location, limit)
		if err != nil {
			return LookupResult{}, err
		}
		if results == nil {
			results = []bizsearch.Business{}
		}
		return LookupResult{Results: results}, nil
	})
}

func (d *Dispatcher) scoreSite(ctx context.Context, p ScoreSite) (any, error) {
	if d.deps.Scorer == nil {
		return nil, notConfigured(SkillScoreSite, "sitescore")
	}
	key := cache.Key(SkillScoreSite, textutil.NormalizeDomain(p.URL))
	return cached(ctx, d, key, func(ctx context.Context) (sitescore.Report, error) {
		return d.deps.Scorer.Score(ctx, p.URL)
	})
}

// MessageResult is the send_message result.
type MessageResult struct {
	MessageID string `json:"message_id"`
}

func (d *Dispatcher) sendMessage(ctx context.Context, p SendMessage) (any, error) {
	if d.deps.Messenger == nil {
		return nil, notConfigured(SkillSendMessage, "crm")
	}
	contact := crm.Contact{
		Email:   textutil.NormalizeEmail(p.Email),
		Name:    strings.TrimSpace(p.ContactName),
		Company: strings.TrimSpace(p.Company),
	}
	id, err := d.deps.Messenger.Deliver(ctx, contact, crm.Message{Subject: p.Subject, Body: p.Body})
	if err != nil {
		return nil, err
	}
	return MessageResult{MessageID: id}, nil
}

// CallResult is the place_call result.
type CallResult struct {
	CallID string `json:"call_id"`
}

func (d *Dispatcher) placeCall(ctx context.Context, p PlaceCall) (any, error) {
	if d.deps.Caller == nil {
		return nil, notConfigured(SkillPlaceCall, "voice")
	}
	id, err := d.deps.Caller.PlaceCall(ctx, voice.Call{Phone: p.Phone, ContactName: p.ContactName})
	if err != nil {
		return nil, err
	}
	return CallResult{CallID: id}, nil
}

// EnrichResult is the enrich_item result.
type EnrichResult struct {
	ItemID int64        `json:"item_id"`
	Status queue.Status `json:"status"`
	Tier   queue.Tier   `json:"tier,omitempty"`
	Score  int          `json:"score"`
}

func (d *Dispatcher) enrichItem(ctx context.Context, p EnrichItem) (any, error) {
	if d.deps.Enricher == nil {
		return nil, notConfigured(SkillEnrichItem, "enricher")
	}
	item, err := d.deps.Enricher.EnrichItem(services.WithItemID(ctx, p.ItemID), p.ItemID)
	if err != nil {
		return nil, err
	}
	meta := item.Metadata()
	return EnrichResult{ItemID: item.ID, Status: item.Status, Tier: meta.Tier, Score: meta.Score}, nil
}
