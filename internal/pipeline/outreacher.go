package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"outreach/internal/config"
	"outreach/internal/logging"
	"outreach/internal/queue"
	"outreach/internal/services"
	"outreach/internal/services/crm"
	"outreach/internal/textutil"
)

// Messenger is satisfied by *crm.Client.
type Messenger interface {
	Deliver(ctx context.Context, contact crm.Contact, msg crm.Message) (string, error)
}

// OutreachReport summarizes one outreach run.
type OutreachReport struct {
	Considered int
	Sent       int
	Skipped    int
	CoolingOff int
	Failed     int
	Promoted   int64
}

// Outreacher sends the first message to enriched RED and YELLOW items.
type Outreacher struct {
	store     *queue.Store
	messenger Messenger
	batch     int
	cooldown  time.Duration
	subject   string
	body      string
	promote   bool
	logger    *zap.Logger
	settings
}

// NewOutreacher builds an outreacher from cfg.Pipeline.
func NewOutreacher(cfg *config.Config, store *queue.Store, messenger Messenger, logger *zap.Logger, opts ...Option) *Outreacher {
	return &Outreacher{
		store:     store,
		messenger: messenger,
		batch:     cfg.Pipeline.OutreachBatch,
		cooldown:  cfg.Pipeline.Cooldown(),
		subject:   cfg.Pipeline.OutreachSubject,
		body:      cfg.Pipeline.OutreachBody,
		promote:   cfg.Pipeline.PromoteAfterSends,
		logger:    logging.NewComponentLogger(logger, "outreacher"),
		settings:  applyOptions(opts),
	}
}

// Run messages up to the batch size of enriched RED and YELLOW items with
// an email, oldest first. GREEN items, items without an email, and items
// touched within the cooldown window are left in place and only counted. A
// failed delivery annotates the item and counts toward the batch.
func (o *Outreacher) Run(ctx context.Context) (OutreachReport, error) {
	var report OutreachReport
	now := o.now()
	cutoff := now.Add(-o.cooldown)

	items, err := o.store.OutreachCandidates(ctx, cutoff, o.batch)
	if err != nil {
		return report, err
	}
	backlog, err := o.store.OutreachBacklog(ctx, cutoff)
	if err != nil {
		return report, err
	}
	report.Skipped = backlog.Ineligible
	report.CoolingOff = backlog.CoolingOff

	var sent []int64
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		report.Considered++
		meta := item.Metadata()
		ok, err := o.send(ctx, item, meta, now)
		if err != nil {
			return report, err
		}
		if ok {
			report.Sent++
			sent = append(sent, item.ID)
		} else {
			report.Failed++
		}
	}

	if o.promote && len(sent) > 0 {
		promoted, err := o.store.PromoteToSend(ctx, sent...)
		if err != nil {
			return report, err
		}
		report.Promoted = promoted
	}

	o.logger.Info("outreach finished",
		logging.Event("outreach_run_complete"),
		zap.Int("considered", report.Considered),
		zap.Int("sent", report.Sent),
		zap.Int("skipped", report.Skipped),
		zap.Int("cooling_off", report.CoolingOff),
		zap.Int("failed", report.Failed),
		zap.Int64("promoted", report.Promoted),
	)
	return report, nil
}

// deliver calls the messenger, converting a panic into a delivery error.
func (o *Outreacher) deliver(ctx context.Context, contact crm.Contact, msg crm.Message) (messageID string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("messenger panicked: %v", r)
		}
	}()
	return o.messenger.Deliver(ctx, contact, msg)
}

// send delivers one message. It reports false when the collaborator
// rejected the send; only store errors are returned.
func (o *Outreacher) send(ctx context.Context, item *queue.Item, meta queue.Metadata, now time.Time) (bool, error) {
	ctx = services.WithItemID(ctx, item.ID)
	logger := logging.WithContext(ctx, o.logger)

	vars := map[string]string{
		"company": item.CompanyName,
		"contact": textutil.Ternary(item.ContactName != "", item.ContactName, "there"),
		"website": item.Website,
		"tier":    string(meta.Tier),
		"issues":  strings.Join(meta.Issues, ", "),
	}
	messageID, err := o.deliver(ctx,
		crm.Contact{
			Email:   item.Email,
			Name:    item.ContactName,
			Phone:   item.Phone,
			Company: item.CompanyName,
		},
		crm.Message{
			Subject:   textutil.Expand(o.subject, vars),
			Body:      textutil.Expand(o.body, vars),
			Reference: fmt.Sprintf("item-%d-outreach", item.ID),
		},
	)
	if err != nil {
		logger.Warn("outreach delivery failed",
			zap.Error(err),
			logging.Event("outreach_failed"),
			logging.ErrorKind(err),
		)
		note := services.Truncate("outreach failed: " + services.ErrorMessage(err))
		if _, annotateErr := o.store.Annotate(ctx, item.ID, queue.StatusEnriched, note); annotateErr != nil {
			return false, annotateErr
		}
		return false, nil
	}

	moved, err := o.store.Transition(ctx, item.ID, queue.StatusEnriched, queue.StatusOutreached, queue.Change{
		OutreachedAt: &now,
		Metadata:     func(m *queue.Metadata) { m.OutreachMessageID = messageID },
	}.WithNotes(""))
	if err != nil {
		return false, err
	}
	if !moved {
		logger.Warn("item moved during outreach; message already sent",
			logging.Event("outreach_lost_race"),
			zap.String("message_id", messageID),
		)
		return true, nil
	}
	logger.Info("outreach sent",
		logging.Event("outreach_sent"),
		zap.String("tier", string(meta.Tier)),
		zap.String("message_id", messageID),
	)
	return true, nil
}
