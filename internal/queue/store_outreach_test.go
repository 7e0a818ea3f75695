package queue_test

import (
	"context"
	"testing"
	"time"

	"outreach/internal/queue"
	"outreach/internal/testsupport"
)

func TestOutreachCandidatesAndBacklog(t *testing.T) {
	clock := testsupport.NewClock(time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC))
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t), queue.WithClock(clock.Now))
	ctx := context.Background()

	enrich := func(in queue.NewItem, tier queue.Tier, touched *time.Time) *queue.Item {
		t.Helper()
		item := testsupport.MustInsert(t, store, in)
		change := queue.Change{OutreachedAt: touched}
		if tier != "" {
			change.Metadata = func(m *queue.Metadata) { m.Tier = tier }
		}
		if ok, err := store.Transition(ctx, item.ID, queue.StatusNew, queue.StatusEnriched, change); err != nil || !ok {
			t.Fatalf("enrich: ok=%v err=%v", ok, err)
		}
		return item
	}

	recent := clock.Now().Add(-time.Hour)
	old := clock.Now().Add(-30 * 24 * time.Hour)
	cutoff := clock.Now().Add(-7 * 24 * time.Hour)

	enrich(queue.NewItem{Email: "green@x.example"}, queue.TierGreen, nil)
	enrich(queue.NewItem{Phone: "555-030-0001"}, queue.TierRed, nil)
	enrich(queue.NewItem{Email: "unclassified@x.example"}, "", nil)
	enrich(queue.NewItem{Email: "cooling@x.example"}, queue.TierRed, &recent)
	first := enrich(queue.NewItem{Email: "first@x.example"}, queue.TierYellow, &old)
	second := enrich(queue.NewItem{Email: "second@x.example"}, queue.TierRed, nil)

	items, err := store.OutreachCandidates(ctx, cutoff, 1)
	if err != nil {
		t.Fatalf("OutreachCandidates failed: %v", err)
	}
	if len(items) != 1 || items[0].ID != first.ID {
		t.Fatalf("expected oldest eligible item %d, got %+v", first.ID, items)
	}
	all, err := store.OutreachCandidates(ctx, cutoff, 0)
	if err != nil {
		t.Fatalf("OutreachCandidates failed: %v", err)
	}
	if len(all) != 2 || all[1].ID != second.ID {
		t.Fatalf("expected 2 eligible items, got %d", len(all))
	}

	backlog, err := store.OutreachBacklog(ctx, cutoff)
	if err != nil {
		t.Fatalf("OutreachBacklog failed: %v", err)
	}
	if backlog != (queue.OutreachBacklog{Ineligible: 3, CoolingOff: 1}) {
		t.Fatalf("unexpected backlog %+v", backlog)
	}
}
