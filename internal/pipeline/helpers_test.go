package pipeline_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"outreach/internal/queue"
	"outreach/internal/services/bizsearch"
	"outreach/internal/services/crm"
	"outreach/internal/services/sitescore"
	"outreach/internal/testsupport"
)

type fakeSearch struct {
	mu      sync.Mutex
	results map[string][]bizsearch.Business
	errs    map[string]error
	queries []string
	limits  []int
}

func (f *fakeSearch) Search(_ context.Context, query, _ string, limit int) ([]bizsearch.Business, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	f.limits = append(f.limits, limit)
	if err := f.errs[query]; err != nil {
		return nil, err
	}
	return f.results[query], nil
}

type fakeScorer struct {
	reports map[string]sitescore.Report
	err     error
	calls   int
}

func (f *fakeScorer) Score(_ context.Context, siteURL string) (sitescore.Report, error) {
	f.calls++
	if f.err != nil {
		return sitescore.Report{}, f.err
	}
	return f.reports[siteURL], nil
}

type sentMessage struct {
	contact crm.Contact
	msg     crm.Message
}

type fakeMessenger struct {
	sent []sentMessage
	err  error
}

func (f *fakeMessenger) Deliver(_ context.Context, contact crm.Contact, msg crm.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, sentMessage{contact: contact, msg: msg})
	return "msg-" + contact.Email, nil
}

// seedEnriched inserts an item and moves it straight to enriched with tier.
func seedEnriched(t *testing.T, store *queue.Store, in queue.NewItem, tier queue.Tier, change queue.Change) *queue.Item {
	t.Helper()
	item := testsupport.MustInsert(t, store, in)
	change.Metadata = func(m *queue.Metadata) { m.Tier = tier }
	moved, err := store.Transition(context.Background(), item.ID, queue.StatusNew, queue.StatusEnriched, change)
	require.NoError(t, err)
	require.True(t, moved)
	return testsupport.MustGet(t, store, item.ID)
}
