package bizsearch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"outreach/internal/services"
	"outreach/internal/services/bizsearch"
	"outreach/internal/testsupport"
)

func TestSearchPassesParametersAndTrims(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("query") != "plumbers" || q.Get("location") != "Austin, TX" || q.Get("limit") != "1" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"results":[{"name":"A","phone":"1"},{"name":"B"}]}`))
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithCollaborators(srv.URL))
	results, err := bizsearch.NewFromConfig(cfg, nil).Search(context.Background(), "plumbers", "Austin, TX", 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].Name != "A" {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCollaborators("http://127.0.0.1:1"))
	_, err := bizsearch.NewFromConfig(cfg, nil).Search(context.Background(), " ", "", 0)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
