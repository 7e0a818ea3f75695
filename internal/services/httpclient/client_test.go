package httpclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	"outreach/internal/config"
	"outreach/internal/services"
	"outreach/internal/services/httpclient"
)

func newClient(baseURL string, failures int) *httpclient.Client {
	return httpclient.New(httpclient.Options{
		Name:    "crm",
		BaseURL: baseURL,
		APIKey:  "secret",
		Timeout: time.Second,
		Breaker: config.Breaker{ConsecutiveFailures: failures, OpenSeconds: 60, HalfOpenRequests: 1},
	})
}

func TestPostSendsJSONAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/contacts" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["email"] != "a@b.com" {
			t.Errorf("unexpected body %v err=%v", body, err)
		}
		_, _ = w.Write([]byte(`{"id":"c-1"}`))
	}))
	defer srv.Close()

	var out struct {
		ID string `json:"id"`
	}
	if err := newClient(srv.URL, 3).Post(context.Background(), "/contacts", map[string]string{"email": "a@b.com"}, &out); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if out.ID != "c-1" {
		t.Fatalf("unexpected id %q", out.ID)
	}
}

func TestGetEncodesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "plumbers austin" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	var out []any
	if err := newClient(srv.URL, 3).Get(context.Background(), "search", url.Values{"q": {"plumbers austin"}}, &out); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
}

func TestStatusErrorIsExternal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := newClient(srv.URL, 3).Post(context.Background(), "/messages", map[string]string{}, nil)
	if !errors.Is(err, services.ErrExternal) {
		t.Fatalf("expected external error, got %v", err)
	}
	var statusErr *httpclient.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected StatusError 400, got %v", err)
	}
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newClient(srv.URL, 2)
	for i := 0; i < 2; i++ {
		_ = client.Post(context.Background(), "/calls", nil, nil)
	}
	if client.State() != gobreaker.StateOpen {
		t.Fatalf("expected breaker open, got %s", client.State())
	}
	err := client.Post(context.Background(), "/calls", nil, nil)
	if !errors.Is(err, gobreaker.ErrOpenState) || !errors.Is(err, services.ErrExternal) {
		t.Fatalf("expected open-state external error, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("open breaker must not reach server, calls=%d", calls.Load())
	}
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := newClient(srv.URL, 1)
	for i := 0; i < 3; i++ {
		_ = client.Post(context.Background(), "/messages", nil, nil)
	}
	if client.State() != gobreaker.StateClosed {
		t.Fatalf("4xx responses must not open the breaker, got %s", client.State())
	}
}

func TestUnconfiguredClient(t *testing.T) {
	err := newClient("", 3).Get(context.Background(), "/search", nil, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
