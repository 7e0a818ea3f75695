package voice_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"outreach/internal/services"
	"outreach/internal/services/voice"
	"outreach/internal/testsupport"
)

func TestPlaceCallReturnsID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/calls" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"call_id":"call-42"}`))
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithCollaborators(srv.URL))
	id, err := voice.NewFromConfig(cfg, nil).PlaceCall(context.Background(), voice.Call{Phone: "+15551230000"})
	if err != nil {
		t.Fatalf("PlaceCall failed: %v", err)
	}
	if id != "call-42" {
		t.Fatalf("unexpected call id %q", id)
	}
}

func TestPlaceCallMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithCollaborators(srv.URL))
	_, err := voice.NewFromConfig(cfg, nil).PlaceCall(context.Background(), voice.Call{Phone: "5551230000"})
	if !errors.Is(err, services.ErrExternal) {
		t.Fatalf("expected external error, got %v", err)
	}
}

func TestPlaceCallRequiresPhone(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCollaborators("http://127.0.0.1:1"))
	_, err := voice.NewFromConfig(cfg, nil).PlaceCall(context.Background(), voice.Call{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
