package crm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"outreach/internal/services"
	"outreach/internal/services/crm"
	"outreach/internal/testsupport"
)

func TestDeliverUpsertsThenSends(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/contacts":
			_, _ = w.Write([]byte(`{"id":"contact-9"}`))
		case "/messages":
			var msg crm.Message
			if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
				t.Errorf("decode message: %v", err)
			}
			if msg.ContactID != "contact-9" || msg.To != "a@b.com" {
				t.Errorf("unexpected message %+v", msg)
			}
			_, _ = w.Write([]byte(`{"id":"msg-1"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithCollaborators(srv.URL))
	client := crm.NewFromConfig(cfg, nil)

	id, err := client.Deliver(context.Background(), crm.Contact{Email: "a@b.com"}, crm.Message{Subject: "hi", Body: "hello"})
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if id != "msg-1" {
		t.Fatalf("unexpected message id %q", id)
	}
	if len(paths) != 2 || paths[0] != "/contacts" || paths[1] != "/messages" {
		t.Fatalf("unexpected call order %v", paths)
	}
}

func TestUpsertRequiresEmail(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCollaborators("http://127.0.0.1:1"))
	_, err := crm.NewFromConfig(cfg, nil).UpsertContact(context.Background(), crm.Contact{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSendMessageServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithCollaborators(srv.URL))
	_, err := crm.NewFromConfig(cfg, nil).SendMessage(context.Background(), crm.Message{To: "a@b.com", Body: "x"})
	if !errors.Is(err, services.ErrExternal) {
		t.Fatalf("expected external error, got %v", err)
	}
}
