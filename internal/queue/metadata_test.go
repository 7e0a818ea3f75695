package queue_test

import (
	"strings"
	"testing"

	"outreach/internal/queue"
)

func TestMetadataPreservesUnknownKeys(t *testing.T) {
	meta := queue.ParseMetadata(`{"tier":"RED","score":80,"custom":{"a":1}}`)
	if meta.Tier != queue.TierRed || meta.Score != 80 {
		t.Fatalf("unexpected decoded metadata: %+v", meta)
	}
	meta.CallID = "call-1"
	encoded, err := meta.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	for _, fragment := range []string{`"custom":{"a":1}`, `"call_id":"call-1"`, `"tier":"RED"`} {
		if !strings.Contains(encoded, fragment) {
			t.Fatalf("expected %s in %s", fragment, encoded)
		}
	}
}

func TestParseMetadataToleratesGarbage(t *testing.T) {
	meta := queue.ParseMetadata("not json")
	if meta.Tier != "" || meta.Extra != nil {
		t.Fatalf("expected empty metadata, got %+v", meta)
	}
}

func TestEngagementPoints(t *testing.T) {
	cases := map[queue.EngagementEvent]int{
		queue.EngagementOpen:  1,
		queue.EngagementClick: 3,
		queue.EngagementReply: 10,
	}
	for event, want := range cases {
		got, ok := event.Points()
		if !ok || got != want {
			t.Fatalf("%s points = %d, want %d", event, got, want)
		}
	}
	if _, ok := queue.EngagementEvent("bounce").Points(); ok {
		t.Fatal("expected unknown event to be rejected")
	}
}
