package queue_test

import (
	"testing"

	"outreach/internal/queue"
)

func TestParseStatus(t *testing.T) {
	for _, status := range queue.AllStatuses() {
		parsed, ok := queue.ParseStatus(" " + string(status) + " ")
		if !ok || parsed != status {
			t.Fatalf("ParseStatus(%q) = %q, %v", status, parsed, ok)
		}
	}
	if _, ok := queue.ParseStatus("pending"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestTerminalStatusesHaveNoForwardMoves(t *testing.T) {
	for _, from := range queue.AllStatuses() {
		if !from.IsTerminal() {
			continue
		}
		for _, to := range queue.AllStatuses() {
			if queue.CanTransition(from, to) {
				t.Fatalf("terminal %s must not transition to %s", from, to)
			}
		}
	}
}

func TestCanTransitionRejectsNonGraphMoves(t *testing.T) {
	cases := []struct {
		from, to queue.Status
		want     bool
	}{
		{queue.StatusNew, queue.StatusEnriched, true},
		{queue.StatusReadyToSend, queue.StatusProcessingEmail, true},
		{queue.StatusProcessingEmail, queue.StatusWarmingUp, true},
		{queue.StatusWarmingUp, queue.StatusProcessingCall, true},
		{queue.StatusProcessingCall, queue.StatusContacted, true},
		{queue.StatusNew, queue.StatusContacted, false},
		{queue.StatusReadyToSend, queue.StatusWarmingUp, false},
		{queue.StatusProcessingEmail, queue.StatusReadyToSend, false},
		{queue.StatusWarmingUp, queue.StatusContacted, false},
		{queue.StatusEnriched, queue.StatusNew, false},
	}
	for _, tc := range cases {
		if got := queue.CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestProcessingSource(t *testing.T) {
	if src, ok := queue.ProcessingSource(queue.StatusProcessingEmail); !ok || src != queue.StatusReadyToSend {
		t.Fatalf("unexpected email source %q", src)
	}
	if src, ok := queue.ProcessingSource(queue.StatusProcessingCall); !ok || src != queue.StatusWarmingUp {
		t.Fatalf("unexpected call source %q", src)
	}
	if _, ok := queue.ProcessingSource(queue.StatusWarmingUp); ok {
		t.Fatal("warming_up is not a processing status")
	}
}
