package stageexec_test

import (
	"testing"

	"outreach/internal/stageexec"
)

func TestRequestValidate(t *testing.T) {
	cases := []struct {
		name string
		req  stageexec.Request
		ok   bool
	}{
		{"email ok", stageexec.Request{Action: stageexec.ActionEmail, ItemID: 1, Email: "a@b.com"}, true},
		{"email missing", stageexec.Request{Action: stageexec.ActionEmail, ItemID: 1, Phone: "1"}, false},
		{"call ok", stageexec.Request{Action: stageexec.ActionCall, ItemID: 1, Phone: "1"}, true},
		{"call missing", stageexec.Request{Action: stageexec.ActionCall, ItemID: 1}, false},
		{"bad action", stageexec.Request{Action: "fax", ItemID: 1}, false},
		{"bad id", stageexec.Request{Action: stageexec.ActionCall, Phone: "1"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDecodeResult(t *testing.T) {
	res, err := stageexec.DecodeResult([]byte("noise\n{\"ok\":true,\"message_id\":\"m\"}\n"))
	if err != nil {
		t.Fatalf("DecodeResult failed: %v", err)
	}
	if !res.OK || res.MessageID != "m" {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, err := stageexec.DecodeResult(nil); err == nil {
		t.Fatal("expected error for empty output")
	}
}
