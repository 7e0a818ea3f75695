package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"outreach/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternal, "crm", "send message", "request failed", base)
	if !errors.Is(err, services.ErrExternal) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"crm", "send message", "request failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestFailureKindMapping(t *testing.T) {
	cases := []struct {
		err  error
		want services.Kind
	}{
		{nil, services.KindUnknown},
		{errors.New("plain"), services.KindUnknown},
		{services.Wrap(services.ErrValidation, "skills", "decode", "bad", nil), services.KindValidation},
		{fmt.Errorf("outer: %w", services.Wrap(services.ErrStoreUnavailable, "queue", "next", "", nil)), services.KindStoreUnavailable},
		{services.Wrap(services.ErrDataIneligible, "", "", "no phone", nil), services.KindDataIneligible},
		{services.Wrap(nil, "voice", "place call", "", nil), services.KindExternal},
	}
	for _, tc := range cases {
		if got := services.FailureKind(tc.err); got != tc.want {
			t.Fatalf("FailureKind(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestIsPermanent(t *testing.T) {
	if !services.IsPermanent(services.Wrap(services.ErrValidation, "", "", "x", nil)) {
		t.Fatal("validation errors are permanent")
	}
	if services.IsPermanent(services.Wrap(services.ErrStoreUnavailable, "", "", "x", nil)) {
		t.Fatal("store errors are transient")
	}
}
