package textutil

import "testing"

func TestExpand(t *testing.T) {
	got := Expand("Hi {contact}, about {company} ({missing})", map[string]string{
		"contact": "Dana",
		"company": "Acme",
	})
	if want := "Hi Dana, about Acme ({missing})"; got != want {
		t.Fatalf("Expand = %q, want %q", got, want)
	}
	if got := Expand("{x}", nil); got != "{x}" {
		t.Fatalf("Expand with no vars changed input: %q", got)
	}
}
