package ident

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want ID
	}{
		{name: "plain", raw: "card", want: ID{Base: "card"}},
		{
			name: "clone",
			raw:  "card@clone@c2",
			want: ID{Base: "card", Tags: []Tag{{Kind: KindClone, Value: "c2"}}},
		},
		{
			name: "link inside clone",
			raw:  "x@link@a@clone@c2",
			want: ID{Base: "x", Tags: []Tag{
				{Kind: KindLink, Value: "a"},
				{Kind: KindClone, Value: "c2"},
			}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.raw)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("id mismatch (-want +got):\n%s", diff)
			}
			if got.String() != tc.raw {
				t.Fatalf("expected %q to round-trip, got %q", tc.raw, got.String())
			}
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, raw := range []string{"", "a b", "card@", "card@clone", "card@copy@c1", "card@clone@", "card@clone@c-1"} {
		if _, err := Parse(raw); !errors.Is(err, ErrMalformed) {
			t.Fatalf("expected ErrMalformed for %q, got %v", raw, err)
		}
	}
}

func TestWithLinkAndClone(t *testing.T) {
	host := MustParse("a@clone@c2")
	linked := New("x").WithLink(host)
	if got := linked.String(); got != "x@link@a@clone@c2" {
		t.Fatalf("unexpected linked id %q", got)
	}
	if !linked.IsLinked() || !linked.IsCloned() {
		t.Fatalf("expected linked copy to be both linked and cloned")
	}
	if linked.CloneID() != "c2" {
		t.Fatalf("expected clone id c2, got %q", linked.CloneID())
	}

	cloned := New("card").WithClone("c9")
	if cloned.String() != "card@clone@c9" {
		t.Fatalf("unexpected clone id %q", cloned.String())
	}
	if cloned.WithoutClone().String() != "card" {
		t.Fatalf("expected clone segment to be dropped")
	}
	if len(New("card").Tags) != 0 {
		t.Fatalf("WithClone must not alias the receiver")
	}
}

func TestBase(t *testing.T) {
	if got := Base("a@link@b@clone@c"); got != "a" {
		t.Fatalf("expected a, got %q", got)
	}
	if got := Base("plain"); got != "plain" {
		t.Fatalf("expected plain, got %q", got)
	}
}

func TestCamelCase(t *testing.T) {
	cases := map[string]string{
		"Order line-item": "orderLineItem",
		"user_name":       "userName",
		"  spaced  out ":  "spacedOut",
		"":                "",
	}
	for in, want := range cases {
		if got := CamelCase(in); got != want {
			t.Fatalf("CamelCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		id := ID{Base: rapid.StringMatching(`[A-Za-z0-9_]{1,8}`).Draw(rt, "base")}
		n := rapid.IntRange(0, 4).Draw(rt, "tags")
		for i := 0; i < n; i++ {
			kind := rapid.SampledFrom([]Kind{KindLink, KindClone}).Draw(rt, "kind")
			value := rapid.StringMatching(`[A-Za-z0-9_]{1,6}`).Draw(rt, "value")
			id.Tags = append(id.Tags, Tag{Kind: kind, Value: value})
		}

		parsed, err := Parse(id.String())
		if err != nil {
			rt.Fatalf("parse %q: %v", id.String(), err)
		}
		if !parsed.Equal(id) {
			rt.Fatalf("round trip mismatch: %v vs %v", parsed, id)
		}
		if Base(id.String()) != id.Base {
			rt.Fatalf("Base mismatch for %q", id.String())
		}
	})
}
