package token

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"
)

func newTestSubstituter(options ...Option) *Substituter {
	return NewSubstituter(MustPattern(DefaultPrefix), nil, options...)
}

func TestSubstitute_ReplacesAndMemoises(t *testing.T) {
	sub := newTestSubstituter()
	addr := Address{Node: "card", Instance: "a", Clone: "c1"}

	got, err := sub.Substitute(`<div>idom$title idom$count</div>`, Data{"title": "Hi", "count": 3}, addr)
	if err != nil {
		t.Fatalf("substitute: %v", err)
	}
	if got != `<div>Hi 3</div>` {
		t.Fatalf("unexpected markup %q", got)
	}

	again, err := sub.Substitute(`<div>idom$title idom$count</div>`, Data{"count": 4}, addr)
	if err != nil {
		t.Fatalf("substitute: %v", err)
	}
	if again != `<div>Hi 4</div>` {
		t.Fatalf("expected memoised title, got %q", again)
	}
}

func TestSubstitute_MissingAndNull(t *testing.T) {
	sub := newTestSubstituter()
	addr := Address{Node: "card", Instance: "a", Clone: "c1"}

	if _, err := sub.Substitute(`idom$title`, Data{"title": "x"}, addr); err != nil {
		t.Fatalf("substitute: %v", err)
	}
	got, err := sub.Substitute(`[idom$title][idom$other]`, Data{"title": nil}, addr)
	if err != nil {
		t.Fatalf("substitute: %v", err)
	}
	if got != `[][]` {
		t.Fatalf("expected explicit null to clear and missing to be empty, got %q", got)
	}
}

func TestSubstitute_AddressesAreIsolated(t *testing.T) {
	sub := newTestSubstituter()
	markup := `idom$title`

	if _, err := sub.Substitute(markup, Data{"title": "original"}, Address{Node: "card", Instance: "a", Clone: "c1"}); err != nil {
		t.Fatalf("substitute: %v", err)
	}
	if _, err := sub.Substitute(markup, Data{"title": "clone"}, Address{Node: "card", Instance: "a", Clone: "c2"}); err != nil {
		t.Fatalf("substitute: %v", err)
	}

	got, _ := sub.Substitute(markup, Data{}, Address{Node: "card", Instance: "a", Clone: "c1"})
	if got != "original" {
		t.Fatalf("clone write leaked into original address: %q", got)
	}
}

func TestSubstitute_RejectsBadData(t *testing.T) {
	sub := newTestSubstituter()
	addr := Address{Node: "n", Clone: "c"}

	cases := []struct {
		name string
		data Data
		want error
	}{
		{name: "nested object", data: Data{"a": map[string]any{"b": 1}}, want: ErrNotFlat},
		{name: "array", data: Data{"a": []any{1}}, want: ErrNotFlat},
		{name: "token in value", data: Data{"a": "idom$b"}, want: ErrTokenInData},
		{name: "token in key", data: Data{"idom$b": "x"}, want: ErrTokenInData},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := sub.Substitute("idom$a", tc.data, addr); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestParseData(t *testing.T) {
	data, err := ParseData([]byte(`{"title":"Hi","n":1.50,"ok":true,"none":null}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := map[string]string{"title": "Hi", "n": "1.50", "ok": "true", "none": ""}
	got := make(map[string]string, len(data))
	for k, v := range data {
		got[k] = Format(v)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}

	for _, raw := range []string{`[1]`, `{"a":{"b":1}}`, `{"a":[1]}`, `"x"`, `{`} {
		if _, err := ParseData([]byte(raw)); !errors.Is(err, ErrNotFlat) {
			t.Fatalf("expected ErrNotFlat for %s, got %v", raw, err)
		}
	}
}

func TestPatternTokens(t *testing.T) {
	p := MustPattern("n$")
	got := p.Tokens(`<p class="n$cls">n$title n$body n$title</p>`)
	if diff := cmp.Diff([]string{"cls", "title", "body"}, got); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
	if _, err := NewPattern("idom"); !errors.Is(err, ErrInvalidPrefix) {
		t.Fatalf("expected ErrInvalidPrefix, got %v", err)
	}
}

func TestSanitizer(t *testing.T) {
	sub := newTestSubstituter(WithSanitizer(StrictSanitizer()))
	got, err := sub.Substitute(`<p>idom$body</p>`, Data{"body": `<script>alert(1)</script>hello`}, Address{Node: "n", Clone: "c"})
	if err != nil {
		t.Fatalf("substitute: %v", err)
	}
	if strings.Contains(got, "<script>") || !strings.Contains(got, "hello") {
		t.Fatalf("expected script to be stripped, got %q", got)
	}
}

func TestRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sub := newTestSubstituter()
		key := rapid.StringMatching(`[a-z][a-z0-9_]{0,6}`).Draw(rt, "key")
		value := rapid.StringMatching(`[A-Za-z0-9 .,]{0,12}`).Draw(rt, "value")
		addr := Address{Node: "n", Instance: "i", Clone: "c"}
		markup := "<b>" + DefaultPrefix + key + "</b>"

		first, err := sub.Substitute(markup, Data{key: value}, addr)
		if err != nil {
			rt.Fatalf("substitute: %v", err)
		}
		if first != "<b>"+value+"</b>" {
			rt.Fatalf("unexpected output %q", first)
		}
		second, err := sub.Substitute(markup, Data{}, addr)
		if err != nil {
			rt.Fatalf("substitute: %v", err)
		}
		if second != first {
			rt.Fatalf("memoised output %q differs from %q", second, first)
		}
	})
}

func TestFormatNumbers(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{in: 3, want: "3"},
		{in: uint8(7), want: "7"},
		{in: 2.5, want: "2.5"},
		{in: 1e21, want: "1000000000000000000000"},
		{in: json.Number("12"), want: "12"},
		{in: false, want: "false"},
	}
	for _, tc := range cases {
		if got := Format(tc.in); got != tc.want {
			t.Fatalf("Format(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestOverlay_CommitsInWriteOrder(t *testing.T) {
	base := NewMapMemo()
	base.Set("k", "old")

	overlay := NewOverlay(base)
	sub := NewSubstituter(MustPattern(DefaultPrefix), overlay)
	got := sub.Apply("idom$k idom$n", Data{"n": "new"}, Address{Node: "card"})
	if got != " new" {
		t.Fatalf("unexpected output %q", got)
	}
	overlay.Set("k", "staged")
	if v, _ := overlay.Get("k"); v != "staged" {
		t.Fatalf("overlay should read its own writes, got %q", v)
	}
	if v, _ := base.Get("k"); v != "old" {
		t.Fatalf("base changed before commit: %q", v)
	}
	if overlay.Pending() != 2 {
		t.Fatalf("expected 2 pending writes, got %d", overlay.Pending())
	}

	overlay.Commit()
	if v, _ := base.Get("k"); v != "staged" {
		t.Fatalf("commit lost a write: %q", v)
	}
	if v, ok := base.Get(Address{Node: "card"}.Key("n")); !ok || v != "new" {
		t.Fatalf("commit lost the substituted value: %q %v", v, ok)
	}
	if overlay.Pending() != 0 {
		t.Fatalf("commit should clear the stage")
	}
}
