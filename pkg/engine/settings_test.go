package engine

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{
		"":        ModeReplace,
		"replace": ModeReplace,
		"after":   ModeAppend,
		"Append":  ModeAppend,
		"before":  ModePrepend,
		"prepend": ModePrepend,
		"node":    ModeNode,
		"proto":   ModeProto,
	}
	for raw, want := range cases {
		got, err := ParseMode(raw)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v; want %q", raw, got, err, want)
		}
	}
	if _, err := ParseMode("sideways"); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestParseSettings(t *testing.T) {
	got, err := ParseSettings([]byte(`{"mode":"after","instanceName":"b","targetInstanceName":"a","forClone":"c1"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := Settings{Mode: ModeAfter, Instance: "b", Target: "a", ForClone: "c1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSettings_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown key": `{"instance":"a"}`,
		"non string":  `{"forClone":1}`,
		"nested":      `{"mode":{"x":1}}`,
		"not object":  `["a"]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSettings([]byte(raw))
			if !errors.Is(err, ErrInvalidSettings) {
				t.Fatalf("expected ErrInvalidSettings, got %v", err)
			}
			if KindOf(err) != KindData {
				t.Fatalf("expected data error, got %q", KindOf(err))
			}
		})
	}
}
