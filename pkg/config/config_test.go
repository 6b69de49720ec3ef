package config

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultsValidate(t *testing.T) {
	for name, cfg := range map[string]Config{"idom": Default(), "natty": Natty()} {
		if err := cfg.Validate(); err != nil {
			t.Fatalf("%s preset invalid: %v", name, err)
		}
	}
}

func TestParse_YAMLOverridesPreset(t *testing.T) {
	data := []byte(`
preset: natty
tokenPrefix: v$
forbiddenAttrs: [id, name]
`)
	cfg, err := Parse(data, "idom.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := Natty()
	want.TokenPrefix = "v$"
	want.ForbiddenAttrs = []string{"id", "name"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_JSON(t *testing.T) {
	cfg, err := Parse([]byte(`{"linkMarker":"@tpl"}`), "idom.json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.LinkMarker != "@tpl" || cfg.TokenPrefix != "idom$" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown preset":     `preset: mustache`,
		"prefix without $":   `tokenPrefix: idom`,
		"node attr mismatch": `nodeAttr: data-node`,
		"same prefixes":      `presetPrefix: idom$`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(raw), "bad.yaml"); !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}

	if _, err := Parse([]byte("  "), "empty.yaml"); err == nil {
		t.Fatalf("expected error for empty file")
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"conf/idom.yml": {Data: []byte("preset: idom\nattrPrefix: idom-\n")},
	}
	cfg, err := LoadFS(fsys, "conf/idom.yml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}
