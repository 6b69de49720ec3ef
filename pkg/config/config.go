package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every configuration validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Config names the markup conventions the engine recognises.
type Config struct {
	// TokenPrefix marks placeholders inside node prototypes.
	TokenPrefix string `json:"tokenPrefix" yaml:"tokenPrefix"`
	// PresetPrefix marks document-wide placeholders filled once before
	// caching.
	PresetPrefix string `json:"presetPrefix" yaml:"presetPrefix"`
	// NodeAttr carries the node identifier.
	NodeAttr string `json:"nodeAttr" yaml:"nodeAttr"`
	// InstanceAttr carries the instance identifier.
	InstanceAttr string `json:"instanceAttr" yaml:"instanceAttr"`
	// AttrPrefix prefixes every templated attribute; the populated value is
	// copied to the attribute without the prefix.
	AttrPrefix string `json:"attrPrefix" yaml:"attrPrefix"`
	// LinkMarker opens a linked-node comment, as in <!-- @idom other -->.
	LinkMarker string `json:"linkMarker" yaml:"linkMarker"`
	// ForbiddenAttrs may not appear anywhere inside a node at cache time.
	ForbiddenAttrs []string `json:"forbiddenAttrs" yaml:"forbiddenAttrs"`
	// UnsupportedTags cannot act as nodes.
	UnsupportedTags []string `json:"unsupportedTags" yaml:"unsupportedTags"`
}

// Default returns the idom markup conventions.
func Default() Config {
	return Config{
		TokenPrefix:     "idom$",
		PresetPrefix:    "i$",
		NodeAttr:        "idom-node-id",
		InstanceAttr:    "idom-instance-name",
		AttrPrefix:      "idom-",
		LinkMarker:      "@idom",
		ForbiddenAttrs:  []string{"id"},
		UnsupportedTags: []string{"iframe", "script", "style", "textarea", "title", "template"},
	}
}

// Natty returns the conventions of the natty markup dialect.
func Natty() Config {
	cfg := Default()
	cfg.TokenPrefix = "n$"
	cfg.NodeAttr = "natty-node-id"
	cfg.InstanceAttr = "natty-instance-name"
	cfg.AttrPrefix = "natty-"
	cfg.LinkMarker = "@natty"
	return cfg
}

// Preset returns a named preset ("idom" or "natty").
func Preset(name string) (Config, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "idom":
		return Default(), true
	case "natty":
		return Natty(), true
	}
	return Config{}, false
}

// Validate checks that every convention is usable.
func (c Config) Validate() error {
	required := map[string]string{
		"tokenPrefix":  c.TokenPrefix,
		"presetPrefix": c.PresetPrefix,
		"nodeAttr":     c.NodeAttr,
		"instanceAttr": c.InstanceAttr,
		"attrPrefix":   c.AttrPrefix,
		"linkMarker":   c.LinkMarker,
	}
	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalid, name)
		}
	}
	for name, prefix := range map[string]string{"tokenPrefix": c.TokenPrefix, "presetPrefix": c.PresetPrefix} {
		if !strings.HasSuffix(prefix, "$") {
			return fmt.Errorf("%w: %s %q must end with $", ErrInvalid, name, prefix)
		}
	}
	if c.TokenPrefix == c.PresetPrefix {
		return fmt.Errorf("%w: tokenPrefix and presetPrefix must differ", ErrInvalid)
	}
	if !strings.HasPrefix(c.NodeAttr, c.AttrPrefix) || !strings.HasPrefix(c.InstanceAttr, c.AttrPrefix) {
		return fmt.Errorf("%w: nodeAttr and instanceAttr must start with attrPrefix %q", ErrInvalid, c.AttrPrefix)
	}
	if c.NodeAttr == c.InstanceAttr {
		return fmt.Errorf("%w: nodeAttr and instanceAttr must differ", ErrInvalid)
	}
	return nil
}

// Load reads a JSON or YAML configuration file from disk.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// LoadFS reads a JSON or YAML configuration file from fsys.
func LoadFS(fsys fs.FS, path string) (Config, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, path)
}

type file struct {
	Preset string `json:"preset" yaml:"preset"`
	Config `json:",inline" yaml:",inline"`
}

// Parse decodes JSON, falling back to YAML. A "preset" key selects the base
// conventions; other keys override it.
func Parse(data []byte, source string) (Config, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Config{}, fmt.Errorf("config: file %s is empty", source)
	}

	var raw file
	if err := json.Unmarshal(data, &raw); err != nil {
		raw = file{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: invalid JSON or YAML", source)
		}
	}

	base, ok := Preset(raw.Preset)
	if !ok {
		return Config{}, fmt.Errorf("%w: %s: unknown preset %q", ErrInvalid, source, raw.Preset)
	}
	cfg := merge(base, raw.Config)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", source, err)
	}
	return cfg, nil
}

func merge(base, override Config) Config {
	out := base
	set := func(dst *string, v string) {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			*dst = trimmed
		}
	}
	set(&out.TokenPrefix, override.TokenPrefix)
	set(&out.PresetPrefix, override.PresetPrefix)
	set(&out.NodeAttr, override.NodeAttr)
	set(&out.InstanceAttr, override.InstanceAttr)
	set(&out.AttrPrefix, override.AttrPrefix)
	set(&out.LinkMarker, override.LinkMarker)
	if override.ForbiddenAttrs != nil {
		out.ForbiddenAttrs = append([]string(nil), override.ForbiddenAttrs...)
	}
	if override.UnsupportedTags != nil {
		out.UnsupportedTags = append([]string(nil), override.UnsupportedTags...)
	}
	return out
}
