package engine

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-idom/pkg/ident"
	"github.com/goliatone/go-idom/pkg/token"
)

// Mode selects how Populate places the new instance.
type Mode string

const (
	// ModeReplace replaces every instance, or every instance matching
	// the target. It is the default.
	ModeReplace Mode = "replace"
	// ModeAppend inserts after the last matching instance.
	ModeAppend Mode = "append"
	// ModeAfter is an alias of ModeAppend.
	ModeAfter Mode = "after"
	// ModePrepend inserts before the first matching instance.
	ModePrepend Mode = "prepend"
	// ModeBefore is an alias of ModePrepend.
	ModeBefore Mode = "before"
	// ModeNode populates only the node's own attributes.
	ModeNode Mode = "node"
	// ModeProto populates only the attributes of existing instances.
	ModeProto Mode = "proto"
)

// ParseMode normalises a mode string. The empty string means replace.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeReplace:
		return ModeReplace, nil
	case ModeAppend, ModeAfter:
		return ModeAppend, nil
	case ModePrepend, ModeBefore:
		return ModePrepend, nil
	case ModeNode:
		return ModeNode, nil
	case ModeProto:
		return ModeProto, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, raw)
}

// Settings controls a Populate call. All identifiers are base names; link
// and clone provenance is inferred from the node.
type Settings struct {
	Mode     Mode   `json:"mode,omitempty"`
	Instance string `json:"instanceName,omitempty"`
	Target   string `json:"targetInstanceName,omitempty"`
	ForClone string `json:"forClone,omitempty"`
}

var settingsKeys = map[string]func(*Settings, string){
	"mode":               func(s *Settings, v string) { s.Mode = Mode(v) },
	"instanceName":       func(s *Settings, v string) { s.Instance = v },
	"targetInstanceName": func(s *Settings, v string) { s.Target = v },
	"forClone":           func(s *Settings, v string) { s.ForClone = v },
}

// ParseSettings decodes settings from a flat JSON object.
func ParseSettings(raw []byte) (Settings, error) {
	data, err := token.ParseData(raw)
	if err != nil {
		return Settings{}, fail(KindData, "settings", nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err))
	}
	return SettingsFromData(data)
}

// SettingsFromData reads settings out of an already decoded flat object.
// Unknown keys are rejected.
func SettingsFromData(data token.Data) (Settings, error) {
	var s Settings
	for _, key := range data.Keys() {
		assign, ok := settingsKeys[key]
		if !ok {
			return Settings{}, failf(KindData, "settings", nil, ErrInvalidSettings, "unknown key %q", key)
		}
		switch v := data[key].(type) {
		case nil:
		case string:
			assign(&s, v)
		default:
			return Settings{}, failf(KindData, "settings", nil, ErrInvalidSettings, "%q must be a string, got %T", key, v)
		}
	}
	return s, nil
}

// validate checks settings values and returns the normalised mode.
func (s Settings) validate(op string, tokens *token.Pattern) (Mode, error) {
	values := map[string]string{
		"mode":               string(s.Mode),
		"instanceName":       s.Instance,
		"targetInstanceName": s.Target,
		"forClone":           s.ForClone,
	}
	for _, key := range []string{"mode", "instanceName", "targetInstanceName", "forClone"} {
		value := values[key]
		if tokens.Contains(value) {
			return "", failf(KindData, op, nil, ErrTokenInSettings, "%s", key)
		}
		if strings.Contains(value, ident.Separator) {
			return "", failf(KindData, op, nil, ErrReservedInSettings, "%s=%q; pass ident.Base(%q)", key, value, value)
		}
		if key != "mode" && value != "" && !ident.ValidBase(value) {
			return "", failf(KindData, op, nil, ErrInvalidSettings, "%s=%q must match [A-Za-z0-9_]+", key, value)
		}
	}

	mode, err := ParseMode(string(s.Mode))
	if err != nil {
		return "", fail(KindAddressing, op, nil, err)
	}
	return mode, nil
}
