// Package prompt asks for populate input on the terminal: the node, the
// mode and a value for every token in the node prototype.
package prompt

import (
	"context"
	"fmt"

	"github.com/goliatone/go-idom/pkg/engine"
	"github.com/goliatone/go-idom/pkg/ident"
	"github.com/goliatone/go-idom/pkg/token"
)

var modes = []engine.Mode{
	engine.ModeReplace,
	engine.ModeAppend,
	engine.ModePrepend,
	engine.ModeNode,
	engine.ModeProto,
}

// Node asks which cached node to work on. A single node is returned
// without asking.
func Node(ctx context.Context, d Driver, nodes []string) (string, error) {
	switch len(nodes) {
	case 0:
		return "", fmt.Errorf("prompt: document has no nodes")
	case 1:
		return nodes[0], nil
	}
	idx, err := d.Select(ctx, SelectConfig{Message: "Node", Options: nodes})
	if err != nil {
		return "", err
	}
	if idx < 0 {
		return "", fmt.Errorf("prompt: no node selected")
	}
	return nodes[idx], nil
}

// Settings asks for the populate settings, starting from current.
func Settings(ctx context.Context, d Driver, current engine.Settings) (engine.Settings, error) {
	options := make([]string, len(modes))
	def := 0
	for i, m := range modes {
		options[i] = string(m)
		if m == current.Mode {
			def = i
		}
	}
	idx, err := d.Select(ctx, SelectConfig{Message: "Mode", Options: options, DefaultIndex: def})
	if err != nil {
		return current, err
	}
	if idx >= 0 {
		current.Mode = modes[idx]
	}

	ask := func(message, value string) (string, error) {
		return d.Input(ctx, InputConfig{
			Message:   message,
			Default:   value,
			Validator: validBaseOrEmpty,
		})
	}
	if current.Mode != engine.ModeNode && current.Mode != engine.ModeProto {
		if current.Instance, err = ask("Instance name", current.Instance); err != nil {
			return current, err
		}
	}
	if current.Mode != engine.ModeNode {
		if current.Target, err = ask("Target instance (blank for none)", current.Target); err != nil {
			return current, err
		}
	}
	return current, nil
}

// Data asks for a value per key in order. Keys already present in defaults
// are offered as the default answer. A blank answer leaves the key out, so
// the memoised value is reused.
func Data(ctx context.Context, d Driver, keys []string, defaults token.Data) (token.Data, error) {
	out := make(token.Data, len(keys))
	for _, key := range keys {
		def := ""
		if v, ok := defaults[key]; ok {
			def = token.Format(v)
		}
		answer, err := d.Input(ctx, InputConfig{
			Message: key,
			Default: def,
			Help:    "leave blank to keep the previous value",
		})
		if err != nil {
			return nil, err
		}
		if answer != "" {
			out[key] = answer
		}
	}
	return out, nil
}

func validBaseOrEmpty(s string) error {
	if s == "" || ident.ValidBase(s) {
		return nil
	}
	return fmt.Errorf("use letters, digits and underscores only")
}
