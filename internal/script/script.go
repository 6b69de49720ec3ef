// Package script runs a list of node operations, read from YAML or JSON,
// against one engine. The CLI uses it to replay interactions that would
// normally come from page scripts.
package script

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-idom/internal/dom"
	"github.com/goliatone/go-idom/pkg/engine"
	"github.com/goliatone/go-idom/pkg/token"
)

// Ops understood by Run.
const (
	OpPopulate   = "populate"
	OpClone      = "clone"
	OpDePopulate = "depopulate"
)

var (
	// ErrInvalidScript marks a script that cannot be decoded or names an
	// unknown operation.
	ErrInvalidScript = errors.New("script: invalid script")
	// ErrAppendTarget is returned when a clone has nowhere to go.
	ErrAppendTarget = errors.New("script: clone destination not found")
)

// Step is one operation. Fields that do not apply to Op are ignored.
type Step struct {
	Op       string         `json:"op" yaml:"op"`
	Node     string         `json:"node" yaml:"node"`
	Data     map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
	Settings map[string]any `json:"settings,omitempty" yaml:"settings,omitempty"`
	Target   string         `json:"target,omitempty" yaml:"target,omitempty"`
	ID       string         `json:"id,omitempty" yaml:"id,omitempty"`
	AppendTo string         `json:"appendTo,omitempty" yaml:"appendTo,omitempty"`
}

// Script is an ordered list of steps.
type Script struct {
	Presets map[string]any `json:"presets,omitempty" yaml:"presets,omitempty"`
	Steps   []Step         `json:"steps" yaml:"steps"`
}

// Load reads a script from disk.
func Load(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("script: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// LoadFS reads a script from fsys.
func LoadFS(fsys fs.FS, path string) (Script, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return Script{}, fmt.Errorf("script: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes JSON first and falls back to YAML. source is only used in
// error messages.
func Parse(data []byte, source string) (Script, error) {
	var s Script
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&s); err != nil {
			return Script{}, fmt.Errorf("%w: %s: %v", ErrInvalidScript, source, err)
		}
	} else if err := yaml.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("%w: %s: %v", ErrInvalidScript, source, err)
	}
	for i, step := range s.Steps {
		switch step.Op {
		case OpPopulate, OpClone, OpDePopulate:
		default:
			return Script{}, fmt.Errorf("%w: %s: step %d: unknown op %q", ErrInvalidScript, source, i+1, step.Op)
		}
		if strings.TrimSpace(step.Node) == "" {
			return Script{}, fmt.Errorf("%w: %s: step %d: node is required", ErrInvalidScript, source, i+1)
		}
	}
	return s, nil
}

// Runner executes scripts.
type Runner struct {
	engine  *engine.Engine
	logger  *slog.Logger
	cloneID func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger records each step at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithCloneIDs supplies ids for clone steps that do not name one.
func WithCloneIDs(next func() string) Option {
	return func(r *Runner) {
		r.cloneID = next
	}
}

// NewRunner binds a runner to e.
func NewRunner(e *engine.Engine, options ...Option) *Runner {
	r := &Runner{engine: e, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Result reports what a run did.
type Result struct {
	Steps  int
	Clones []*html.Node
}

// Run executes the steps in order and stops at the first failure. Presets
// are applied by the caller through Cache.
func (r *Runner) Run(ctx context.Context, s Script) (Result, error) {
	var res Result
	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		clone, err := r.step(step)
		if err != nil {
			return res, fmt.Errorf("script: step %d (%s %s): %w", i+1, step.Op, step.Node, err)
		}
		if clone != nil {
			res.Clones = append(res.Clones, clone)
		}
		res.Steps++
		r.logger.Debug("idom: script step", "index", i+1, "op", step.Op, "node", step.Node)
	}
	return res, nil
}

func (r *Runner) step(step Step) (*html.Node, error) {
	switch step.Op {
	case OpPopulate:
		settings, err := engine.SettingsFromData(token.Data(step.Settings))
		if err != nil {
			return nil, err
		}
		return nil, r.engine.PopulateID(step.Node, token.Data(step.Data), settings)

	case OpDePopulate:
		return nil, r.engine.DePopulateID(step.Node, step.Target)

	case OpClone:
		id := step.ID
		if id == "" && r.cloneID != nil {
			id = r.cloneID()
		}
		clone, err := r.engine.CloneID(step.Node, id)
		if err != nil {
			return nil, err
		}
		parent, err := r.destination(step.AppendTo)
		if err != nil {
			return nil, err
		}
		parent.AppendChild(clone)
		return clone, nil
	}
	return nil, fmt.Errorf("%w: unknown op %q", ErrInvalidScript, step.Op)
}

// destination resolves appendTo: the first instance of that node, or the
// document body when empty.
func (r *Runner) destination(appendTo string) (*html.Node, error) {
	if appendTo == "" {
		body := dom.Element(r.engine.Document(), "body")
		if body == nil {
			return nil, ErrAppendTarget
		}
		return body, nil
	}
	node, err := r.engine.Node(appendTo)
	if err != nil {
		return nil, err
	}
	instances := dom.ElementChildren(node)
	populated, err := r.engine.IsPopulated(node)
	if err != nil {
		return nil, err
	}
	if !populated || len(instances) == 0 {
		return nil, fmt.Errorf("%w: %q has no instances", ErrAppendTarget, appendTo)
	}
	return instances[0], nil
}
