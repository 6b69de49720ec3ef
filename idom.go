package idom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-idom/internal/dom"
	"github.com/goliatone/go-idom/pkg/engine"
	"github.com/goliatone/go-idom/pkg/token"
)

// Engine aliases engine.Engine so callers can work from the root package.
type Engine = engine.Engine

// Option aliases engine.Option.
type Option = engine.Option

// Settings controls a populate call.
type Settings = engine.Settings

// Data is the flat key/value payload substituted into prototypes.
type Data = token.Data

// Mode selects where a new instance is placed.
type Mode = engine.Mode

// Target is the event context resolved inside a cloned node.
type Target = engine.Target

// Error is the error type returned by engine operations.
type Error = engine.Error

// Placement modes accepted in Settings.Mode.
const (
	ModeReplace = engine.ModeReplace
	ModeAppend  = engine.ModeAppend
	ModeAfter   = engine.ModeAfter
	ModePrepend = engine.ModePrepend
	ModeBefore  = engine.ModeBefore
	ModeNode    = engine.ModeNode
	ModeProto   = engine.ModeProto
)

// New wraps an already parsed document. Cache must be called before any
// node operation.
func New(doc *html.Node, options ...Option) *Engine {
	return engine.New(doc, options...)
}

// Load parses an HTML document and caches its nodes. It is the simplest
// entry point for callers holding markup rather than a parsed tree.
func Load(r io.Reader, options ...Option) (*Engine, error) {
	return LoadWithPresets(r, nil, options...)
}

// LoadString is Load for in-memory markup.
func LoadString(markup string, options ...Option) (*Engine, error) {
	return Load(strings.NewReader(markup), options...)
}

// LoadWithPresets is Load with document-wide preset values filled in
// before caching.
func LoadWithPresets(r io.Reader, presets Data, options ...Option) (*Engine, error) {
	doc, err := dom.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("idom: load: %w", err)
	}
	e := engine.New(doc, options...)
	if err := e.Cache(presets); err != nil {
		return nil, err
	}
	return e, nil
}

// Render serialises the engine's current document.
func Render(e *Engine) (string, error) {
	if e == nil {
		return "", fmt.Errorf("idom: render: nil engine")
	}
	return dom.Render(e.Document())
}

// RenderNode serialises a single node, for example a detached clone.
func RenderNode(n *html.Node) (string, error) {
	return dom.Render(n)
}

// ParseData decodes a flat JSON object.
func ParseData(raw []byte) (Data, error) {
	return token.ParseData(raw)
}

// ParseSettings decodes populate settings from a flat JSON object.
func ParseSettings(raw []byte) (Settings, error) {
	return engine.ParseSettings(raw)
}

// WithConfig, WithLogger and the remaining options are re-exported so the
// root package covers the common setup without extra imports.
var (
	WithConfig    = engine.WithConfig
	WithStore     = engine.WithStore
	WithLogger    = engine.WithLogger
	WithExtension = engine.WithExtension
	WithSanitizer = engine.WithSanitizer
)
