package engine

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"

	"golang.org/x/net/html"

	"github.com/goliatone/go-idom/internal/dom"
	"github.com/goliatone/go-idom/pkg/config"
	"github.com/goliatone/go-idom/pkg/ident"
	"github.com/goliatone/go-idom/pkg/store"
	"github.com/goliatone/go-idom/pkg/token"
)

// Option customises an Engine.
type Option func(*Engine)

// WithConfig overrides the markup conventions.
func WithConfig(cfg config.Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithStore injects the store holding cached prototypes and memoised data.
func WithStore(s *store.Store) Option {
	return func(e *Engine) {
		if s != nil {
			e.store = s
		}
	}
}

// WithLogger sets the logger used for debug records.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithExtension registers the DOM extension adapter consulted while caching.
func WithExtension(ext Extension) Option {
	return func(e *Engine) {
		if ext != nil {
			e.ext = ext
		}
	}
}

// WithSanitizer passes string data values through s before substitution.
func WithSanitizer(s token.Sanitizer) Option {
	return func(e *Engine) {
		e.sanitizer = s
	}
}

// Engine caches the nodes of one document and runs every node operation
// against it. An Engine is not safe for concurrent use; callers serialise
// access the way a browser event loop would.
type Engine struct {
	doc       *html.Node
	cfg       config.Config
	store     *store.Store
	logger    *slog.Logger
	ext       Extension
	sanitizer token.Sanitizer

	tokens   *token.Pattern
	presets  *token.Pattern
	markerRe *regexp.Regexp

	initialiseErr error
}

// New constructs an Engine for doc. Configuration problems are reported by
// the first operation, so construction never fails.
func New(doc *html.Node, options ...Option) *Engine {
	e := &Engine{
		doc: doc,
		cfg: config.Default(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	e.applyDefaults()
	return e
}

func (e *Engine) applyDefaults() {
	if e.store == nil {
		e.store = store.New()
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if e.ext == nil {
		e.ext = NopExtension{}
	}

	if err := e.cfg.Validate(); err != nil {
		e.initialiseErr = fail(KindEnvironment, "init", nil, err)
		return
	}
	tokens, err := token.NewPattern(e.cfg.TokenPrefix)
	if err != nil {
		e.initialiseErr = fail(KindEnvironment, "init", nil, err)
		return
	}
	presets, err := token.NewPattern(e.cfg.PresetPrefix)
	if err != nil {
		e.initialiseErr = fail(KindEnvironment, "init", nil, err)
		return
	}
	e.tokens = tokens
	e.presets = presets
	e.markerRe = regexp.MustCompile(regexp.QuoteMeta(e.cfg.LinkMarker) + `\s+(\S+)`)
}

// Document returns the root node the engine operates on.
func (e *Engine) Document() *html.Node {
	return e.doc
}

// Config returns the active conventions.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// Store exposes the underlying store.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Pattern returns the token pattern for node prototypes.
func (e *Engine) Pattern() *token.Pattern {
	return e.tokens
}

// Cached reports whether the cache pass has completed.
func (e *Engine) Cached() bool {
	return e.store.Done()
}

// Nodes lists the cached node ids.
func (e *Engine) Nodes() []string {
	return e.store.IDs()
}

// Reset forgets every cached prototype and memoised value. The live
// document is left as is; a following Cache call caches it afresh.
func (e *Engine) Reset() {
	e.store.Reset()
	e.logger.Debug("idom: store reset")
}

// Node finds the element whose node attribute equals nodeID exactly.
func (e *Engine) Node(nodeID string) (*html.Node, error) {
	if e.doc == nil {
		return nil, fail(KindEnvironment, "lookup", nil, ErrUnsupportedDocument)
	}
	n := dom.FindFirst(e.doc, dom.AttrEquals(e.cfg.NodeAttr, nodeID))
	if n == nil {
		return nil, failf(KindAddressing, "lookup", nil, ErrNodeNotFound, "%q", nodeID)
	}
	return n, nil
}

func (e *Engine) substituter(memo token.Memo) *token.Substituter {
	var options []token.Option
	if e.sanitizer != nil {
		options = append(options, token.WithSanitizer(e.sanitizer))
	}
	return token.NewSubstituter(e.tokens, memo, options...)
}

// nodeRef is a resolved, cached node element.
type nodeRef struct {
	el    *html.Node
	id    ident.ID
	entry store.Entry
}

// key is the memo namespace for the node: its id without clone provenance.
// Clone ids travel in their own address slot.
func (r nodeRef) key() string {
	return r.id.WithoutClone().String()
}

func (e *Engine) resolve(op string, n *html.Node) (nodeRef, error) {
	if e.initialiseErr != nil {
		return nodeRef{}, e.initialiseErr
	}
	if !e.store.Done() {
		return nodeRef{}, fail(KindEnvironment, op, nil, ErrCacheNotRun)
	}
	if !dom.IsElement(n) {
		return nodeRef{}, fail(KindEnvironment, op, nil, ErrNotANode)
	}
	raw, ok := dom.Attr(n, e.cfg.NodeAttr)
	if !ok {
		return nodeRef{}, fail(KindEnvironment, op, n, ErrNotANode)
	}
	id, err := ident.Parse(raw)
	if err != nil {
		return nodeRef{}, fail(KindStructure, op, n, fmt.Errorf("%w: %v", ErrInvalidNodeID, err))
	}
	entry, ok := e.store.Entry(id.Base)
	if !ok {
		return nodeRef{}, failf(KindEnvironment, op, n, ErrNodeNotCached, "%q", id.Base)
	}
	return nodeRef{el: n, id: id, entry: entry}, nil
}
