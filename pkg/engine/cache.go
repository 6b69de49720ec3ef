package engine

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-idom/internal/dom"
	"github.com/goliatone/go-idom/pkg/ident"
	"github.com/goliatone/go-idom/pkg/store"
	"github.com/goliatone/go-idom/pkg/token"
)

type staged struct {
	el       *html.Node
	entry    store.Entry
	comments []*html.Node
}

// Cache scans the document for nodes, validates them and stores their
// virgin markup. It runs once: later calls return nil without touching the
// store, since the document has diverged from its cached state by then.
//
// presets, when non-empty, fill preset-prefixed placeholders across the
// whole document before anything is cached.
//
// Every node is validated before anything is stored, so a failing pass
// leaves the store empty. Presets are already applied at that point.
func (e *Engine) Cache(presets token.Data) error {
	const op = "cache"
	if e.initialiseErr != nil {
		return e.initialiseErr
	}
	if e.store.Done() {
		e.logger.Debug("idom: cache already done")
		return nil
	}
	if err := e.checkEnvironment(); err != nil {
		return err
	}

	if len(presets) > 0 {
		if err := e.applyPresets(presets); err != nil {
			return err
		}
	}

	candidates := dom.FindAll(e.doc, dom.HasAttr(e.cfg.NodeAttr))
	seen := make(map[string]struct{}, len(candidates))
	pending := make([]staged, 0, len(candidates))
	for _, el := range candidates {
		item, err := e.inspect(el, seen)
		if err != nil {
			return err
		}
		seen[item.entry.NodeID] = struct{}{}
		pending = append(pending, item)
	}

	for _, item := range pending {
		for _, c := range item.comments {
			dom.Detach(c)
		}
		prototype, err := dom.InnerHTML(item.el)
		if err != nil {
			return fail(KindEnvironment, op, item.el, err)
		}
		item.entry.Prototype = prototype
		if err := e.store.Put(item.entry); err != nil {
			return fail(KindStructure, op, item.el, fmt.Errorf("%w: %v", ErrDuplicateNodeID, err))
		}
	}

	e.store.MarkDone()
	e.logger.Debug("idom: cache done", "nodes", len(pending))
	return nil
}

func (e *Engine) checkEnvironment() error {
	if e.doc == nil || e.doc.Type != html.DocumentNode {
		return fail(KindEnvironment, "cache", nil, ErrUnsupportedDocument)
	}
	if dom.Element(e.doc, "html") == nil {
		return fail(KindEnvironment, "cache", nil, ErrUnsupportedDocument)
	}
	return nil
}

func (e *Engine) applyPresets(presets token.Data) error {
	const op = "cache"
	if err := presets.Validate(e.presets); err != nil {
		return fail(KindData, op, nil, err)
	}
	if err := presets.Validate(e.tokens); err != nil {
		return fail(KindData, op, nil, err)
	}

	markup, err := dom.Render(e.doc)
	if err != nil {
		return fail(KindEnvironment, op, nil, err)
	}
	sub := token.NewSubstituter(e.presets, token.NewMapMemo())
	filled := sub.Apply(markup, presets, token.Address{})

	parsed, err := dom.ParseString(filled)
	if err != nil {
		return fail(KindEnvironment, op, nil, err)
	}
	var children []*html.Node
	for c := parsed.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, c)
	}
	dom.ReplaceChildren(e.doc, children)
	e.logger.Debug("idom: presets applied", "keys", presets.Keys())
	return nil
}

func (e *Engine) inspect(el *html.Node, seen map[string]struct{}) (staged, error) {
	const op = "cache"
	cfg := e.cfg

	nid, _ := dom.Attr(el, cfg.NodeAttr)
	switch {
	case strings.TrimSpace(nid) == "":
		return staged{}, fail(KindStructure, op, el, ErrEmptyNodeID)
	case e.tokens.Contains(nid) || e.presets.Contains(nid):
		return staged{}, fail(KindStructure, op, el, ErrTokenInNodeID)
	case strings.Contains(nid, ident.Separator):
		return staged{}, fail(KindStructure, op, el, ErrReservedInNodeID)
	case !ident.ValidBase(nid):
		return staged{}, failf(KindStructure, op, el, ErrInvalidNodeID, "%q", nid)
	}
	if _, dup := seen[nid]; dup {
		return staged{}, failf(KindStructure, op, el, ErrDuplicateNodeID, "%q", nid)
	}
	if slices.Contains(cfg.UnsupportedTags, el.Data) {
		return staged{}, failf(KindStructure, op, el, ErrUnsupportedElement, "<%s>", el.Data)
	}

	children := dom.ElementChildren(el)
	if len(children) != 1 {
		return staged{}, failf(KindStructure, op, el, ErrPrototypeCount, "found %d", len(children))
	}
	proto := children[0]

	if e.ext.Bound(el) || e.ext.Bound(proto) {
		return staged{}, failf(KindStructure, op, el, ErrExtensionBound, "%s", e.ext.Name())
	}

	comments := dom.Comments(el, false)
	for _, c := range comments {
		if e.markerRe.MatchString(c.Data) {
			return staged{}, fail(KindStructure, op, el, ErrMarkerOutsidePrototype)
		}
	}

	if nested := dom.FindFirst(el, dom.HasAttr(cfg.NodeAttr)); nested != nil {
		return staged{}, fail(KindStructure, op, nested, ErrNestedNode)
	}
	if err := e.checkAttributes(el); err != nil {
		return staged{}, err
	}

	entry := store.Entry{
		NodeID:     nid,
		Tag:        el.Data,
		ProtoAttrs: proto.Attr,
	}
	for _, attr := range el.Attr {
		if attr.Namespace == "" && attr.Key == cfg.NodeAttr {
			continue
		}
		entry.NodeAttrs = append(entry.NodeAttrs, attr)
	}
	return staged{el: el, entry: entry, comments: comments}, nil
}

// checkAttributes enforces the attribute rules on the node element and every
// descendant element.
func (e *Engine) checkAttributes(el *html.Node) error {
	if err := e.checkElementAttributes(el); err != nil {
		return err
	}
	var err error
	dom.Walk(el, func(n *html.Node) bool {
		if err != nil {
			return false
		}
		if n.Type == html.ElementNode {
			err = e.checkElementAttributes(n)
		}
		return err == nil
	})
	return err
}

func (e *Engine) checkElementAttributes(n *html.Node) error {
	const op = "cache"
	cfg := e.cfg
	for _, attr := range n.Attr {
		key := attr.Key
		if attr.Namespace != "" {
			key = attr.Namespace + ":" + attr.Key
		}
		switch {
		case slices.Contains(cfg.ForbiddenAttrs, key):
			return failf(KindStructure, op, n, ErrForbiddenAttr, "%q; query nodes by %s or instances by %s", key, cfg.NodeAttr, cfg.InstanceAttr)
		case key == cfg.InstanceAttr:
			return fail(KindStructure, op, n, ErrInstanceAttrAtCache)
		case !strings.HasPrefix(key, cfg.AttrPrefix) || key == cfg.AttrPrefix:
			return failf(KindStructure, op, n, ErrUnprefixedAttr, "%q should be %q", key, cfg.AttrPrefix+key)
		}
	}
	return nil
}
