package engine

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-idom/internal/dom"
	"github.com/goliatone/go-idom/pkg/ident"
)

type linkSplice struct {
	marker *html.Node
	copy   *html.Node
}

// resolveLinks replaces every marker comment inside the detached instance
// with a copy of the referenced node's populated state. Copies are built
// first so a failing marker leaves the instance untouched.
func (e *Engine) resolveLinks(op string, instance *html.Node, host ident.ID) error {
	markers := dom.Comments(instance, true)
	if len(markers) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(markers))
	splices := make([]linkSplice, 0, len(markers))
	for _, marker := range markers {
		match := e.markerRe.FindStringSubmatch(marker.Data)
		if match == nil {
			continue
		}
		target := match[1]
		if strings.Contains(target, ident.Separator) || !ident.ValidBase(target) {
			return failf(KindGraph, op, marker.Parent, ErrInvalidLinkID, "%q", target)
		}
		if _, dup := seen[target]; dup {
			return failf(KindGraph, op, marker.Parent, ErrDuplicateLink, "%q in %q", target, host.String())
		}
		seen[target] = struct{}{}

		linked, err := e.linkCopy(op, marker, target, host)
		if err != nil {
			return err
		}
		splices = append(splices, linkSplice{marker: marker, copy: linked})
	}

	for _, s := range splices {
		s.marker.Parent.InsertBefore(s.copy, s.marker)
		dom.Detach(s.marker)
	}
	if len(splices) > 0 {
		e.logger.Debug("idom: links resolved", "host", host.String(), "count", len(splices))
	}
	return nil
}

func (e *Engine) linkCopy(op string, marker *html.Node, target string, host ident.ID) (*html.Node, error) {
	entry, ok := e.store.Entry(target)
	if !ok {
		return nil, failf(KindGraph, op, marker.Parent, ErrLinkNotCached, "%q", target)
	}
	source := dom.FindFirst(e.doc, dom.AttrEquals(e.cfg.NodeAttr, target))
	if source == nil {
		return nil, failf(KindGraph, op, marker.Parent, ErrLinkNotFound, "%q", target)
	}
	if e.markerRe.MatchString(entry.Prototype) {
		return nil, failf(KindGraph, op, source, ErrRecursiveLink, "%q", target)
	}
	filled, err := e.populated(op, nodeRef{el: source, id: ident.New(target), entry: entry})
	if err != nil {
		return nil, err
	}
	if !filled {
		return nil, failf(KindGraph, op, source, ErrLinkNotPopulated, "%q", target)
	}

	linked := dom.Clone(source)
	dom.SetAttr(linked, e.cfg.NodeAttr, ident.New(target).WithLink(host).String())
	for _, child := range dom.ElementChildren(linked) {
		raw, ok := dom.Attr(child, e.cfg.InstanceAttr)
		if !ok {
			continue
		}
		id, err := ident.Parse(raw)
		if err != nil {
			return nil, fail(KindStructure, op, source, ErrCorrupted)
		}
		dom.SetAttr(child, e.cfg.InstanceAttr, id.WithLink(host).String())
	}
	return linked, nil
}
