package engine

import (
	"golang.org/x/net/html"

	"github.com/goliatone/go-idom/internal/dom"
	"github.com/goliatone/go-idom/pkg/ident"
)

// Target is the context an event handler receives: the nearest node above
// the triggering element, the instance it sits in, and the clone id.
type Target struct {
	Node     ident.ID
	Instance ident.ID
	Clone    string

	NodeElement     *html.Node
	InstanceElement *html.Node
}

// HandlerFunc handles an event raised inside a cloned node.
type HandlerFunc func(event any, target Target) error

// Resolve walks up from el to the nearest node. It reads the live tree on
// every call and works on detached subtrees; ErrNotFound is returned when no
// ancestor carries a node id.
func (e *Engine) Resolve(el *html.Node) (Target, error) {
	const op = "event"
	if e.initialiseErr != nil {
		return Target{}, e.initialiseErr
	}

	var (
		target  Target
		foundAt *html.Node
	)
	for n := el; n != nil; n = n.Parent {
		if !dom.IsElement(n) {
			continue
		}
		if raw, ok := dom.Attr(n, e.cfg.NodeAttr); ok {
			id, err := ident.Parse(raw)
			if err != nil {
				return Target{}, fail(KindStructure, op, n, ErrInvalidNodeID)
			}
			target.Node = id
			target.NodeElement = n
			foundAt = n
			break
		}
		if target.InstanceElement != nil {
			continue
		}
		if raw, ok := dom.Attr(n, e.cfg.InstanceAttr); ok {
			id, err := ident.Parse(raw)
			if err != nil {
				return Target{}, fail(KindStructure, op, n, ErrCorrupted)
			}
			target.Instance = id
			target.InstanceElement = n
		}
	}
	if foundAt == nil {
		return Target{}, fail(KindGraph, op, el, ErrNotFound)
	}
	if !target.Node.IsCloned() {
		return Target{}, failf(KindGraph, op, foundAt, ErrNotCloned, "%q", target.Node.String())
	}
	target.Clone = target.Node.CloneID()
	return target, nil
}

// Dispatch resolves the context of el and hands it to fn.
func (e *Engine) Dispatch(el *html.Node, event any, fn HandlerFunc) error {
	target, err := e.Resolve(el)
	if err != nil {
		return err
	}
	if fn == nil {
		return nil
	}
	return fn(event, target)
}
