package engine

import (
	"golang.org/x/net/html"

	"github.com/goliatone/go-idom/internal/dom"
	"github.com/goliatone/go-idom/pkg/ident"
)

// Clone returns a detached deep copy of a populated node in which every node
// id and instance id, linked copies included, carries the clone segment for
// cloneID. The caller decides where the copy goes.
func (e *Engine) Clone(node *html.Node, cloneID string) (*html.Node, error) {
	const op = "clone"
	if cloneID == "" {
		return nil, fail(KindAddressing, op, node, ErrMissingCloneID)
	}
	if !ident.ValidBase(cloneID) {
		return nil, failf(KindAddressing, op, node, ErrInvalidCloneID, "%q", cloneID)
	}
	ref, err := e.resolve(op, node)
	if err != nil {
		return nil, err
	}
	if ref.id.IsLinked() {
		return nil, failf(KindGraph, op, ref.el, ErrCloneLinked, "%q", ref.id.String())
	}
	if ref.id.IsCloned() {
		return nil, failf(KindGraph, op, ref.el, ErrCloneCloned, "%q", ref.id.String())
	}
	filled, err := e.populated(op, ref)
	if err != nil {
		return nil, err
	}
	if !filled {
		return nil, fail(KindAddressing, op, ref.el, ErrNotPopulated)
	}

	copied := dom.Clone(ref.el)
	var rewriteErr error
	rewrite := func(n *html.Node, key string) {
		raw, ok := dom.Attr(n, key)
		if !ok || rewriteErr != nil {
			return
		}
		id, err := ident.Parse(raw)
		if err != nil {
			rewriteErr = fail(KindStructure, op, ref.el, ErrCorrupted)
			return
		}
		dom.SetAttr(n, key, id.WithClone(cloneID).String())
	}
	rewrite(copied, e.cfg.NodeAttr)
	dom.Walk(copied, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			rewrite(n, e.cfg.NodeAttr)
			rewrite(n, e.cfg.InstanceAttr)
		}
		return rewriteErr == nil
	})
	if rewriteErr != nil {
		return nil, rewriteErr
	}

	e.logger.Debug("idom: cloned", "node", ref.id.String(), "clone", cloneID)
	return copied, nil
}

// CloneID is Clone for the element carrying nodeID.
func (e *Engine) CloneID(nodeID, cloneID string) (*html.Node, error) {
	node, err := e.Node(nodeID)
	if err != nil {
		return nil, err
	}
	return e.Clone(node, cloneID)
}
