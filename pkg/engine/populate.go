package engine

import (
	"slices"

	"golang.org/x/net/html"

	"github.com/goliatone/go-idom/internal/dom"
	"github.com/goliatone/go-idom/pkg/ident"
	"github.com/goliatone/go-idom/pkg/token"
)

// populateRequest is a fully validated Populate call.
type populateRequest struct {
	ref      nodeRef
	data     token.Data
	settings Settings
	mode     Mode
	cloneID  string
	filled   bool
}

// placement is one new instance and where it goes.
type placement struct {
	nodes  []*html.Node
	anchor *html.Node
	// replace removes anchor once the new nodes are in.
	replace bool
	after   bool
	// whole swaps every child of the node for nodes.
	whole bool
}

// Populate creates an instance of the node prototype from data and places
// it according to settings. Nothing in the document or the data cache
// changes unless every check passes.
func (e *Engine) Populate(node *html.Node, data token.Data, settings Settings) error {
	const op = "populate"
	req, err := e.preparePopulate(op, node, data, settings)
	if err != nil {
		return err
	}

	switch req.mode {
	case ModeNode:
		return e.populateNodeOnly(op, req)
	case ModeProto:
		return e.populateProtoOnly(op, req)
	}

	values := token.NewOverlay(e.store.Values())
	name, placements, err := e.plan(op, req, values)
	if err != nil {
		return err
	}

	nodeAttrs := token.NewOverlay(e.store.NodeAttrs())
	instanceAttrs := token.NewOverlay(e.store.InstanceAttrs())

	for _, p := range placements {
		e.place(req.ref.el, p)
	}
	e.populateNodeAttributes(req, nodeAttrs)
	e.populateInstanceAttributes(req, e.matchInstances(req.ref, name), instanceAttrs, false)

	values.Commit()
	nodeAttrs.Commit()
	instanceAttrs.Commit()

	e.logger.Debug("idom: populated",
		"node", req.ref.id.String(),
		"instance", name,
		"mode", string(req.mode),
		"target", req.settings.Target,
		"clone", req.cloneID,
		"placements", len(placements),
	)
	return nil
}

// PopulateID is Populate for the element carrying nodeID.
func (e *Engine) PopulateID(nodeID string, data token.Data, settings Settings) error {
	node, err := e.Node(nodeID)
	if err != nil {
		return err
	}
	return e.Populate(node, data, settings)
}

func (e *Engine) preparePopulate(op string, node *html.Node, data token.Data, settings Settings) (populateRequest, error) {
	ref, err := e.resolve(op, node)
	if err != nil {
		return populateRequest{}, err
	}
	filled, err := e.populated(op, ref)
	if err != nil {
		return populateRequest{}, err
	}
	if data == nil {
		data = token.Data{}
	}
	if err := data.Validate(e.tokens); err != nil {
		return populateRequest{}, fail(KindData, op, ref.el, err)
	}
	mode, err := settings.validate(op, e.tokens)
	if err != nil {
		return populateRequest{}, err
	}

	req := populateRequest{
		ref:      ref,
		data:     data,
		settings: settings,
		mode:     mode,
		filled:   filled,
	}
	if ref.id.IsCloned() {
		if settings.ForClone != "" {
			return populateRequest{}, fail(KindAddressing, op, ref.el, ErrAlreadyCloned)
		}
		req.cloneID = ref.id.CloneID()
	} else {
		if settings.ForClone == "" {
			return populateRequest{}, fail(KindAddressing, op, ref.el, ErrMissingCloneID)
		}
		req.cloneID = settings.ForClone
	}

	switch mode {
	case ModeNode:
		if settings.Instance != "" || settings.Target != "" {
			return populateRequest{}, failf(KindAddressing, op, ref.el, ErrUnexpectedInstance, "mode %q", mode)
		}
		if !filled {
			return populateRequest{}, fail(KindAddressing, op, ref.el, ErrNotPopulated)
		}
	case ModeProto:
		if settings.Instance != "" {
			return populateRequest{}, failf(KindAddressing, op, ref.el, ErrUnexpectedInstance, "mode %q accepts targetInstanceName only", mode)
		}
		if !filled {
			return populateRequest{}, fail(KindAddressing, op, ref.el, ErrNotPopulated)
		}
		if settings.Target != "" && len(e.matchInstances(ref, settings.Target)) == 0 {
			return populateRequest{}, failf(KindAddressing, op, ref.el, ErrTargetNotFound, "%q", settings.Target)
		}
	}
	return req, nil
}

func (e *Engine) populateNodeOnly(op string, req populateRequest) error {
	memo := token.NewOverlay(e.store.NodeAttrs())
	e.populateNodeAttributes(req, memo)
	memo.Commit()
	e.logger.Debug("idom: node attributes populated", "node", req.ref.id.String(), "op", op)
	return nil
}

func (e *Engine) populateProtoOnly(op string, req populateRequest) error {
	memo := token.NewOverlay(e.store.InstanceAttrs())
	targets := e.matchInstances(req.ref, req.settings.Target)
	e.populateInstanceAttributes(req, targets, memo, true)
	memo.Commit()
	e.logger.Debug("idom: instance attributes populated", "node", req.ref.id.String(), "op", op, "instances", len(targets))
	return nil
}

// plan builds and link-resolves every new instance without touching the
// live document.
func (e *Engine) plan(op string, req populateRequest, values token.Memo) (string, []placement, error) {
	ref, s := req.ref, req.settings
	el := ref.el

	whole := !req.filled || (s.Target == "" && req.mode == ModeReplace)
	if whole {
		name := s.Instance
		if name == "" {
			children := dom.ElementChildren(el)
			if req.filled && len(children) == 1 && req.mode == ModeReplace {
				raw, _ := dom.Attr(children[0], e.cfg.InstanceAttr)
				name = ident.Base(raw)
			} else {
				return "", nil, fail(KindAddressing, op, el, ErrMissingInstance)
			}
		}
		if !req.filled && s.Target != "" {
			return "", nil, fail(KindAddressing, op, el, ErrNoInstances)
		}

		nodes, err := e.buildInstance(op, req, name, values, true)
		if err != nil {
			return "", nil, err
		}
		return name, []placement{{nodes: nodes, whole: true}}, nil
	}

	name := s.Instance
	if name == "" {
		if req.mode != ModeReplace {
			return "", nil, fail(KindAddressing, op, el, ErrMissingInstance)
		}
		name = s.Target
	}

	var targets []*html.Node
	if s.Target != "" {
		targets = e.matchInstances(ref, s.Target)
		if len(targets) == 0 {
			return "", nil, failf(KindAddressing, op, el, ErrTargetNotFound, "%q", s.Target)
		}
	}
	var replaced []*html.Node
	if req.mode == ModeReplace {
		replaced = targets
	}
	if e.nameTaken(ref, name, replaced) {
		return "", nil, failf(KindAddressing, op, el, ErrDuplicateInstance, "%q", name)
	}

	switch req.mode {
	case ModeReplace:
		placements := make([]placement, 0, len(targets))
		for _, target := range targets {
			nodes, err := e.buildInstance(op, req, name, values, false)
			if err != nil {
				return "", nil, err
			}
			placements = append(placements, placement{nodes: nodes, anchor: target, replace: true})
		}
		return name, placements, nil

	case ModeAppend:
		anchor := lastOf(targets)
		if anchor == nil {
			anchor = lastOf(dom.ElementChildren(el))
		}
		nodes, err := e.buildInstance(op, req, name, values, false)
		if err != nil {
			return "", nil, err
		}
		return name, []placement{{nodes: nodes, anchor: anchor, after: true}}, nil

	case ModePrepend:
		var anchor *html.Node
		if len(targets) > 0 {
			anchor = targets[0]
		} else if children := dom.ElementChildren(el); len(children) > 0 {
			anchor = children[0]
		}
		nodes, err := e.buildInstance(op, req, name, values, false)
		if err != nil {
			return "", nil, err
		}
		return name, []placement{{nodes: nodes, anchor: anchor}}, nil
	}
	return "", nil, failf(KindAddressing, op, el, ErrUnknownMode, "%q", req.mode)
}

// nameTaken reports whether an instance outside replaced already uses name.
func (e *Engine) nameTaken(ref nodeRef, name string, replaced []*html.Node) bool {
	for _, n := range e.matchInstances(ref, name) {
		if !slices.Contains(replaced, n) {
			return true
		}
	}
	return false
}

// buildInstance substitutes the prototype for name and returns detached,
// link-resolved nodes. With keepText the surrounding text nodes of the
// prototype are kept (whole replacement); otherwise only the instance
// element is returned.
func (e *Engine) buildInstance(op string, req populateRequest, name string, values token.Memo, keepText bool) ([]*html.Node, error) {
	ref := req.ref
	addr := token.Address{Node: ref.key(), Instance: name, Clone: req.cloneID}
	markup := e.substituter(values).Apply(ref.entry.Prototype, req.data, addr)

	nodes, err := dom.ParseFragment(markup, ref.entry.Tag)
	if err != nil {
		return nil, fail(KindEnvironment, op, ref.el, err)
	}
	var (
		instance *html.Node
		elements int
	)
	for _, n := range nodes {
		if n.Type != html.ElementNode {
			continue
		}
		if instance == nil {
			instance = n
		}
		elements++
	}
	if elements != 1 {
		return nil, failf(KindData, op, ref.el, ErrPrototypeCount, "substituted markup has %d elements", elements)
	}

	instanceID := ident.ID{Base: name, Tags: ref.id.Suffix()}
	dom.SetAttr(instance, e.cfg.InstanceAttr, instanceID.String())

	if err := e.resolveLinks(op, instance, instanceID); err != nil {
		return nil, err
	}
	e.mapNestedAttributes(instance)

	if keepText {
		return nodes, nil
	}
	return []*html.Node{instance}, nil
}

func (e *Engine) place(parent *html.Node, p placement) {
	switch {
	case p.whole:
		dom.ReplaceChildren(parent, p.nodes)
	case p.anchor == nil:
		for _, n := range p.nodes {
			parent.AppendChild(n)
		}
	case p.after:
		next := p.anchor.NextSibling
		for _, n := range p.nodes {
			parent.InsertBefore(n, next)
		}
	default:
		for _, n := range p.nodes {
			parent.InsertBefore(n, p.anchor)
		}
		if p.replace {
			parent.RemoveChild(p.anchor)
		}
	}
}

func lastOf(nodes []*html.Node) *html.Node {
	if len(nodes) == 0 {
		return nil
	}
	return nodes[len(nodes)-1]
}
