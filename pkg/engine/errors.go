package engine

import (
	"errors"
	"fmt"

	"golang.org/x/net/html"

	"github.com/goliatone/go-idom/internal/dom"
)

// Kind classifies a failure.
type Kind string

const (
	// KindEnvironment covers documents the engine cannot work with.
	KindEnvironment Kind = "environment"
	// KindStructure covers malformed nodes, found while caching or when a
	// node was corrupted afterwards.
	KindStructure Kind = "structure"
	// KindData covers data and settings payloads.
	KindData Kind = "data"
	// KindAddressing covers instance, target and clone identifiers.
	KindAddressing Kind = "addressing"
	// KindGraph covers link and clone relationships.
	KindGraph Kind = "graph"
)

// Environment errors.
var (
	ErrUnsupportedDocument = errors.New("engine: unsupported document: expected a parsed HTML document with an <html> element")
	ErrCacheNotRun         = errors.New("engine: Cache must run before nodes can be used")
	ErrNotANode            = errors.New("engine: element does not carry a node id")
	ErrNodeNotCached       = errors.New("engine: node was not cached")
	ErrNodeNotFound        = errors.New("engine: no element carries the node id")
)

// Structure errors.
var (
	ErrEmptyNodeID            = errors.New("engine: node id must be a non-empty string")
	ErrTokenInNodeID          = errors.New("engine: node id must not contain a placeholder token")
	ErrReservedInNodeID       = errors.New("engine: node id must not contain @ at caching time")
	ErrInvalidNodeID          = errors.New("engine: node id must match [A-Za-z0-9_]+")
	ErrDuplicateNodeID        = errors.New("engine: node id is in use by another node")
	ErrUnsupportedElement     = errors.New("engine: element type is not supported as a node")
	ErrPrototypeCount         = errors.New("engine: at caching time a node must contain exactly one child element, its node prototype")
	ErrExtensionBound         = errors.New("engine: an extension is bound to the node or its prototype; bind extensions to populated instances of a clone instead")
	ErrMarkerOutsidePrototype = errors.New("engine: linked node markers must be placed inside the node prototype")
	ErrNestedNode             = errors.New("engine: a node must not have descendants with a node id at caching time; link other nodes with a marker comment instead")
	ErrForbiddenAttr          = errors.New("engine: attribute is not allowed inside a node")
	ErrInstanceAttrAtCache    = errors.New("engine: instance ids are assigned automatically and must not be present at caching time")
	ErrUnprefixedAttr         = errors.New("engine: every attribute inside a node must carry the attribute prefix")
	ErrCorrupted              = errors.New("engine: node structure has been corrupted: an instance lost its instance id")
)

// Data errors.
var (
	ErrInvalidSettings    = errors.New("engine: invalid settings")
	ErrTokenInSettings    = errors.New("engine: settings must not contain placeholder tokens")
	ErrReservedInSettings = errors.New("engine: settings values must be base identifiers without @ references")
)

// Addressing errors.
var (
	ErrUnknownMode        = errors.New("engine: invalid or misspelled mode")
	ErrMissingCloneID     = errors.New("engine: forClone is required when populating a node that is not a clone")
	ErrAlreadyCloned      = errors.New("engine: forClone must not be set: the node is already a clone")
	ErrMissingInstance    = errors.New("engine: instanceName is required when inserting a new instance")
	ErrNoInstances        = errors.New("engine: targetInstanceName cannot be applied: the node has no populated instances")
	ErrTargetNotFound     = errors.New("engine: targetInstanceName does not match any instance of the node")
	ErrDuplicateInstance  = errors.New("engine: instanceName is already used by another instance of the node")
	ErrUnexpectedInstance = errors.New("engine: instance settings are not accepted in this mode")
	ErrNotPopulated       = errors.New("engine: the node has no populated instances")
	ErrInvalidCloneID     = errors.New("engine: clone id must match [A-Za-z0-9_]+")
)

// Graph errors.
var (
	ErrInvalidLinkID    = errors.New("engine: linked node id must be a base node id without @ references")
	ErrLinkNotCached    = errors.New("engine: linked node was not cached")
	ErrLinkNotFound     = errors.New("engine: linked node not found in the document")
	ErrLinkNotPopulated = errors.New("engine: linked node must be populated before it is linked")
	ErrDuplicateLink    = errors.New("engine: a node may be linked only once into the same host instance")
	ErrRecursiveLink    = errors.New("engine: linked nodes cannot themselves link other nodes")
	ErrCloneLinked      = errors.New("engine: a linked node cannot be cloned")
	ErrCloneCloned      = errors.New("engine: an already cloned node cannot be cloned")
	ErrNotFound         = errors.New("engine: element is not inside a node")
	ErrNotCloned        = errors.New("engine: event context is only available inside cloned nodes")
)

// Error is returned by every engine operation. It wraps one of the sentinel
// errors above (or a token/config error) so callers can use errors.Is.
type Error struct {
	Kind Kind
	Op   string
	// Path locates the offending element, when one is known.
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Err)
	if e.Path != "" {
		msg += " (at " + e.Path + ")"
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of an engine error, or "".
func KindOf(err error) Kind {
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return engineErr.Kind
	}
	return ""
}

func fail(kind Kind, op string, n *html.Node, err error) error {
	out := &Error{Kind: kind, Op: op, Err: err}
	if n != nil {
		out.Path = dom.Path(n)
	}
	return out
}

func failf(kind Kind, op string, n *html.Node, sentinel error, format string, args ...any) error {
	return fail(kind, op, n, fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...))
}
