package store

import (
	"errors"
	"fmt"
	"sort"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/net/html"
)

// ErrExists is returned when an entry for a node id was already written.
var ErrExists = errors.New("store: node already cached")

// Entry is the cached, virgin state of a Node.
type Entry struct {
	NodeID string
	// Tag is the node element's tag name, used as the parsing context for
	// prototype markup.
	Tag string
	// Prototype is the node's virgin inner markup.
	Prototype string
	// NodeAttrs are the node's own attributes minus the node-id attribute.
	NodeAttrs []html.Attribute
	// ProtoAttrs are the prototype element's attributes.
	ProtoAttrs []html.Attribute
}

// NodeAttr returns the cached value of a node attribute.
func (e Entry) NodeAttr(key string) (string, bool) {
	return lookup(e.NodeAttrs, key)
}

// ProtoAttr returns the cached value of a prototype attribute.
func (e Entry) ProtoAttr(key string) (string, bool) {
	return lookup(e.ProtoAttrs, key)
}

func lookup(attrs []html.Attribute, key string) (string, bool) {
	for _, attr := range attrs {
		if attr.Namespace == "" && attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

// Store holds the template cache and the three data memo namespaces. One
// Store belongs to one engine.
type Store struct {
	entries map[string]Entry
	done    bool

	values        *Memo
	nodeAttrs     *Memo
	instanceAttrs *Memo
}

// New returns an empty store.
func New() *Store {
	s := &Store{}
	s.Reset()
	return s
}

// Reset drops every cached entry and memoised value and clears the done
// flag so the document can be cached again.
func (s *Store) Reset() {
	s.entries = make(map[string]Entry)
	s.done = false
	s.values = NewMemo()
	s.nodeAttrs = NewMemo()
	s.instanceAttrs = NewMemo()
}

// Put stores an entry. Entries are never overwritten.
func (s *Store) Put(entry Entry) error {
	if _, exists := s.entries[entry.NodeID]; exists {
		return fmt.Errorf("%w: %q", ErrExists, entry.NodeID)
	}
	entry.NodeAttrs = cloneAttrs(entry.NodeAttrs)
	entry.ProtoAttrs = cloneAttrs(entry.ProtoAttrs)
	s.entries[entry.NodeID] = entry
	return nil
}

// Entry returns the cached entry for a base node id.
func (s *Store) Entry(nodeID string) (Entry, bool) {
	entry, ok := s.entries[nodeID]
	if !ok {
		return Entry{}, false
	}
	entry.NodeAttrs = cloneAttrs(entry.NodeAttrs)
	entry.ProtoAttrs = cloneAttrs(entry.ProtoAttrs)
	return entry, true
}

// Has reports whether nodeID is cached.
func (s *Store) Has(nodeID string) bool {
	_, ok := s.entries[nodeID]
	return ok
}

// IDs lists cached node ids in sorted order.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Done reports whether the cache pass completed.
func (s *Store) Done() bool {
	return s.done
}

// MarkDone records a completed cache pass.
func (s *Store) MarkDone() {
	s.done = true
}

// Values memoises tokens substituted into instance markup.
func (s *Store) Values() *Memo {
	return s.values
}

// NodeAttrs memoises tokens substituted into node attributes.
func (s *Store) NodeAttrs() *Memo {
	return s.nodeAttrs
}

// InstanceAttrs memoises tokens substituted into instance attributes.
func (s *Store) InstanceAttrs() *Memo {
	return s.instanceAttrs
}

func cloneAttrs(attrs []html.Attribute) []html.Attribute {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]html.Attribute, len(attrs))
	copy(out, attrs)
	return out
}

// Memo is a token memo namespace. Values never expire.
type Memo struct {
	cache *gocache.Cache
}

// NewMemo returns an empty memo.
func NewMemo() *Memo {
	return &Memo{cache: gocache.New(gocache.NoExpiration, 0)}
}

// Get returns the memoised value for key.
func (m *Memo) Get(key string) (string, bool) {
	value, found := m.cache.Get(key)
	if !found {
		return "", false
	}
	s, ok := value.(string)
	return s, ok
}

// Set memoises value at key.
func (m *Memo) Set(key, value string) {
	m.cache.Set(key, value, gocache.NoExpiration)
}

// Len returns the number of memoised keys.
func (m *Memo) Len() int {
	return m.cache.ItemCount()
}

// Snapshot copies the memo contents.
func (m *Memo) Snapshot() map[string]string {
	items := m.cache.Items()
	out := make(map[string]string, len(items))
	for key, item := range items {
		if s, ok := item.Object.(string); ok {
			out[key] = s
		}
	}
	return out
}
