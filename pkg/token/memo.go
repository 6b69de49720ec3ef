package token

// MapMemo is a Memo over a plain map. The zero value is not usable; use
// NewMapMemo.
type MapMemo struct {
	values map[string]string
}

// NewMapMemo returns an empty map-backed memo.
func NewMapMemo() *MapMemo {
	return &MapMemo{values: make(map[string]string)}
}

func (m *MapMemo) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *MapMemo) Set(key, value string) {
	m.values[key] = value
}

// Overlay stages writes on top of a base memo until Commit. Reads see staged
// values first.
type Overlay struct {
	base    Memo
	pending map[string]string
	order   []string
}

// NewOverlay stages writes for base.
func NewOverlay(base Memo) *Overlay {
	return &Overlay{base: base, pending: make(map[string]string)}
}

func (o *Overlay) Get(key string) (string, bool) {
	if v, ok := o.pending[key]; ok {
		return v, true
	}
	return o.base.Get(key)
}

func (o *Overlay) Set(key, value string) {
	if _, ok := o.pending[key]; !ok {
		o.order = append(o.order, key)
	}
	o.pending[key] = value
}

// Pending returns the number of staged keys.
func (o *Overlay) Pending() int {
	return len(o.pending)
}

// Commit writes staged values to the base memo and clears the stage.
func (o *Overlay) Commit() {
	for _, key := range o.order {
		o.base.Set(key, o.pending[key])
	}
	o.pending = make(map[string]string)
	o.order = nil
}
