package token

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
)

var (
	// ErrNotFlat is returned when data is not a single flat JSON object of
	// scalar values.
	ErrNotFlat = errors.New(`token: use simple JSON: {"someKey": "some value", "anotherKey": 5, "yetAnotherKey": true, "andLastButNotLeast": null}`)
	// ErrTokenInData is returned when the serialised data contains token
	// syntax, which would let values inject new placeholders.
	ErrTokenInData = errors.New("token: data must not contain placeholder tokens")
)

// Data maps bare token names (the token minus its prefix) to scalar values.
// A key that is present with a nil value still counts as supplied.
type Data map[string]any

// ParseData decodes a flat JSON object.
func ParseData(raw []byte) (Data, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Data{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFlat, err)
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected an object", ErrNotFlat)
	}

	data := Data(obj)
	if err := data.checkFlat(); err != nil {
		return nil, err
	}
	return data, nil
}

// Validate checks the flat shape and, when p is not nil, that no value or
// key carries token syntax.
func (d Data) Validate(p *Pattern) error {
	if err := d.checkFlat(); err != nil {
		return err
	}
	if p == nil || len(d) == 0 {
		return nil
	}
	encoded, err := json.Marshal(map[string]any(d))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotFlat, err)
	}
	if p.Contains(string(encoded)) {
		return ErrTokenInData
	}
	return nil
}

// Keys returns the data keys sorted.
func (d Data) Keys() []string {
	keys := make([]string, 0, len(d))
	for key := range d {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy.
func (d Data) Clone() Data {
	if d == nil {
		return nil
	}
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

func (d Data) checkFlat() error {
	for key, value := range d {
		if !isScalar(value) {
			return fmt.Errorf("%w: key %q holds a %T", ErrNotFlat, key, value)
		}
	}
	return nil
}

func isScalar(value any) bool {
	switch value.(type) {
	case nil, string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	// named scalar types (type Label string) are accepted too
	switch reflect.ValueOf(value).Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// Format renders a scalar value the way it appears in substituted markup.
func Format(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return formatFloat(v, 64)
	case float32:
		return formatFloat(float64(v), 32)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return formatFloat(rv.Float(), 64)
	}
	return fmt.Sprint(value)
}

func formatFloat(f float64, bits int) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}
