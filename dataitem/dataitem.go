// Package dataitem implements the typed data-item tree that ISO/IEC 18013-5
// messages are built from, together with a canonical RFC 8949 encoder and a
// strict decoder.
//
// Every value is one of the closed set of kinds below. Encoding always picks
// the shortest head for a value and never converts between Float and Double.
package dataitem

import (
	"bytes"
	"errors"
	"fmt"
)

type MajorType byte

const (
	MajorTypeUnsigned   MajorType = 0
	MajorTypeNegative   MajorType = 1
	MajorTypeByteString MajorType = 2
	MajorTypeTextString MajorType = 3
	MajorTypeArray      MajorType = 4
	MajorTypeMap        MajorType = 5
	MajorTypeTag        MajorType = 6
	MajorTypeSpecial    MajorType = 7
)

// Tag numbers used by ISO/IEC 18013-5.
const (
	TagDateTimeString uint64 = 0
	TagFullDate       uint64 = 1004
	TagEncodedCBOR    uint64 = 24
)

// DataItem is implemented by Tstr, Bstr, Uint, Nint, Simple, Float, Double,
// Tagged, Array and *Map. No other type can implement it.
type DataItem interface {
	MajorType() MajorType
	encode(e *encoder)
}

// Tstr is a UTF-8 text string.
type Tstr string

// Bstr is a byte string.
type Bstr []byte

// Uint is a non-negative integer.
type Uint uint64

// Nint is the negative integer -1-n. Use Int to build one from a signed value.
type Nint uint64

// Simple is a simple value. Values 24 to 31 have no valid encoding, so a
// Simple can only be one of the named values or come from NewSimple.
type Simple struct {
	v byte
}

var (
	False     = Simple{20}
	True      = Simple{21}
	Null      = Simple{22}
	Undefined = Simple{23}
)

// ErrSimpleValue is returned by NewSimple for the reserved values 24 to 31.
var ErrSimpleValue = errors.New("dataitem: reserved simple value")

// NewSimple returns the simple value v.
func NewSimple(v byte) (Simple, error) {
	if v >= oneByteAdditional && v < 32 {
		return Simple{}, fmt.Errorf("%w: %d", ErrSimpleValue, v)
	}
	return Simple{v}, nil
}

// Value returns the number of the simple value.
func (s Simple) Value() byte { return s.v }

// Float is a single precision float. Half precision input decodes to Float.
type Float float32

// Double is a double precision float.
type Double float64

// Tagged wraps an item with a semantic tag.
type Tagged struct {
	Tag  uint64
	Item DataItem
}

// Array is an ordered list of items.
type Array []DataItem

func (Tstr) MajorType() MajorType   { return MajorTypeTextString }
func (Bstr) MajorType() MajorType   { return MajorTypeByteString }
func (Uint) MajorType() MajorType   { return MajorTypeUnsigned }
func (Nint) MajorType() MajorType   { return MajorTypeNegative }
func (Simple) MajorType() MajorType { return MajorTypeSpecial }
func (Float) MajorType() MajorType  { return MajorTypeSpecial }
func (Double) MajorType() MajorType { return MajorTypeSpecial }
func (Tagged) MajorType() MajorType { return MajorTypeTag }
func (Array) MajorType() MajorType  { return MajorTypeArray }
func (*Map) MajorType() MajorType   { return MajorTypeMap }

// Len returns the number of items in the array.
func (a Array) Len() int { return len(a) }

// MapEntry is one key/value pair of a Map.
type MapEntry struct {
	Key   DataItem
	Value DataItem
}

// Map is an insertion-ordered map with unique keys. Keys are compared by
// their canonical encoding. A Map is immutable; build one with MapBuilder.
type Map struct {
	entries []MapEntry
	index   map[string]int
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Entries returns a copy of the entries in insertion order.
func (m *Map) Entries() []MapEntry {
	if m == nil {
		return nil
	}
	out := make([]MapEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Get looks up the value stored under key.
func (m *Map) Get(key DataItem) (DataItem, bool) {
	if m == nil {
		return nil, false
	}
	i, ok := m.index[string(Encode(key))]
	if !ok {
		return nil, false
	}
	return m.entries[i].Value, true
}

// GetInt looks up an integer-keyed entry.
func (m *Map) GetInt(key int64) (DataItem, bool) {
	return m.Get(Int(key))
}

// GetText looks up a text-keyed entry.
func (m *Map) GetText(key string) (DataItem, bool) {
	return m.Get(Tstr(key))
}

// MapBuilder accumulates entries for a Map. Putting an existing key replaces
// its value but keeps the original position.
type MapBuilder struct {
	entries []MapEntry
	index   map[string]int
}

func NewMapBuilder() *MapBuilder {
	return &MapBuilder{index: make(map[string]int)}
}

func (b *MapBuilder) Put(key, value DataItem) *MapBuilder {
	k := string(Encode(key))
	if i, ok := b.index[k]; ok {
		b.entries[i].Value = value
		return b
	}
	b.index[k] = len(b.entries)
	b.entries = append(b.entries, MapEntry{Key: key, Value: value})
	return b
}

// PutInt is Put with an integer key.
func (b *MapBuilder) PutInt(key int64, value DataItem) *MapBuilder {
	return b.Put(Int(key), value)
}

// PutText is Put with a text key.
func (b *MapBuilder) PutText(key string, value DataItem) *MapBuilder {
	return b.Put(Tstr(key), value)
}

// Build returns the Map. The builder may keep being used afterwards without
// affecting the returned Map.
func (b *MapBuilder) Build() *Map {
	m := &Map{
		entries: make([]MapEntry, len(b.entries)),
		index:   make(map[string]int, len(b.entries)),
	}
	copy(m.entries, b.entries)
	for k, v := range b.index {
		m.index[k] = v
	}
	return m
}

// Equal reports whether a and b have the same canonical encoding.
func Equal(a, b DataItem) bool {
	return bytes.Equal(Encode(a), Encode(b))
}
