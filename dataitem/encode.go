package dataitem

import (
	"encoding/binary"
	"math"
)

// Additional info values (low 5 bits of the initial byte).
const (
	oneByteAdditional    byte = 24
	twoBytesAdditional   byte = 25
	fourBytesAdditional  byte = 26
	eightBytesAdditional byte = 27
	indefiniteAdditional byte = 31
)

type encoder struct {
	buf []byte
}

// Encode returns the canonical encoding of item. A nil item encodes as null.
func Encode(item DataItem) []byte {
	e := &encoder{}
	e.item(item)
	return e.buf
}

func (e *encoder) item(item DataItem) {
	if item == nil {
		Null.encode(e)
		return
	}
	item.encode(e)
}

// head writes the initial byte and argument using the shortest form.
func (e *encoder) head(mt MajorType, arg uint64) {
	ib := byte(mt) << 5
	switch {
	case arg < uint64(oneByteAdditional):
		e.buf = append(e.buf, ib|byte(arg))
	case arg <= math.MaxUint8:
		e.buf = append(e.buf, ib|oneByteAdditional, byte(arg))
	case arg <= math.MaxUint16:
		e.buf = append(e.buf, ib|twoBytesAdditional)
		e.buf = binary.BigEndian.AppendUint16(e.buf, uint16(arg))
	case arg <= math.MaxUint32:
		e.buf = append(e.buf, ib|fourBytesAdditional)
		e.buf = binary.BigEndian.AppendUint32(e.buf, uint32(arg))
	default:
		e.buf = append(e.buf, ib|eightBytesAdditional)
		e.buf = binary.BigEndian.AppendUint64(e.buf, arg)
	}
}

func (s Tstr) encode(e *encoder) {
	e.head(MajorTypeTextString, uint64(len(s)))
	e.buf = append(e.buf, s...)
}

func (b Bstr) encode(e *encoder) {
	e.head(MajorTypeByteString, uint64(len(b)))
	e.buf = append(e.buf, b...)
}

func (u Uint) encode(e *encoder) { e.head(MajorTypeUnsigned, uint64(u)) }

func (n Nint) encode(e *encoder) { e.head(MajorTypeNegative, uint64(n)) }

func (s Simple) encode(e *encoder) {
	if s.v < oneByteAdditional {
		e.head(MajorTypeSpecial, uint64(s.v))
		return
	}
	e.buf = append(e.buf, byte(MajorTypeSpecial)<<5|oneByteAdditional, s.v)
}

func (f Float) encode(e *encoder) {
	e.buf = append(e.buf, byte(MajorTypeSpecial)<<5|fourBytesAdditional)
	e.buf = binary.BigEndian.AppendUint32(e.buf, math.Float32bits(float32(f)))
}

func (d Double) encode(e *encoder) {
	e.buf = append(e.buf, byte(MajorTypeSpecial)<<5|eightBytesAdditional)
	e.buf = binary.BigEndian.AppendUint64(e.buf, math.Float64bits(float64(d)))
}

func (t Tagged) encode(e *encoder) {
	e.head(MajorTypeTag, t.Tag)
	e.item(t.Item)
}

func (a Array) encode(e *encoder) {
	e.head(MajorTypeArray, uint64(len(a)))
	for _, item := range a {
		e.item(item)
	}
}

func (m *Map) encode(e *encoder) {
	if m == nil {
		e.head(MajorTypeMap, 0)
		return
	}
	e.head(MajorTypeMap, uint64(len(m.entries)))
	for _, entry := range m.entries {
		e.item(entry.Key)
		e.item(entry.Value)
	}
}
