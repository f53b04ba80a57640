package dataitem

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/x448/float16"
)

// MaxNestingDepth bounds how deeply arrays, maps and tags may nest.
const MaxNestingDepth = 64

type decoder struct {
	data  []byte
	off   int
	depth int
}

// Decode parses exactly one item from data. Trailing bytes are rejected.
func Decode(data []byte) (DataItem, error) {
	d := &decoder{data: data}
	item, err := d.item()
	if err != nil {
		return nil, err
	}
	if d.off != len(d.data) {
		return nil, d.errorf("%d trailing bytes after item", len(d.data)-d.off)
	}
	return item, nil
}

func (d *decoder) errorf(format string, args ...interface{}) error {
	return &FormatError{Offset: d.off, Reason: fmt.Sprintf(format, args...)}
}

func (d *decoder) remaining() uint64 {
	return uint64(len(d.data) - d.off)
}

func (d *decoder) take(n uint64) ([]byte, error) {
	if n > d.remaining() {
		return nil, d.errorf("declared length %d exceeds remaining %d bytes", n, d.remaining())
	}
	b := d.data[d.off : d.off+int(n)]
	d.off += int(n)
	return b, nil
}

// head reads the initial byte and its argument.
func (d *decoder) head() (MajorType, byte, uint64, error) {
	if d.remaining() == 0 {
		return 0, 0, 0, d.errorf("unexpected end of input")
	}
	ib := d.data[d.off]
	d.off++
	mt, ai := MajorType(ib>>5), ib&0x1f

	var size uint64
	switch {
	case ai < oneByteAdditional:
		return mt, ai, uint64(ai), nil
	case ai == oneByteAdditional:
		size = 1
	case ai == twoBytesAdditional:
		size = 2
	case ai == fourBytesAdditional:
		size = 4
	case ai == eightBytesAdditional:
		size = 8
	case ai == indefiniteAdditional:
		d.off--
		return 0, 0, 0, d.errorf("indefinite length item 0x%02x not supported", ib)
	default:
		d.off--
		return 0, 0, 0, d.errorf("reserved additional info in 0x%02x", ib)
	}

	if size > d.remaining() {
		return 0, 0, 0, d.errorf("truncated argument: need %d bytes, have %d", size, d.remaining())
	}
	b := d.data[d.off : d.off+int(size)]
	d.off += int(size)

	var arg uint64
	switch size {
	case 1:
		arg = uint64(b[0])
	case 2:
		arg = uint64(binary.BigEndian.Uint16(b))
	case 4:
		arg = uint64(binary.BigEndian.Uint32(b))
	case 8:
		arg = binary.BigEndian.Uint64(b)
	}
	return mt, ai, arg, nil
}

func (d *decoder) item() (DataItem, error) {
	start := d.off
	mt, ai, arg, err := d.head()
	if err != nil {
		return nil, err
	}

	switch mt {
	case MajorTypeUnsigned:
		return Uint(arg), nil
	case MajorTypeNegative:
		return Nint(arg), nil
	case MajorTypeByteString:
		b, err := d.take(arg)
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(b))
		copy(out, b)
		return Bstr(out), nil
	case MajorTypeTextString:
		b, err := d.take(arg)
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(b) {
			d.off = start
			return nil, d.errorf("text string is not valid UTF-8")
		}
		return Tstr(b), nil
	case MajorTypeArray:
		return d.array(arg)
	case MajorTypeMap:
		return d.mapItem(arg)
	case MajorTypeTag:
		if err := d.enter(); err != nil {
			return nil, err
		}
		defer d.leave()
		item, err := d.item()
		if err != nil {
			return nil, err
		}
		return Tagged{Tag: arg, Item: item}, nil
	case MajorTypeSpecial:
		return d.special(start, ai, arg)
	}
	panic("unreachable")
}

func (d *decoder) enter() error {
	d.depth++
	if d.depth > MaxNestingDepth {
		return d.errorf("nesting exceeds %d levels", MaxNestingDepth)
	}
	return nil
}

func (d *decoder) leave() { d.depth-- }

func (d *decoder) array(count uint64) (DataItem, error) {
	// Every item takes at least one byte.
	if count > d.remaining() {
		return nil, d.errorf("declared array length %d exceeds remaining %d bytes", count, d.remaining())
	}
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	items := make(Array, 0, int(count))
	for i := uint64(0); i < count; i++ {
		item, err := d.item()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (d *decoder) mapItem(count uint64) (DataItem, error) {
	if count > d.remaining()/2 {
		return nil, d.errorf("declared map length %d exceeds remaining %d bytes", count, d.remaining())
	}
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	m := &Map{
		entries: make([]MapEntry, 0, int(count)),
		index:   make(map[string]int, int(count)),
	}
	for i := uint64(0); i < count; i++ {
		keyStart := d.off
		key, err := d.item()
		if err != nil {
			return nil, err
		}
		value, err := d.item()
		if err != nil {
			return nil, err
		}
		k := string(Encode(key))
		if _, dup := m.index[k]; dup {
			d.off = keyStart
			return nil, d.errorf("duplicate map key")
		}
		m.index[k] = len(m.entries)
		m.entries = append(m.entries, MapEntry{Key: key, Value: value})
	}
	return m, nil
}

func (d *decoder) special(start int, ai byte, arg uint64) (DataItem, error) {
	switch ai {
	case oneByteAdditional:
		if arg < 32 {
			d.off = start
			return nil, d.errorf("invalid two-byte simple value %d", arg)
		}
		return Simple{byte(arg)}, nil
	case twoBytesAdditional:
		return Float(float16.Frombits(uint16(arg)).Float32()), nil
	case fourBytesAdditional:
		return Float(math.Float32frombits(uint32(arg))), nil
	case eightBytesAdditional:
		return Double(math.Float64frombits(arg)), nil
	}
	return Simple{ai}, nil
}
