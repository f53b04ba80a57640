package dataitem

import (
	"fmt"
	"math"
	"time"
)

type signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

type unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Int returns Uint for v >= 0 and Nint otherwise.
func Int[T signed](v T) DataItem {
	i := int64(v)
	if i >= 0 {
		return Uint(i)
	}
	return Nint(uint64(-(i + 1)))
}

// Unsigned returns v as a Uint.
func Unsigned[T unsigned](v T) Uint {
	return Uint(uint64(v))
}

// Bool returns True or False.
func Bool(b bool) Simple {
	if b {
		return True
	}
	return False
}

// DateTimeString returns a tag 0 date-time string for t, truncated to
// millisecond precision and rendered in UTC.
func DateTimeString(t time.Time) Tagged {
	t = t.UTC().Truncate(time.Millisecond)
	return Tagged{Tag: TagDateTimeString, Item: Tstr(t.Format(time.RFC3339Nano))}
}

// DateTimeStringFromMillis interprets ms as milliseconds since the Epoch.
func DateTimeStringFromMillis(ms int64) Tagged {
	return DateTimeString(time.UnixMilli(ms))
}

// ParseDateTimeString converts an RFC 3339 string into a tag 0 date-time.
func ParseDateTimeString(s string) (Tagged, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Tagged{}, fmt.Errorf("failed to parse date-time %q: %w", s, err)
	}
	return DateTimeString(t), nil
}

// EncodedCBOR wraps the encoding of item in a tag 24 byte string.
func EncodedCBOR(item DataItem) Tagged {
	return Tagged{Tag: TagEncodedCBOR, Item: Bstr(Encode(item))}
}

// AsInt64 returns the value of a Uint or Nint that fits in an int64.
func AsInt64(item DataItem) (int64, error) {
	switch v := item.(type) {
	case Uint:
		if uint64(v) > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", ErrType, uint64(v))
		}
		return int64(v), nil
	case Nint:
		if uint64(v) > math.MaxInt64 {
			return 0, fmt.Errorf("%w: -1-%d overflows int64", ErrType, uint64(v))
		}
		return -1 - int64(v), nil
	}
	return 0, typeError(item, "integer")
}

func AsUint64(item DataItem) (uint64, error) {
	v, ok := item.(Uint)
	if !ok {
		return 0, typeError(item, "unsigned integer")
	}
	return uint64(v), nil
}

func AsText(item DataItem) (string, error) {
	v, ok := item.(Tstr)
	if !ok {
		return "", typeError(item, "text string")
	}
	return string(v), nil
}

func AsBytes(item DataItem) ([]byte, error) {
	v, ok := item.(Bstr)
	if !ok {
		return nil, typeError(item, "byte string")
	}
	return []byte(v), nil
}

func AsBool(item DataItem) (bool, error) {
	switch v, _ := item.(Simple); v {
	case True:
		return true, nil
	case False:
		return false, nil
	}
	return false, typeError(item, "boolean")
}

// AsFloat64 accepts both Float and Double.
func AsFloat64(item DataItem) (float64, error) {
	switch v := item.(type) {
	case Float:
		return float64(v), nil
	case Double:
		return float64(v), nil
	}
	return 0, typeError(item, "float")
}

func AsArray(item DataItem) (Array, error) {
	v, ok := item.(Array)
	if !ok {
		return nil, typeError(item, "array")
	}
	return v, nil
}

func AsMap(item DataItem) (*Map, error) {
	v, ok := item.(*Map)
	if !ok || v == nil {
		return nil, typeError(item, "map")
	}
	return v, nil
}

// AsDateTime reads a tag 0 date-time string.
func AsDateTime(item DataItem) (time.Time, error) {
	tagged, ok := item.(Tagged)
	if !ok || tagged.Tag != TagDateTimeString {
		return time.Time{}, typeError(item, "tag 0 date-time string")
	}
	s, err := AsText(tagged.Item)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date-time %q: %w", s, err)
	}
	return t, nil
}

// AsEncodedCBOR unwraps a tag 24 byte string and decodes its content.
func AsEncodedCBOR(item DataItem) (DataItem, error) {
	tagged, ok := item.(Tagged)
	if !ok || tagged.Tag != TagEncodedCBOR {
		return nil, typeError(item, "tag 24 encoded CBOR")
	}
	b, err := AsBytes(tagged.Item)
	if err != nil {
		return nil, err
	}
	return Decode(b)
}
