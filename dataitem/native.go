package dataitem

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// nativeEncMode matches the canonical rules of Encode: core deterministic map
// ordering and no float narrowing.
var nativeEncMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{
		Sort:          cbor.SortCoreDeterministic,
		ShortestFloat: cbor.ShortestFloatNone,
		Time:          cbor.TimeRFC3339Nano,
		TimeTag:       cbor.EncTagRequired,
	}.EncMode()
	if err != nil {
		panic("dataitem: invalid encoding options: " + err.Error())
	}
	return em
}()

// FromNative converts a Go value (struct with cbor tags, map, slice, ...)
// into a data item.
func FromNative(v interface{}) (DataItem, error) {
	b, err := nativeEncMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	return Decode(b)
}

// ToNative decodes item into the Go value pointed to by v.
func ToNative(item DataItem, v interface{}) error {
	if err := cbor.Unmarshal(Encode(item), v); err != nil {
		return fmt.Errorf("failed to unmarshal into %T: %w", v, err)
	}
	return nil
}

// Value holds a data item inside structs that are encoded with
// fxamacker/cbor.
type Value struct {
	Item DataItem
}

func (v Value) MarshalCBOR() ([]byte, error) {
	return Encode(v.Item), nil
}

func (v *Value) UnmarshalCBOR(data []byte) error {
	item, err := Decode(data)
	if err != nil {
		return err
	}
	v.Item = item
	return nil
}
