package connection_method

import (
	"fmt"

	"github.com/kokukuma/mdoc-issuance/dataitem"
)

// variant holds what differs between connection methods. The wire form is
// the same for all of them: [methodType, version, options].
type variant struct {
	name       string
	methodType uint64
	maxVersion uint64
}

func (v variant) toDataItem(options *dataitem.MapBuilder) dataitem.DataItem {
	return dataitem.Array{
		dataitem.Uint(v.methodType),
		dataitem.Uint(v.maxVersion),
		options.Build(),
	}
}

// unwrap checks the method type and version of item and returns its option
// map. A nil result with a nil error means the version is newer than the
// variant supports.
func (v variant) unwrap(item dataitem.DataItem) (*options, error) {
	methodType, version, array, err := split(item)
	if err != nil {
		return nil, err
	}
	if methodType != v.methodType {
		return nil, &VariantMismatchError{Variant: v.name, Expected: v.methodType, Actual: methodType}
	}
	if version > v.maxVersion {
		return nil, nil
	}
	m, err := dataitem.AsMap(array[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %s options: %w", ErrMalformed, v.name, err)
	}
	return &options{variant: v.name, m: m}, nil
}

// split checks the [type, version, options] shape and reads the two leading
// integers. The options slot is left to the variant.
func split(item dataitem.DataItem) (methodType, version uint64, array dataitem.Array, err error) {
	if array, err = dataitem.AsArray(item); err != nil {
		return 0, 0, nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(array) != 3 {
		return 0, 0, nil, malformed("expected 3 elements, got %d", len(array))
	}
	if methodType, err = dataitem.AsUint64(array[0]); err != nil {
		return 0, 0, nil, fmt.Errorf("%w: method type: %w", ErrMalformed, err)
	}
	if version, err = dataitem.AsUint64(array[1]); err != nil {
		return 0, 0, nil, fmt.Errorf("%w: version: %w", ErrMalformed, err)
	}
	return methodType, version, array, nil
}

func decodeBytes(data []byte) (dataitem.DataItem, error) {
	item, err := dataitem.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode connection method: %w", err)
	}
	return item, nil
}

type options struct {
	variant string
	m       *dataitem.Map
}

// option reads an optional entry. Keys the variant does not know are never
// looked at, so they are ignored.
func option[T any](o *options, key int64, as func(dataitem.DataItem) (T, error)) (Optional[T], error) {
	item, ok := o.m.GetInt(key)
	if !ok {
		return None[T](), nil
	}
	v, err := as(item)
	if err != nil {
		return None[T](), fmt.Errorf("%w: %s option %d: %w", ErrMalformed, o.variant, key, err)
	}
	return Some(v), nil
}

func required[T any](o *options, key int64, as func(dataitem.DataItem) (T, error)) (T, error) {
	v, err := option(o, key, as)
	if err != nil {
		var zero T
		return zero, err
	}
	value, ok := v.Get()
	if !ok {
		return value, malformed("%s option %d is missing", o.variant, key)
	}
	return value, nil
}

func putOption[T any](b *dataitem.MapBuilder, key int64, o Optional[T], to func(T) dataitem.DataItem) {
	if v, ok := o.Get(); ok {
		b.PutInt(key, to(v))
	}
}

func textItem(s string) dataitem.DataItem  { return dataitem.Tstr(s) }
func bytesItem(b []byte) dataitem.DataItem { return dataitem.Bstr(b) }
func uintItem(v uint64) dataitem.DataItem  { return dataitem.Uint(v) }
