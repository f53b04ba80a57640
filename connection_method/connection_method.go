// Package connection_method encodes and decodes the connection methods
// (DeviceRetrievalMethod) a holder advertises in device engagement.
//
// Every variant is the array [type, version, options]. Decoding a variant
// from a method of another type fails with a VariantMismatchError. A method
// whose version is newer than the variant supports decodes to nil with no
// error, and option keys the variant does not know are ignored.
package connection_method

import (
	"bytes"
	"fmt"

	"github.com/kokukuma/mdoc-issuance/dataitem"
)

// ConnectionMethod is implemented by WifiAware, Nfc, Ble and Http.
type ConnectionMethod interface {
	// Type returns the method type id used on the wire.
	Type() uint64
	// String renders the method for logs. It is not a wire format.
	String() string
	ToDataItem() dataitem.DataItem
	ToDeviceEngagement() []byte
}

type fromDataItem func(dataitem.DataItem) (ConnectionMethod, error)

var variants = []fromDataItem{
	func(item dataitem.DataItem) (ConnectionMethod, error) {
		m, err := NfcFromDataItem(item)
		if m == nil {
			return nil, err
		}
		return m, nil
	},
	func(item dataitem.DataItem) (ConnectionMethod, error) {
		m, err := BleFromDataItem(item)
		if m == nil {
			return nil, err
		}
		return m, nil
	},
	func(item dataitem.DataItem) (ConnectionMethod, error) {
		m, err := WifiAwareFromDataItem(item)
		if m == nil {
			return nil, err
		}
		return m, nil
	},
	func(item dataitem.DataItem) (ConnectionMethod, error) {
		m, err := HttpFromDataItem(item)
		if m == nil {
			return nil, err
		}
		return m, nil
	},
}

// Decode decodes an encoded connection method of any known variant. A nil
// method with a nil error means the variant was recognized but its version
// is not supported.
func Decode(data []byte) (ConnectionMethod, error) {
	item, err := decodeBytes(data)
	if err != nil {
		return nil, err
	}
	return FromDataItem(item)
}

// FromDataItem is Decode for an already decoded item, such as an element of
// the connection method array in device engagement.
func FromDataItem(item dataitem.DataItem) (ConnectionMethod, error) {
	for _, decode := range variants {
		m, err := decode(item)
		if IsVariantMismatch(err) {
			continue
		}
		return m, err
	}

	methodType, _, _, err := split(item)
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownMethodType, methodType)
}

// Equal reports whether a and b are the same method with the same options
// present.
func Equal(a, b ConnectionMethod) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return bytes.Equal(a.ToDeviceEngagement(), b.ToDeviceEngagement())
}

// Disambiguate splits every BLE method that supports both peripheral server
// and central client mode into one method per mode. Other methods are
// returned unchanged.
func Disambiguate(methods []ConnectionMethod) []ConnectionMethod {
	var out []ConnectionMethod
	for _, m := range methods {
		b, ok := asBle(m)
		if !ok || !(b.SupportsPeripheralServerMode && b.SupportsCentralClientMode) {
			out = append(out, m)
			continue
		}
		out = append(out,
			&Ble{
				SupportsPeripheralServerMode: true,
				PeripheralServerModeUUID:     b.PeripheralServerModeUUID,
				PeripheralServerModeAddress:  b.PeripheralServerModeAddress,
			},
			&Ble{
				SupportsCentralClientMode: true,
				CentralClientModeUUID:     b.CentralClientModeUUID,
			},
		)
	}
	return out
}

func asBle(m ConnectionMethod) (Ble, bool) {
	switch v := m.(type) {
	case Ble:
		return v, true
	case *Ble:
		if v != nil {
			return *v, true
		}
	}
	return Ble{}, false
}
