package connection_method

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/kokukuma/mdoc-issuance/dataitem"
)

const (
	BleMethodType = 2
	BleMaxVersion = 1

	bleOptionSupportsPeripheralServerMode = 0
	bleOptionSupportsCentralClientMode    = 1
	bleOptionPeripheralServerModeUUID     = 10
	bleOptionCentralClientModeUUID        = 11
	bleOptionPeripheralServerModeAddress  = 20
)

var bleVariant = variant{name: "ble", methodType: BleMethodType, maxVersion: BleMaxVersion}

// Ble is the Bluetooth Low Energy connection method.
type Ble struct {
	SupportsPeripheralServerMode bool
	SupportsCentralClientMode    bool
	PeripheralServerModeUUID     Optional[uuid.UUID]
	CentralClientModeUUID        Optional[uuid.UUID]
	// PeripheralServerModeAddress is the BLE device address (MAC) of the
	// holder in peripheral server mode.
	PeripheralServerModeAddress Optional[[]byte]
}

func (Ble) Type() uint64 { return BleMethodType }

func (m Ble) String() string {
	var sb strings.Builder
	sb.WriteString(bleVariant.name)
	sb.WriteString(":peripheral_server_mode=" + strconv.FormatBool(m.SupportsPeripheralServerMode))
	sb.WriteString(":central_client_mode=" + strconv.FormatBool(m.SupportsCentralClientMode))
	if v, ok := m.PeripheralServerModeUUID.Get(); ok {
		sb.WriteString(":peripheral_server_mode_uuid=" + v.String())
	}
	if v, ok := m.CentralClientModeUUID.Get(); ok {
		sb.WriteString(":central_client_mode_uuid=" + v.String())
	}
	if v, ok := m.PeripheralServerModeAddress.Get(); ok {
		sb.WriteString(":peripheral_server_mode_mac=" + hex.EncodeToString(v))
	}
	return sb.String()
}

func (m Ble) ToDataItem() dataitem.DataItem {
	b := dataitem.NewMapBuilder().
		PutInt(bleOptionSupportsPeripheralServerMode, dataitem.Bool(m.SupportsPeripheralServerMode)).
		PutInt(bleOptionSupportsCentralClientMode, dataitem.Bool(m.SupportsCentralClientMode))
	putOption(b, bleOptionPeripheralServerModeUUID, m.PeripheralServerModeUUID, uuidItem)
	putOption(b, bleOptionCentralClientModeUUID, m.CentralClientModeUUID, uuidItem)
	putOption(b, bleOptionPeripheralServerModeAddress, m.PeripheralServerModeAddress, bytesItem)
	return bleVariant.toDataItem(b)
}

func (m Ble) ToDeviceEngagement() []byte {
	return dataitem.Encode(m.ToDataItem())
}

func BleFromDeviceEngagement(data []byte) (*Ble, error) {
	item, err := decodeBytes(data)
	if err != nil {
		return nil, err
	}
	return BleFromDataItem(item)
}

func BleFromDataItem(item dataitem.DataItem) (*Ble, error) {
	opts, err := bleVariant.unwrap(item)
	if err != nil || opts == nil {
		return nil, err
	}

	m := &Ble{}
	if m.SupportsPeripheralServerMode, err = required(opts, bleOptionSupportsPeripheralServerMode, dataitem.AsBool); err != nil {
		return nil, err
	}
	if m.SupportsCentralClientMode, err = required(opts, bleOptionSupportsCentralClientMode, dataitem.AsBool); err != nil {
		return nil, err
	}
	if m.PeripheralServerModeUUID, err = option(opts, bleOptionPeripheralServerModeUUID, asUUID); err != nil {
		return nil, err
	}
	if m.CentralClientModeUUID, err = option(opts, bleOptionCentralClientModeUUID, asUUID); err != nil {
		return nil, err
	}
	if m.PeripheralServerModeAddress, err = option(opts, bleOptionPeripheralServerModeAddress, dataitem.AsBytes); err != nil {
		return nil, err
	}
	return m, nil
}

func uuidItem(id uuid.UUID) dataitem.DataItem {
	return dataitem.Bstr(id[:])
}

func asUUID(item dataitem.DataItem) (uuid.UUID, error) {
	b, err := dataitem.AsBytes(item)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.FromBytes(b)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse uuid: %w", err)
	}
	return id, nil
}
