package connection_method

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/kokukuma/mdoc-issuance/dataitem"
)

const (
	WifiAwareMethodType = 3
	WifiAwareMaxVersion = 1

	wifiAwareOptionPassphrase     = 0
	wifiAwareOptionOperatingClass = 1
	wifiAwareOptionChannelNumber  = 2
	wifiAwareOptionSupportedBands = 3
)

var wifiAwareVariant = variant{name: "wifi_aware", methodType: WifiAwareMethodType, maxVersion: WifiAwareMaxVersion}

// WifiAware is the Wi-Fi Aware connection method. Every field is optional
// and absent fields are left out of the wire form.
type WifiAware struct {
	Passphrase     Optional[string]
	ChannelNumber  Optional[uint64]
	OperatingClass Optional[uint64]
	SupportedBands Optional[[]byte]
}

func (WifiAware) Type() uint64 { return WifiAwareMethodType }

func (m WifiAware) String() string {
	var sb strings.Builder
	sb.WriteString(wifiAwareVariant.name)
	if v, ok := m.Passphrase.Get(); ok {
		sb.WriteString(":passphrase=" + v)
	}
	if v, ok := m.ChannelNumber.Get(); ok {
		sb.WriteString(":channel_info_channel_number=" + strconv.FormatUint(v, 10))
	}
	if v, ok := m.OperatingClass.Get(); ok {
		sb.WriteString(":channel_info_operating_class=" + strconv.FormatUint(v, 10))
	}
	if v, ok := m.SupportedBands.Get(); ok {
		sb.WriteString(":base_info_supported_bands=" + hex.EncodeToString(v))
	}
	return sb.String()
}

func (m WifiAware) ToDataItem() dataitem.DataItem {
	b := dataitem.NewMapBuilder()
	putOption(b, wifiAwareOptionPassphrase, m.Passphrase, textItem)
	putOption(b, wifiAwareOptionOperatingClass, m.OperatingClass, uintItem)
	putOption(b, wifiAwareOptionChannelNumber, m.ChannelNumber, uintItem)
	putOption(b, wifiAwareOptionSupportedBands, m.SupportedBands, bytesItem)
	return wifiAwareVariant.toDataItem(b)
}

func (m WifiAware) ToDeviceEngagement() []byte {
	return dataitem.Encode(m.ToDataItem())
}

// WifiAwareFromDeviceEngagement decodes an encoded Wi-Fi Aware method. It
// returns nil and no error when the version is newer than supported.
func WifiAwareFromDeviceEngagement(data []byte) (*WifiAware, error) {
	item, err := decodeBytes(data)
	if err != nil {
		return nil, err
	}
	return WifiAwareFromDataItem(item)
}

func WifiAwareFromDataItem(item dataitem.DataItem) (*WifiAware, error) {
	opts, err := wifiAwareVariant.unwrap(item)
	if err != nil || opts == nil {
		return nil, err
	}

	m := &WifiAware{}
	if m.Passphrase, err = option(opts, wifiAwareOptionPassphrase, dataitem.AsText); err != nil {
		return nil, err
	}
	if m.OperatingClass, err = option(opts, wifiAwareOptionOperatingClass, dataitem.AsUint64); err != nil {
		return nil, err
	}
	if m.ChannelNumber, err = option(opts, wifiAwareOptionChannelNumber, dataitem.AsUint64); err != nil {
		return nil, err
	}
	if m.SupportedBands, err = option(opts, wifiAwareOptionSupportedBands, dataitem.AsBytes); err != nil {
		return nil, err
	}
	return m, nil
}
