package connection_method

import (
	"strconv"

	"github.com/kokukuma/mdoc-issuance/dataitem"
)

const (
	NfcMethodType = 1
	NfcMaxVersion = 1

	nfcOptionCommandDataFieldMaxLength  = 0
	nfcOptionResponseDataFieldMaxLength = 1
)

var nfcVariant = variant{name: "nfc", methodType: NfcMethodType, maxVersion: NfcMaxVersion}

// Nfc is the NFC connection method. Both lengths are mandatory.
type Nfc struct {
	CommandDataFieldMaxLength  uint64
	ResponseDataFieldMaxLength uint64
}

func (Nfc) Type() uint64 { return NfcMethodType }

func (m Nfc) String() string {
	return nfcVariant.name +
		":cmd_max_length=" + strconv.FormatUint(m.CommandDataFieldMaxLength, 10) +
		":resp_max_length=" + strconv.FormatUint(m.ResponseDataFieldMaxLength, 10)
}

func (m Nfc) ToDataItem() dataitem.DataItem {
	b := dataitem.NewMapBuilder().
		PutInt(nfcOptionCommandDataFieldMaxLength, dataitem.Uint(m.CommandDataFieldMaxLength)).
		PutInt(nfcOptionResponseDataFieldMaxLength, dataitem.Uint(m.ResponseDataFieldMaxLength))
	return nfcVariant.toDataItem(b)
}

func (m Nfc) ToDeviceEngagement() []byte {
	return dataitem.Encode(m.ToDataItem())
}

func NfcFromDeviceEngagement(data []byte) (*Nfc, error) {
	item, err := decodeBytes(data)
	if err != nil {
		return nil, err
	}
	return NfcFromDataItem(item)
}

func NfcFromDataItem(item dataitem.DataItem) (*Nfc, error) {
	opts, err := nfcVariant.unwrap(item)
	if err != nil || opts == nil {
		return nil, err
	}

	m := &Nfc{}
	if m.CommandDataFieldMaxLength, err = required(opts, nfcOptionCommandDataFieldMaxLength, dataitem.AsUint64); err != nil {
		return nil, err
	}
	if m.ResponseDataFieldMaxLength, err = required(opts, nfcOptionResponseDataFieldMaxLength, dataitem.AsUint64); err != nil {
		return nil, err
	}
	return m, nil
}
