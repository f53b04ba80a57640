package connection_method

import (
	"github.com/kokukuma/mdoc-issuance/dataitem"
)

const (
	HttpMethodType = 4
	HttpMaxVersion = 1

	httpOptionURI = 0
)

var httpVariant = variant{name: "http", methodType: HttpMethodType, maxVersion: HttpMaxVersion}

// Http is the connection method for retrieval over a website (ISO/IEC
// 18013-7).
type Http struct {
	URI string
}

func (Http) Type() uint64 { return HttpMethodType }

func (m Http) String() string {
	return httpVariant.name + ":uri=" + m.URI
}

func (m Http) ToDataItem() dataitem.DataItem {
	return httpVariant.toDataItem(dataitem.NewMapBuilder().PutInt(httpOptionURI, dataitem.Tstr(m.URI)))
}

func (m Http) ToDeviceEngagement() []byte {
	return dataitem.Encode(m.ToDataItem())
}

func HttpFromDeviceEngagement(data []byte) (*Http, error) {
	item, err := decodeBytes(data)
	if err != nil {
		return nil, err
	}
	return HttpFromDataItem(item)
}

func HttpFromDataItem(item dataitem.DataItem) (*Http, error) {
	opts, err := httpVariant.unwrap(item)
	if err != nil || opts == nil {
		return nil, err
	}

	uri, err := required(opts, httpOptionURI, dataitem.AsText)
	if err != nil {
		return nil, err
	}
	return &Http{URI: uri}, nil
}
