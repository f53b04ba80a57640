package engagement

import (
	"github.com/kokukuma/mdoc-issuance/dataitem"
)

const (
	originInfoCategoryReceive = 1
	originInfoTypeDomain      = 1
)

// OriginInfo tells the reader where the engagement was received from.
type OriginInfo interface {
	DataItem() dataitem.DataItem
}

// OriginInfoDomain is the only origin info type in use: the website that
// started the engagement.
type OriginInfoDomain struct {
	URL string
}

func (o OriginInfoDomain) DataItem() dataitem.DataItem {
	return dataitem.NewMapBuilder().
		PutText("cat", dataitem.Uint(originInfoCategoryReceive)).
		PutText("type", dataitem.Uint(originInfoTypeDomain)).
		PutText("details", dataitem.NewMapBuilder().PutText("domain", dataitem.Tstr(o.URL)).Build()).
		Build()
}

func parseOriginInfo(item dataitem.DataItem) (OriginInfo, bool) {
	m, err := dataitem.AsMap(item)
	if err != nil {
		return nil, false
	}
	cat, _ := m.GetText("cat")
	typ, _ := m.GetText("type")
	if !dataitem.Equal(cat, dataitem.Uint(originInfoCategoryReceive)) || !dataitem.Equal(typ, dataitem.Uint(originInfoTypeDomain)) {
		return nil, false
	}
	detailsItem, _ := m.GetText("details")
	details, err := dataitem.AsMap(detailsItem)
	if err != nil {
		return nil, false
	}
	domain, _ := details.GetText("domain")
	url, err := dataitem.AsText(domain)
	if err != nil {
		return nil, false
	}
	return OriginInfoDomain{URL: url}, true
}
