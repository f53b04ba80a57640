// Package engagement generates and parses the DeviceEngagement structure
// (ISO/IEC 18013-5 clause 8.2.1.1) a holder shows over QR code or NFC.
package engagement

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	cm "github.com/kokukuma/mdoc-issuance/connection_method"
	"github.com/kokukuma/mdoc-issuance/dataitem"
	"github.com/kokukuma/mdoc-issuance/mdoc"
)

const (
	Version10 = "1.0"
	// Version11 adds origin infos for website retrieval (ISO/IEC 18013-7).
	Version11 = "1.1"

	keyVersion           = 0
	keySecurity          = 1
	keyRetrievalMethods  = 2
	keyOriginInfos       = 5
	cipherSuiteIdentifier = 1
)

// ErrInvalidEngagement reports a DeviceEngagement that cannot be parsed.
var ErrInvalidEngagement = errors.New("engagement: invalid device engagement")

// Generator builds an encoded DeviceEngagement.
type Generator struct {
	eSenderKey  *ecdsa.PublicKey
	version     string
	methods     []cm.ConnectionMethod
	originInfos []OriginInfo
}

func NewGenerator(eSenderKey *ecdsa.PublicKey, version string) *Generator {
	return &Generator{eSenderKey: eSenderKey, version: version}
}

func (g *Generator) AddConnectionMethods(methods ...cm.ConnectionMethod) *Generator {
	g.methods = append(g.methods, methods...)
	return g
}

// AddOriginInfos adds origin infos. They are only written for Version11.
func (g *Generator) AddOriginInfos(infos ...OriginInfo) *Generator {
	g.originInfos = append(g.originInfos, infos...)
	return g
}

func (g *Generator) Generate() ([]byte, error) {
	coseKey, err := mdoc.NewCOSEKey(g.eSenderKey)
	if err != nil {
		return nil, fmt.Errorf("failed to convert eSenderKey: %w", err)
	}
	keyItem, err := coseKey.DataItem()
	if err != nil {
		return nil, fmt.Errorf("failed to encode eSenderKey: %w", err)
	}

	b := dataitem.NewMapBuilder().
		PutInt(keyVersion, dataitem.Tstr(g.version)).
		PutInt(keySecurity, dataitem.Array{
			dataitem.Uint(cipherSuiteIdentifier),
			dataitem.EncodedCBOR(keyItem),
		})

	if len(g.methods) > 0 {
		methods := make(dataitem.Array, 0, len(g.methods))
		for _, m := range g.methods {
			methods = append(methods, m.ToDataItem())
		}
		b.PutInt(keyRetrievalMethods, methods)
	}

	if g.version == Version11 && len(g.originInfos) > 0 {
		infos := make(dataitem.Array, 0, len(g.originInfos))
		for _, info := range g.originInfos {
			infos = append(infos, info.DataItem())
		}
		b.PutInt(keyOriginInfos, infos)
	}

	return dataitem.Encode(b.Build()), nil
}

// Engagement is a parsed DeviceEngagement.
type Engagement struct {
	Version    string
	ESenderKey *ecdsa.PublicKey
	// ESenderKeyBytes is the tag 24 wrapped COSE_Key as it appeared on the
	// wire, for use in the session transcript.
	ESenderKeyBytes   []byte
	ConnectionMethods []cm.ConnectionMethod
	OriginInfos       []OriginInfo
}

// Parse decodes a DeviceEngagement. Connection methods with an unsupported
// version or unknown type are skipped, as are unknown origin infos.
func Parse(data []byte) (*Engagement, error) {
	item, err := dataitem.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode device engagement: %w", err)
	}
	m, err := dataitem.AsMap(item)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEngagement, err)
	}

	e := &Engagement{}

	versionItem, ok := m.GetInt(keyVersion)
	if !ok {
		return nil, fmt.Errorf("%w: missing version", ErrInvalidEngagement)
	}
	if e.Version, err = dataitem.AsText(versionItem); err != nil {
		return nil, fmt.Errorf("%w: version: %w", ErrInvalidEngagement, err)
	}

	if err := e.parseSecurity(m); err != nil {
		return nil, err
	}

	if methods, ok := m.GetInt(keyRetrievalMethods); ok {
		array, err := dataitem.AsArray(methods)
		if err != nil {
			return nil, fmt.Errorf("%w: connection methods: %w", ErrInvalidEngagement, err)
		}
		for _, methodItem := range array {
			method, err := cm.FromDataItem(methodItem)
			if errors.Is(err, cm.ErrUnknownMethodType) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to parse connection method: %w", err)
			}
			if method != nil {
				e.ConnectionMethods = append(e.ConnectionMethods, method)
			}
		}
	}

	if infos, ok := m.GetInt(keyOriginInfos); ok {
		array, err := dataitem.AsArray(infos)
		if err != nil {
			return nil, fmt.Errorf("%w: origin infos: %w", ErrInvalidEngagement, err)
		}
		for _, infoItem := range array {
			if info, ok := parseOriginInfo(infoItem); ok {
				e.OriginInfos = append(e.OriginInfos, info)
			}
		}
	}

	return e, nil
}

func (e *Engagement) parseSecurity(m *dataitem.Map) error {
	securityItem, ok := m.GetInt(keySecurity)
	if !ok {
		return fmt.Errorf("%w: missing security", ErrInvalidEngagement)
	}
	security, err := dataitem.AsArray(securityItem)
	if err != nil || len(security) < 2 {
		return fmt.Errorf("%w: security must be [cipher suite, eSenderKeyBytes]", ErrInvalidEngagement)
	}

	keyItem, err := dataitem.AsEncodedCBOR(security[1])
	if err != nil {
		return fmt.Errorf("%w: eSenderKeyBytes: %w", ErrInvalidEngagement, err)
	}
	coseKey, err := mdoc.COSEKeyFromDataItem(keyItem)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEngagement, err)
	}
	if e.ESenderKey, err = coseKey.PublicKey(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEngagement, err)
	}
	e.ESenderKeyBytes = dataitem.Encode(security[1])
	return nil
}
