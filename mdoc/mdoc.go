// Package mdoc holds the issuer-signed part of a mobile document (ISO/IEC
// 18013-5 clause 8.3.2.1.2.2): the signed Mobile Security Object and the
// data elements it covers.
package mdoc

import (
	"crypto/ecdsa"
	"crypto/x509"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"

	"github.com/kokukuma/mdoc-issuance/dataitem"
	"github.com/kokukuma/mdoc-issuance/pkg/hash"
)

type DocType string

type NameSpace string

type ElementIdentifier string

type DigestID uint32

type Digest []byte

type IssuerSigned struct {
	NameSpaces IssuerNameSpaces          `json:"nameSpaces,omitempty"`
	IssuerAuth cose.UntaggedSign1Message `json:"issuerAuth"`
}

// GetNameSpaces returns the name spaces in sorted order.
func (i *IssuerSigned) GetNameSpaces() []NameSpace {
	nss := []NameSpace{}
	for ns := range i.NameSpaces {
		nss = append(nss, ns)
	}
	sort.Slice(nss, func(a, b int) bool { return nss[a] < nss[b] })
	return nss
}

func (i *IssuerSigned) GetIssuerSignedItems(ns NameSpace) ([]IssuerSignedItem, error) {
	isis := []IssuerSignedItem{}

	if len(i.NameSpaces[ns]) == 0 {
		return nil, ErrNamespaceNotFound{NameSpace: ns}
	}
	for _, b := range i.NameSpaces[ns] {
		isi, err := b.IssuerSignedItem()
		if err != nil {
			return nil, fmt.Errorf("failed to parse issuerSignedItem: %w", err)
		}
		isis = append(isis, *isi)
	}
	return isis, nil
}

// GetElementValue finds a data element by identifier.
func (i *IssuerSigned) GetElementValue(ns NameSpace, id ElementIdentifier) (dataitem.DataItem, error) {
	items, err := i.GetIssuerSignedItems(ns)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.ElementIdentifier == id {
			return item.ElementValue.Item, nil
		}
	}
	return nil, ErrElementNotFound{NameSpace: ns, ElementIdentifier: id}
}

func (i *IssuerSigned) Alg() (cose.Algorithm, error) {
	if i.IssuerAuth.Headers.Protected == nil {
		return 0, ErrMissingProtectedHeader{}
	}
	return i.IssuerAuth.Headers.Protected.Algorithm()
}

func (i *IssuerSigned) DocumentSigningCertificateChain() ([]*x509.Certificate, error) {
	if i.IssuerAuth.Headers.Unprotected == nil {
		return nil, ErrMissingHeaders{}
	}

	rawX5Chain, ok := i.IssuerAuth.Headers.Unprotected[cose.HeaderLabelX5Chain]
	if !ok {
		return nil, ErrX5ChainIssue{Reason: "x5chain not found in unprotected headers"}
	}

	var rawX5ChainBytes [][]byte
	switch v := rawX5Chain.(type) {
	case [][]byte:
		rawX5ChainBytes = v
	case []byte:
		rawX5ChainBytes = [][]byte{v}
	case []interface{}:
		for _, c := range v {
			b, ok := c.([]byte)
			if !ok {
				return nil, ErrX5ChainIssue{Reason: fmt.Sprintf("unexpected x5chain element type: %T", c)}
			}
			rawX5ChainBytes = append(rawX5ChainBytes, b)
		}
	default:
		return nil, ErrX5ChainIssue{Reason: fmt.Sprintf("unexpected x5chain type: %T", rawX5Chain)}
	}

	if len(rawX5ChainBytes) == 0 {
		return nil, ErrX5ChainIssue{Reason: "empty x5chain"}
	}

	certs := make([]*x509.Certificate, 0, len(rawX5ChainBytes))
	for _, certData := range rawX5ChainBytes {
		cert, err := x509.ParseCertificate(certData)
		if err != nil {
			return nil, fmt.Errorf("error parsing certificate: %w", err)
		}
		certs = append(certs, cert)
	}

	return certs, nil
}

func (i *IssuerSigned) MobileSecurityObject() (*MobileSecurityObject, error) {
	if i.IssuerAuth.Payload == nil {
		return nil, ErrMissingPayload{}
	}

	item, err := dataitem.Decode(i.IssuerAuth.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MSO payload: %w", err)
	}
	content, err := dataitem.AsEncodedCBOR(item)
	if err != nil {
		return nil, ErrInvalidTaggedContent{Cause: err}
	}

	var mso MobileSecurityObject
	if err := dataitem.ToNative(content, &mso); err != nil {
		return nil, fmt.Errorf("failed to unmarshal MSO: %w", err)
	}

	return &mso, nil
}

// CheckDigests recomputes the digest of every item and compares it with the
// value the MSO signs.
func (i *IssuerSigned) CheckDigests() error {
	mso, err := i.MobileSecurityObject()
	if err != nil {
		return err
	}
	for ns, itemBytes := range i.NameSpaces {
		for _, b := range itemBytes {
			item, err := b.IssuerSignedItem()
			if err != nil {
				return fmt.Errorf("failed to get IssuerSignedItem: %w", err)
			}
			want, err := mso.GetDigest(ns, item.DigestID)
			if err != nil {
				return err
			}
			calc, err := b.Digest(mso.DigestAlgorithm)
			if err != nil {
				return err
			}
			if !want.Equal(calc) {
				return ErrDigestMismatch{NameSpace: ns, DigestID: item.DigestID}
			}
		}
	}
	return nil
}

// VerifyIssuerAuth checks the COSE_Sign1 signature over the MSO.
func (i *IssuerSigned) VerifyIssuerAuth(verifier cose.Verifier) error {
	if err := i.IssuerAuth.Verify(nil, verifier); err != nil {
		return fmt.Errorf("failed to verify issuerAuth: %w", err)
	}
	return nil
}

type IssuerNameSpaces map[NameSpace][]IssuerSignedItemBytes

// IssuerSignedItemBytes is the encoded IssuerSignedItem. On the wire it is
// wrapped in a tag 24 byte string.
type IssuerSignedItemBytes []byte

func (i IssuerSignedItemBytes) MarshalCBOR() ([]byte, error) {
	return dataitem.Encode(dataitem.Tagged{Tag: dataitem.TagEncodedCBOR, Item: dataitem.Bstr(i)}), nil
}

func (i *IssuerSignedItemBytes) UnmarshalCBOR(data []byte) error {
	item, err := dataitem.Decode(data)
	if err != nil {
		return err
	}
	tagged, ok := item.(dataitem.Tagged)
	if !ok || tagged.Tag != dataitem.TagEncodedCBOR {
		return ErrInvalidTaggedContent{Cause: errors.New("issuer signed item is not tag 24")}
	}
	b, err := dataitem.AsBytes(tagged.Item)
	if err != nil {
		return ErrInvalidTaggedContent{Cause: err}
	}
	*i = b
	return nil
}

func (i IssuerSignedItemBytes) IssuerSignedItem() (*IssuerSignedItem, error) {
	if len(i) == 0 {
		return nil, fmt.Errorf("empty issuer signed item bytes")
	}
	var item IssuerSignedItem
	if err := cbor.Unmarshal(i, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal issuer signed item: %w", err)
	}
	return &item, nil
}

// Digest hashes the tag 24 wrapped item as the MSO value digests require.
func (i IssuerSignedItemBytes) Digest(alg string) (Digest, error) {
	tagged, err := i.MarshalCBOR()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tagged CBOR: %w", err)
	}
	d, err := hash.Digest(tagged, alg)
	if err != nil {
		return nil, err
	}
	return d, nil
}

type IssuerSignedItem struct {
	DigestID          DigestID          `json:"digestID"`
	Random            []byte            `json:"random"`
	ElementIdentifier ElementIdentifier `json:"elementIdentifier"`
	ElementValue      dataitem.Value    `json:"elementValue"`
}

type MobileSecurityObject struct {
	Version         string        `json:"version"`
	DigestAlgorithm string        `json:"digestAlgorithm"`
	ValueDigests    ValueDigests  `json:"valueDigests"`
	DeviceKeyInfo   DeviceKeyInfo `json:"deviceKeyInfo"`
	DocType         DocType       `json:"docType"`
	ValidityInfo    ValidityInfo  `json:"validityInfo"`
}

func (m *MobileSecurityObject) DeviceKey() (*ecdsa.PublicKey, error) {
	if m == nil || m.DeviceKeyInfo.DeviceKey == nil {
		return nil, ErrDeviceKeyNotAvailable{}
	}
	return m.DeviceKeyInfo.DeviceKey.PublicKey()
}

func (m *MobileSecurityObject) GetDigest(ns NameSpace, digestID DigestID) (Digest, error) {
	digests, ok := m.ValueDigests[ns]
	if !ok {
		return nil, ErrNamespaceDigestsNotFound{NameSpace: ns}
	}
	digest, ok := digests[digestID]
	if !ok {
		return nil, ErrDigestNotFound{NameSpace: ns, DigestID: digestID}
	}
	return digest, nil
}

type DeviceKeyInfo struct {
	DeviceKey *COSEKey `json:"deviceKey"`
}

type ValueDigests map[NameSpace]DigestIDs

type DigestIDs map[DigestID]Digest

type ValidityInfo struct {
	Signed         time.Time  `json:"signed"`
	ValidFrom      time.Time  `json:"validFrom"`
	ValidUntil     time.Time  `json:"validUntil"`
	ExpectedUpdate *time.Time `json:"expectedUpdate,omitempty"`
}

func (d Digest) Equal(other Digest) bool {
	return string(d) == string(other)
}
