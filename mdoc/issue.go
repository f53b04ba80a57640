package mdoc

import (
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"
	"io"
	"sort"

	"github.com/veraison/go-cose"

	"github.com/kokukuma/mdoc-issuance/dataitem"
)

const msoVersion = "1.0"

type IssuerOption func(*Issuer)

// WithCertificateChain puts the DER encoded document signer chain into the
// x5chain header.
func WithCertificateChain(chain [][]byte) IssuerOption {
	return func(i *Issuer) {
		i.x5chain = chain
	}
}

// WithDigestAlgorithm sets the value digest algorithm. The default is
// SHA-256.
func WithDigestAlgorithm(alg string) IssuerOption {
	return func(i *Issuer) {
		i.digestAlgorithm = alg
	}
}

func WithRandom(r io.Reader) IssuerOption {
	return func(i *Issuer) {
		i.rand = r
	}
}

// Issuer produces IssuerSigned structures signed by a document signer key.
type Issuer struct {
	signer          cose.Signer
	x5chain         [][]byte
	digestAlgorithm string
	rand            io.Reader
}

func NewIssuer(signer cose.Signer, opts ...IssuerOption) *Issuer {
	issuer := &Issuer{
		signer:          signer,
		digestAlgorithm: "SHA-256",
		rand:            rand.Reader,
	}

	for _, opt := range opts {
		opt(issuer)
	}
	return issuer
}

// Element is a data element to issue.
type Element struct {
	Identifier ElementIdentifier
	Value      dataitem.DataItem
}

// Issue digests every element, binds the credential to deviceKey and signs
// the resulting MSO. Digest ids are assigned in order across name spaces
// sorted by name.
func (i *Issuer) Issue(docType DocType, deviceKey *ecdsa.PublicKey, validity ValidityInfo, elements map[NameSpace][]Element) (*IssuerSigned, error) {
	coseKey, err := NewCOSEKey(deviceKey)
	if err != nil {
		return nil, fmt.Errorf("failed to convert device key: %w", err)
	}

	nss := make([]NameSpace, 0, len(elements))
	for ns := range elements {
		nss = append(nss, ns)
	}
	sort.Slice(nss, func(a, b int) bool { return nss[a] < nss[b] })

	nameSpaces := IssuerNameSpaces{}
	valueDigests := ValueDigests{}
	var digestID DigestID
	for _, ns := range nss {
		valueDigests[ns] = DigestIDs{}
		for _, element := range elements[ns] {
			itemBytes, err := i.newItemBytes(digestID, element)
			if err != nil {
				return nil, err
			}
			digest, err := itemBytes.Digest(i.digestAlgorithm)
			if err != nil {
				return nil, fmt.Errorf("failed to digest %s: %w", element.Identifier, err)
			}
			nameSpaces[ns] = append(nameSpaces[ns], itemBytes)
			valueDigests[ns][digestID] = digest
			digestID++
		}
	}

	mso := MobileSecurityObject{
		Version:         msoVersion,
		DigestAlgorithm: i.digestAlgorithm,
		ValueDigests:    valueDigests,
		DeviceKeyInfo:   DeviceKeyInfo{DeviceKey: coseKey},
		DocType:         docType,
		ValidityInfo:    validity,
	}
	msoItem, err := dataitem.FromNative(mso)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal MSO: %w", err)
	}

	headers := cose.Headers{
		Protected: cose.ProtectedHeader{
			cose.HeaderLabelAlgorithm: i.signer.Algorithm(),
		},
		Unprotected: cose.UnprotectedHeader{},
	}
	switch len(i.x5chain) {
	case 0:
	case 1:
		headers.Unprotected[cose.HeaderLabelX5Chain] = i.x5chain[0]
	default:
		headers.Unprotected[cose.HeaderLabelX5Chain] = i.x5chain
	}

	msg := cose.UntaggedSign1Message{
		Headers: headers,
		Payload: dataitem.Encode(dataitem.EncodedCBOR(msoItem)),
	}
	if err := msg.Sign(i.rand, nil, i.signer); err != nil {
		return nil, fmt.Errorf("failed to sign MSO: %w", err)
	}

	return &IssuerSigned{NameSpaces: nameSpaces, IssuerAuth: msg}, nil
}

func (i *Issuer) newItemBytes(digestID DigestID, element Element) (IssuerSignedItemBytes, error) {
	random := make([]byte, 16)
	if _, err := io.ReadFull(i.rand, random); err != nil {
		return nil, fmt.Errorf("failed to generate random: %w", err)
	}
	item, err := dataitem.FromNative(IssuerSignedItem{
		DigestID:          digestID,
		Random:            random,
		ElementIdentifier: element.Identifier,
		ElementValue:      dataitem.Value{Item: element.Value},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", element.Identifier, err)
	}
	return IssuerSignedItemBytes(dataitem.Encode(item)), nil
}
