package mdoc

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"

	"github.com/kokukuma/mdoc-issuance/dataitem"
)

// COSE key type and curve identifiers (RFC 8152 tables 21 and 22).
const (
	KeyTypeEC2 = 2

	P256          = 1
	P384          = 2
	P521          = 3
	BrainpoolP256 = 8
	BrainpoolP384 = 9
	BrainpoolP512 = 10
)

type COSEKey struct {
	Kty       int             `cbor:"1,keyasint,omitempty"`
	Kid       []byte          `cbor:"2,keyasint,omitempty"`
	Alg       int             `cbor:"3,keyasint,omitempty"`
	KeyOpts   int             `cbor:"4,keyasint,omitempty"`
	IV        []byte          `cbor:"5,keyasint,omitempty"`
	CrvOrNOrK cbor.RawMessage `cbor:"-1,keyasint,omitempty"` // K for symmetric keys, Crv for elliptic curve keys, N for RSA modulus
	XOrE      cbor.RawMessage `cbor:"-2,keyasint,omitempty"` // X for curve x-coordinate, E for RSA public exponent
	Y         cbor.RawMessage `cbor:"-3,keyasint,omitempty"` // Y for curve y-cooridate
	D         []byte          `cbor:"-4,keyasint,omitempty"`
}

// NewCOSEKey converts an EC2 public key on P-256, P-384 or P-521.
func NewCOSEKey(pub *ecdsa.PublicKey) (*COSEKey, error) {
	if pub == nil {
		return nil, ErrInvalidKeyType{Reason: "public key is nil"}
	}

	var crv int
	switch pub.Curve {
	case elliptic.P256():
		crv = P256
	case elliptic.P384():
		crv = P384
	case elliptic.P521():
		crv = P521
	default:
		return nil, ErrInvalidKeyType{Reason: fmt.Sprintf("unsupported curve: %s", pub.Curve.Params().Name)}
	}
	size := (pub.Curve.Params().BitSize + 7) / 8

	crvRaw, err := cbor.Marshal(crv)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal curve: %w", err)
	}
	xRaw, err := cbor.Marshal(pub.X.FillBytes(make([]byte, size)))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal X coordinate: %w", err)
	}
	yRaw, err := cbor.Marshal(pub.Y.FillBytes(make([]byte, size)))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Y coordinate: %w", err)
	}

	return &COSEKey{Kty: KeyTypeEC2, CrvOrNOrK: crvRaw, XOrE: xRaw, Y: yRaw}, nil
}

// COSEKeyFromDataItem reads a COSE_Key map.
func COSEKeyFromDataItem(item dataitem.DataItem) (*COSEKey, error) {
	var key COSEKey
	if err := dataitem.ToNative(item, &key); err != nil {
		return nil, fmt.Errorf("failed to parse COSE_Key: %w", err)
	}
	return &key, nil
}

// DataItem returns the key as a canonically ordered map.
func (k *COSEKey) DataItem() (dataitem.DataItem, error) {
	return dataitem.FromNative(k)
}

func (k *COSEKey) PublicKey() (*ecdsa.PublicKey, error) {
	return parseECDSA(k)
}

func parseECDSA(coseKey *COSEKey) (*ecdsa.PublicKey, error) {
	if coseKey == nil {
		return nil, ErrInvalidKeyType{Reason: "cose key is nil"}
	}
	if coseKey.Kty != KeyTypeEC2 {
		return nil, ErrInvalidKeyType{Reason: fmt.Sprintf("unsupported key type: %d", coseKey.Kty)}
	}

	var crv int
	if err := cbor.Unmarshal(coseKey.CrvOrNOrK, &crv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal curve: %w", err)
	}

	var xBytes []byte
	if err := cbor.Unmarshal(coseKey.XOrE, &xBytes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal X coordinate: %w", err)
	}

	var yBytes []byte
	if err := cbor.Unmarshal(coseKey.Y, &yBytes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Y coordinate: %w", err)
	}

	if len(xBytes) == 0 || len(yBytes) == 0 {
		return nil, ErrInvalidKeyType{Reason: "invalid coordinates"}
	}

	var curve elliptic.Curve
	switch crv {
	case P256:
		curve = elliptic.P256()
	case P384:
		curve = elliptic.P384()
	case P521:
		curve = elliptic.P521()
	default:
		return nil, ErrInvalidKeyType{Reason: fmt.Sprintf("unsupported curve: %d", crv)}
	}

	pubKey := &ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}
	if !curve.IsOnCurve(pubKey.X, pubKey.Y) {
		return nil, ErrInvalidKeyType{Reason: "point is not on the curve"}
	}

	return pubKey, nil
}
