// Package presentation holds credential presentation objects: the issuer
// signed data an issuing authority hands the holder, bound to one of the
// holder's authentication keys.
package presentation

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/kokukuma/mdoc-issuance/dataitem"
	"github.com/kokukuma/mdoc-issuance/mdoc"
)

var ErrDeviceKeyMismatch = errors.New("presentation: MSO device key does not match authentication key")

type Object struct {
	AuthenticationKey *ecdsa.PublicKey
	ValidFromMillis   int64
	ValidUntilMillis  int64
	// PresentationData is the encoded IssuerSigned structure.
	PresentationData []byte
}

func New(authKey *ecdsa.PublicKey, validFrom, validUntil time.Time, issuerSigned *mdoc.IssuerSigned) (*Object, error) {
	data, err := cbor.Marshal(issuerSigned)
	if err != nil {
		return nil, fmt.Errorf("failed to encode issuer signed: %w", err)
	}
	return &Object{
		AuthenticationKey: authKey,
		ValidFromMillis:   validFrom.UnixMilli(),
		ValidUntilMillis:  validUntil.UnixMilli(),
		PresentationData:  data,
	}, nil
}

func (o *Object) ValidFrom() time.Time  { return time.UnixMilli(o.ValidFromMillis).UTC() }
func (o *Object) ValidUntil() time.Time { return time.UnixMilli(o.ValidUntilMillis).UTC() }

// ValidAt reports whether t lies in [ValidFrom, ValidUntil).
func (o *Object) ValidAt(t time.Time) bool {
	ms := t.UnixMilli()
	return ms >= o.ValidFromMillis && ms < o.ValidUntilMillis
}

// ValidityDataItems returns validFrom and validUntil as tag 0 date-time
// strings.
func (o *Object) ValidityDataItems() (validFrom, validUntil dataitem.Tagged) {
	return dataitem.DateTimeStringFromMillis(o.ValidFromMillis), dataitem.DateTimeStringFromMillis(o.ValidUntilMillis)
}

func (o *Object) IssuerSigned() (*mdoc.IssuerSigned, error) {
	var issuerSigned mdoc.IssuerSigned
	if err := cbor.Unmarshal(o.PresentationData, &issuerSigned); err != nil {
		return nil, fmt.Errorf("failed to decode presentation data: %w", err)
	}
	return &issuerSigned, nil
}

// CheckDeviceKey verifies the MSO was issued for AuthenticationKey.
func (o *Object) CheckDeviceKey() error {
	issuerSigned, err := o.IssuerSigned()
	if err != nil {
		return err
	}
	mso, err := issuerSigned.MobileSecurityObject()
	if err != nil {
		return fmt.Errorf("failed to get mso: %w", err)
	}
	deviceKey, err := mso.DeviceKey()
	if err != nil {
		return fmt.Errorf("failed to get device key: %w", err)
	}
	if o.AuthenticationKey == nil || !deviceKey.Equal(o.AuthenticationKey) {
		return ErrDeviceKeyMismatch
	}
	return nil
}

const (
	keyAuthenticationKey = "authenticationKey"
	keyValidFrom         = "validFrom"
	keyValidUntil        = "validUntil"
	keyPresentationData  = "presentationData"
)

// Encode serializes the object for storage on the holder.
func (o *Object) Encode() ([]byte, error) {
	coseKey, err := mdoc.NewCOSEKey(o.AuthenticationKey)
	if err != nil {
		return nil, fmt.Errorf("failed to convert authentication key: %w", err)
	}
	keyItem, err := coseKey.DataItem()
	if err != nil {
		return nil, fmt.Errorf("failed to encode authentication key: %w", err)
	}
	validFrom, validUntil := o.ValidityDataItems()

	return dataitem.Encode(dataitem.NewMapBuilder().
		PutText(keyAuthenticationKey, keyItem).
		PutText(keyValidFrom, validFrom).
		PutText(keyValidUntil, validUntil).
		PutText(keyPresentationData, dataitem.Bstr(o.PresentationData)).
		Build()), nil
}

func Decode(data []byte) (*Object, error) {
	item, err := dataitem.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode presentation object: %w", err)
	}
	m, err := dataitem.AsMap(item)
	if err != nil {
		return nil, err
	}

	get := func(key string) (dataitem.DataItem, error) {
		v, ok := m.GetText(key)
		if !ok {
			return nil, fmt.Errorf("presentation: missing %s", key)
		}
		return v, nil
	}

	keyItem, err := get(keyAuthenticationKey)
	if err != nil {
		return nil, err
	}
	coseKey, err := mdoc.COSEKeyFromDataItem(keyItem)
	if err != nil {
		return nil, err
	}
	authKey, err := coseKey.PublicKey()
	if err != nil {
		return nil, err
	}

	o := &Object{AuthenticationKey: authKey}
	for key, dst := range map[string]*int64{keyValidFrom: &o.ValidFromMillis, keyValidUntil: &o.ValidUntilMillis} {
		v, err := get(key)
		if err != nil {
			return nil, err
		}
		t, err := dataitem.AsDateTime(v)
		if err != nil {
			return nil, fmt.Errorf("presentation: %s: %w", key, err)
		}
		*dst = t.UnixMilli()
	}

	dataItem, err := get(keyPresentationData)
	if err != nil {
		return nil, err
	}
	if o.PresentationData, err = dataitem.AsBytes(dataItem); err != nil {
		return nil, fmt.Errorf("presentation: %s: %w", keyPresentationData, err)
	}
	return o, nil
}
