// Package session_transcript builds the SessionTranscript (ISO/IEC 18013-5
// clause 9.1.5.1) both sides of a proximity session derive keys from.
package session_transcript

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/kokukuma/mdoc-issuance/dataitem"
	"github.com/kokukuma/mdoc-issuance/mdoc"
)

// QRHandover returns the transcript for an engagement shown as a QR code:
// [DeviceEngagementBytes, EReaderKeyBytes, null].
func QRHandover(deviceEngagement []byte, eReaderKey *ecdsa.PublicKey) ([]byte, error) {
	return transcript(deviceEngagement, eReaderKey, dataitem.Null)
}

// NFCHandover returns the transcript for an NFC static or negotiated
// handover. handoverRequest is nil for static handover and is then encoded
// as null.
func NFCHandover(deviceEngagement []byte, eReaderKey *ecdsa.PublicKey, handoverSelect, handoverRequest []byte) ([]byte, error) {
	if len(handoverSelect) == 0 {
		return nil, errors.New("handoverSelect cannot be empty")
	}

	var hr dataitem.DataItem = dataitem.Null
	if handoverRequest != nil {
		hr = dataitem.Bstr(handoverRequest)
	}
	return transcript(deviceEngagement, eReaderKey, dataitem.Array{dataitem.Bstr(handoverSelect), hr})
}

func transcript(deviceEngagement []byte, eReaderKey *ecdsa.PublicKey, handover dataitem.DataItem) ([]byte, error) {
	if len(deviceEngagement) == 0 {
		return nil, errors.New("deviceEngagement cannot be empty")
	}
	if _, err := dataitem.Decode(deviceEngagement); err != nil {
		return nil, fmt.Errorf("failed to decode device engagement: %w", err)
	}

	coseKey, err := mdoc.NewCOSEKey(eReaderKey)
	if err != nil {
		return nil, fmt.Errorf("failed to convert eReaderKey: %w", err)
	}
	keyItem, err := coseKey.DataItem()
	if err != nil {
		return nil, fmt.Errorf("failed to encode eReaderKey: %w", err)
	}

	return dataitem.Encode(dataitem.Array{
		// The engagement is wrapped as received so the transcript matches
		// the bytes the holder hashed.
		dataitem.Tagged{Tag: dataitem.TagEncodedCBOR, Item: dataitem.Bstr(deviceEngagement)},
		dataitem.EncodedCBOR(keyItem),
		handover,
	}), nil
}
