package session_transcript

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/kokukuma/mdoc-issuance/dataitem"
	"github.com/kokukuma/mdoc-issuance/engagement"
)

func setup(t *testing.T) ([]byte, *ecdsa.PublicKey) {
	t.Helper()
	deviceKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	readerKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	de, err := engagement.NewGenerator(&deviceKey.PublicKey, engagement.Version10).Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return de, &readerKey.PublicKey
}

func decodeTranscript(t *testing.T, data []byte) dataitem.Array {
	t.Helper()
	item, err := dataitem.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	array, err := dataitem.AsArray(item)
	if err != nil || len(array) != 3 {
		t.Fatalf("transcript = %s, want array of 3", dataitem.Diagnostics(item))
	}
	return array
}

func TestQRHandover(t *testing.T) {
	de, readerKey := setup(t)

	got, err := QRHandover(de, readerKey)
	if err != nil {
		t.Fatalf("QRHandover() error = %v", err)
	}
	array := decodeTranscript(t, got)

	tagged, ok := array[0].(dataitem.Tagged)
	if !ok || tagged.Tag != dataitem.TagEncodedCBOR {
		t.Fatalf("DeviceEngagementBytes = %s", dataitem.Diagnostics(array[0]))
	}
	if embedded, _ := dataitem.AsBytes(tagged.Item); !bytes.Equal(embedded, de) {
		t.Errorf("DeviceEngagementBytes does not wrap the engagement")
	}
	if _, err := dataitem.AsEncodedCBOR(array[1]); err != nil {
		t.Errorf("EReaderKeyBytes: %v", err)
	}
	if array[2] != dataitem.Null {
		t.Errorf("Handover = %s, want null", dataitem.Diagnostics(array[2]))
	}
}

func TestNFCHandover(t *testing.T) {
	de, readerKey := setup(t)
	hs := []byte{0x91, 0x02, 0x0f}
	hr := []byte{0x91, 0x02, 0x11}

	tests := []struct {
		name string
		hr   []byte
		want dataitem.DataItem
	}{
		{name: "static", hr: nil, want: dataitem.Array{dataitem.Bstr(hs), dataitem.Null}},
		{name: "negotiated", hr: hr, want: dataitem.Array{dataitem.Bstr(hs), dataitem.Bstr(hr)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NFCHandover(de, readerKey, hs, tt.hr)
			if err != nil {
				t.Fatalf("NFCHandover() error = %v", err)
			}
			array := decodeTranscript(t, got)
			if !dataitem.Equal(array[2], tt.want) {
				t.Errorf("Handover = %s, want %s", dataitem.Diagnostics(array[2]), dataitem.Diagnostics(tt.want))
			}
		})
	}
}

func TestHandoverErrors(t *testing.T) {
	de, readerKey := setup(t)

	if _, err := QRHandover(nil, readerKey); err == nil {
		t.Error("QRHandover(empty engagement) error = nil")
	}
	if _, err := QRHandover([]byte{0xa1}, readerKey); !dataitem.IsFormatError(err) {
		t.Errorf("QRHandover(truncated) error = %v, want format error", err)
	}
	if _, err := QRHandover(de, nil); err == nil {
		t.Error("QRHandover(nil key) error = nil")
	}
	if _, err := NFCHandover(de, readerKey, nil, nil); err == nil {
		t.Error("NFCHandover(empty handoverSelect) error = nil")
	}
}
