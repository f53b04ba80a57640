package dataitem

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/fxamacker/cbor/v2"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func TestEncodeCanonical(t *testing.T) {
	tests := []struct {
		name string
		item DataItem
		want string
	}{
		{name: "uint 0", item: Uint(0), want: "00"},
		{name: "uint 23", item: Uint(23), want: "17"},
		{name: "uint 24", item: Uint(24), want: "1818"},
		{name: "uint 255", item: Uint(255), want: "18ff"},
		{name: "uint 256", item: Uint(256), want: "190100"},
		{name: "uint 65536", item: Uint(65536), want: "1a00010000"},
		{name: "uint 2^32", item: Uint(1 << 32), want: "1b0000000100000000"},
		{name: "int -1", item: Int(-1), want: "20"},
		{name: "int -24", item: Int(-24), want: "37"},
		{name: "int -25", item: Int(-25), want: "3818"},
		{name: "int -1000", item: Int(-1000), want: "3903e7"},
		{name: "int min", item: Int(int64(math.MinInt64)), want: "3b7fffffffffffffff"},
		{name: "text", item: Tstr("IETF"), want: "6449455446"},
		{name: "empty text", item: Tstr(""), want: "60"},
		{name: "bytes", item: Bstr{1, 2, 3, 4}, want: "4401020304"},
		{name: "false", item: Bool(false), want: "f4"},
		{name: "true", item: Bool(true), want: "f5"},
		{name: "null", item: Null, want: "f6"},
		{name: "float", item: Float(100000.0), want: "fa47c35000"},
		{name: "float stays single", item: Float(1.5), want: "fa3fc00000"},
		{name: "double", item: Double(1.1), want: "fb3ff199999999999a"},
		{name: "double stays double", item: Double(1.5), want: "fb3ff8000000000000"},
		{name: "date-time", item: Tagged{Tag: 0, Item: Tstr("2013-03-21T20:04:00Z")}, want: "c074323031332d30332d32315432303a30343a30305a"},
		{name: "nested array", item: Array{Uint(1), Array{Uint(2), Uint(3)}}, want: "8201820203"},
		{name: "map", item: NewMapBuilder().PutInt(1, Uint(2)).PutInt(3, Uint(4)).Build(), want: "a201020304"},
		{name: "nil is null", item: nil, want: "f6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.item)
			if want := mustHex(t, tt.want); !bytes.Equal(got, want) {
				t.Errorf("Encode() = %x, want %x", got, want)
			}
		})
	}
}

func TestEncodeMatchesReferenceEncoder(t *testing.T) {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		t.Fatalf("failed to create enc mode: %v", err)
	}

	for _, v := range []int64{0, 1, 23, 24, 255, 256, 65535, 65536, math.MaxUint32, math.MaxUint32 + 1, math.MaxInt64, -1, -24, -25, -256, -257, -65537, math.MinInt64} {
		want, err := em.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal %d: %v", v, err)
		}
		if got := Encode(Int(v)); !bytes.Equal(got, want) {
			t.Errorf("Encode(Int(%d)) = %x, want %x", v, got, want)
		}
	}

	for _, s := range []string{"", "a", "mdoc", string(bytes.Repeat([]byte("x"), 300))} {
		want, err := em.Marshal(s)
		if err != nil {
			t.Fatalf("failed to marshal %q: %v", s, err)
		}
		if got := Encode(Tstr(s)); !bytes.Equal(got, want) {
			t.Errorf("Encode(Tstr(%q)) = %x, want %x", s, got, want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	nested := NewMapBuilder().
		PutText("name", Tstr("Erika")).
		PutInt(-7, Bstr{0xde, 0xad}).
		Put(Array{Uint(1)}, Double(-0.5)).
		Build()

	items := []DataItem{
		Uint(0),
		Uint(math.MaxUint64),
		Nint(0),
		Nint(math.MaxUint64),
		Int(int8(-128)),
		Tstr("üñíçødé"),
		Bstr{},
		Bstr(bytes.Repeat([]byte{0xab}, 70000)),
		True,
		False,
		Null,
		Undefined,
		Simple{0},
		Simple{19},
		Simple{32},
		Simple{255},
		Float(float32(math.Inf(-1))),
		Float(3.25),
		Double(math.MaxFloat64),
		Double(math.Inf(1)),
		DateTimeStringFromMillis(1700000000123),
		EncodedCBOR(Array{Tstr("x")}),
		Tagged{Tag: math.MaxUint64, Item: Uint(1)},
		Array{},
		Array{Uint(1), Tstr("two"), Array{Float(3)}, nested},
		NewMapBuilder().Build(),
		nested,
	}

	for _, item := range items {
		encoded := Encode(item)
		got, err := Decode(encoded)
		if err != nil {
			t.Fatalf("Decode(%x) error = %v", encoded, err)
		}
		if got.MajorType() != item.MajorType() {
			t.Errorf("major type = %d, want %d", got.MajorType(), item.MajorType())
		}
		if !Equal(got, item) {
			t.Errorf("round trip mismatch:\n got: %s\nwant: %s", spew.Sdump(got), spew.Sdump(item))
		}
	}
}

func TestNewSimple(t *testing.T) {
	tests := []struct {
		v       byte
		wantErr bool
	}{
		{v: 0},
		{v: 23},
		{v: 24, wantErr: true},
		{v: 25, wantErr: true},
		{v: 31, wantErr: true},
		{v: 32},
		{v: 255},
	}

	for _, tt := range tests {
		s, err := NewSimple(tt.v)
		if tt.wantErr {
			if !errors.Is(err, ErrSimpleValue) {
				t.Errorf("NewSimple(%d) error = %v, want ErrSimpleValue", tt.v, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NewSimple(%d) error = %v", tt.v, err)
		}
		if s.Value() != tt.v {
			t.Errorf("NewSimple(%d).Value() = %d", tt.v, s.Value())
		}
		got, err := Decode(Encode(s))
		if err != nil {
			t.Fatalf("Decode(Encode(simple(%d))) error = %v", tt.v, err)
		}
		if got != DataItem(s) {
			t.Errorf("round trip of simple(%d) = %#v", tt.v, got)
		}
	}
}

func TestRoundTripKeepsFloatKind(t *testing.T) {
	got, err := Decode(Encode(Float(2.5)))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if _, ok := got.(Float); !ok {
		t.Fatalf("Decode() = %T, want Float", got)
	}

	got, err = Decode(Encode(Double(2.5)))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if _, ok := got.(Double); !ok {
		t.Fatalf("Decode() = %T, want Double", got)
	}
}

func TestMapPreservesInsertionOrder(t *testing.T) {
	m := NewMapBuilder().
		PutText("zeta", Uint(1)).
		PutInt(10, Uint(2)).
		PutText("alpha", Uint(3)).
		PutInt(-1, Uint(4)).
		Build()

	got, err := Decode(Encode(m))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	decoded, err := AsMap(got)
	if err != nil {
		t.Fatalf("AsMap() error = %v", err)
	}

	want := m.Entries()
	entries := decoded.Entries()
	if len(entries) != len(want) {
		t.Fatalf("len = %d, want %d", len(entries), len(want))
	}
	for i := range want {
		if !Equal(entries[i].Key, want[i].Key) || !Equal(entries[i].Value, want[i].Value) {
			t.Errorf("entry %d = %s, want %s", i, Diagnostics(entries[i].Key), Diagnostics(want[i].Key))
		}
	}
}

func TestMapBuilder(t *testing.T) {
	b := NewMapBuilder().PutInt(1, Tstr("a")).PutInt(2, Tstr("b"))
	b.PutInt(1, Tstr("c"))
	m := b.Build()

	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}
	if first := m.Entries()[0]; !Equal(first.Value, Tstr("c")) {
		t.Errorf("replaced value = %s, want \"c\" in first position", Diagnostics(first.Value))
	}

	b.PutInt(3, Tstr("d"))
	if m.Len() != 2 {
		t.Errorf("built map changed after further Put: Len() = %d", m.Len())
	}

	if v, ok := m.GetInt(2); !ok || !Equal(v, Tstr("b")) {
		t.Errorf("GetInt(2) = %v, %v", v, ok)
	}
	if _, ok := m.GetText("missing"); ok {
		t.Error("GetText(missing) found a value")
	}
	if _, ok := m.Get(Uint(1)); !ok {
		t.Error("Get(Uint(1)) did not match key stored with Int(1)")
	}
}
