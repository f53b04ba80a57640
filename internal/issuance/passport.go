package issuance

import (
	"encoding/asn1"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kokukuma/mdoc-issuance/dataitem"
	"github.com/kokukuma/mdoc-issuance/document"
	"github.com/kokukuma/mdoc-issuance/evidence"
	"github.com/kokukuma/mdoc-issuance/mdoc"
)

// Data group 1 holds the machine readable zone of the document.
const dataGroupMRZ = 1

// LDS tags of EF.DG1 (ICAO 9303 part 10).
const (
	tagDG1 = 0x01 // application 1, 0x61
	tagMRZ = 0x1f // application 31, 0x5F1F
)

var ErrInvalidMRZ = errors.New("issuance: invalid machine readable zone")

// mrz is the part of the machine readable zone that ends up in an mDL.
type mrz struct {
	familyName string
	givenName  string
	birthDate  string // YYMMDD
}

// passportDG1 returns EF.DG1 from a passport response, if it carries one.
func passportDG1(response evidence.Response) ([]byte, bool) {
	var groups map[int][]byte
	switch r := response.(type) {
	case evidence.IcaoNfcTunnelResultResponse:
		groups = r.DataGroups
	case *evidence.IcaoNfcTunnelResultResponse:
		groups = r.DataGroups
	case evidence.IcaoPassiveAuthenticationResponse:
		groups = r.DataGroups
	case *evidence.IcaoPassiveAuthenticationResponse:
		groups = r.DataGroups
	}
	dg1, ok := groups[dataGroupMRZ]
	return dg1, ok && len(dg1) > 0
}

// passportElements maps EF.DG1 to the name and birth date elements.
func passportElements(dg1 []byte, now time.Time) ([]mdoc.Element, error) {
	zone, err := parseDG1(dg1)
	if err != nil {
		return nil, err
	}
	m, err := parseMRZ(zone)
	if err != nil {
		return nil, err
	}
	birthDate, err := mrzDate(m.birthDate, now)
	if err != nil {
		return nil, err
	}

	elements := []mdoc.Element{
		{Identifier: document.IsoFamilyName, Value: dataitem.Tstr(m.familyName)},
		{Identifier: document.IsoGivenName, Value: dataitem.Tstr(m.givenName)},
	}
	ages, err := birthElements(birthDate, now)
	if err != nil {
		return nil, err
	}
	return append(elements, ages...), nil
}

func parseDG1(dg1 []byte) (string, error) {
	var outer asn1.RawValue
	rest, err := asn1.Unmarshal(dg1, &outer)
	if err != nil {
		return "", fmt.Errorf("%w: DG1: %w", ErrInvalidMRZ, err)
	}
	if len(rest) > 0 || outer.Class != asn1.ClassApplication || outer.Tag != tagDG1 {
		return "", fmt.Errorf("%w: DG1: unexpected tag %d", ErrInvalidMRZ, outer.Tag)
	}

	var inner asn1.RawValue
	if _, err := asn1.Unmarshal(outer.Bytes, &inner); err != nil {
		return "", fmt.Errorf("%w: DG1: %w", ErrInvalidMRZ, err)
	}
	if inner.Class != asn1.ClassApplication || inner.Tag != tagMRZ {
		return "", fmt.Errorf("%w: DG1: unexpected inner tag %d", ErrInvalidMRZ, inner.Tag)
	}
	return string(inner.Bytes), nil
}

// parseMRZ reads the TD3 (passport, 2x44) and TD1 (ID card, 3x30) formats.
func parseMRZ(zone string) (*mrz, error) {
	var names, birth string
	var check byte
	switch len(zone) {
	case 88:
		names, birth, check = zone[5:44], zone[57:63], zone[63]
	case 90:
		names, birth, check = zone[60:90], zone[30:36], zone[36]
	default:
		return nil, fmt.Errorf("%w: length %d", ErrInvalidMRZ, len(zone))
	}
	if checkDigit(birth) != check {
		return nil, fmt.Errorf("%w: birth date check digit", ErrInvalidMRZ)
	}

	familyName, givenName, _ := strings.Cut(names, "<<")
	return &mrz{
		familyName: mrzText(familyName),
		givenName:  mrzText(givenName),
		birthDate:  birth,
	}, nil
}

func mrzText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "<", " "))
}

// checkDigit computes the 7-3-1 weighted check digit of ICAO 9303 part 3.
func checkDigit(s string) byte {
	weights := [3]int{7, 3, 1}
	sum := 0
	for i := 0; i < len(s); i++ {
		var v int
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			v = int(c - '0')
		case c >= 'A' && c <= 'Z':
			v = int(c-'A') + 10
		}
		sum += v * weights[i%3]
	}
	return byte('0' + sum%10)
}

// mrzDate resolves a YYMMDD birth date to the latest century that does not
// put it in the future.
func mrzDate(s string, now time.Time) (time.Time, error) {
	yy, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: birth date %q", ErrInvalidMRZ, s)
	}
	century := now.Year() / 100 * 100
	if century+yy > now.Year() {
		century -= 100
	}
	t, err := time.Parse("2006-0102", strconv.Itoa(century+yy)+"-"+s[2:])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: birth date %q", ErrInvalidMRZ, s)
	}
	return t, nil
}
