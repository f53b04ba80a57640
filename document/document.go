// Package document names the mDL data elements this issuer can put in a
// credential and checks issued values against their expected encoding.
package document

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kokukuma/mdoc-issuance/dataitem"
	"github.com/kokukuma/mdoc-issuance/mdoc"
)

var (
	IsoMDL mdoc.DocType = "org.iso.18013.5.1.mDL"

	ISO1801351 mdoc.NameSpace = "org.iso.18013.5.1"
)

var (
	IsoFamilyName       mdoc.ElementIdentifier = "family_name"
	IsoGivenName        mdoc.ElementIdentifier = "given_name"
	IsoBirthDate        mdoc.ElementIdentifier = "birth_date"
	IsoIssueDate        mdoc.ElementIdentifier = "issue_date"
	IsoExpiryDate       mdoc.ElementIdentifier = "expiry_date"
	IsoIssuingCountry   mdoc.ElementIdentifier = "issuing_country"
	IsoIssuingAuthority mdoc.ElementIdentifier = "issuing_authority"
	IsoDocumentNumber   mdoc.ElementIdentifier = "document_number"
	IsoPortrait         mdoc.ElementIdentifier = "portrait"
	IsoNationality      mdoc.ElementIdentifier = "nationality"
	IsoAgeInYears       mdoc.ElementIdentifier = "age_in_years"
	IsoAgeBirthYear     mdoc.ElementIdentifier = "age_birth_year"
)

type valueKind int

const (
	kindText valueKind = iota
	kindFullDate
	kindBytes
	kindUint
	kindBool
)

var isoElements = map[mdoc.ElementIdentifier]valueKind{
	IsoFamilyName:       kindText,
	IsoGivenName:        kindText,
	IsoBirthDate:        kindFullDate,
	IsoIssueDate:        kindFullDate,
	IsoExpiryDate:       kindFullDate,
	IsoIssuingCountry:   kindText,
	IsoIssuingAuthority: kindText,
	IsoDocumentNumber:   kindText,
	IsoPortrait:         kindBytes,
	IsoNationality:      kindText,
	IsoAgeInYears:       kindUint,
	IsoAgeBirthYear:     kindUint,
}

// ErrValidation reports an element this issuer must not sign as given.
type ErrValidation struct {
	Field   string
	Message string
}

func (e ErrValidation) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

func AgeOver(age int) (mdoc.ElementIdentifier, error) {
	if age < 0 || age > 99 {
		return mdoc.ElementIdentifier(""), fmt.Errorf("unsupported range of age: %v", age)
	}
	return mdoc.ElementIdentifier(fmt.Sprintf("age_over_%02d", age)), nil
}

func isAgeOver(id mdoc.ElementIdentifier) bool {
	nn, ok := strings.CutPrefix(string(id), "age_over_")
	if !ok || len(nn) != 2 {
		return false
	}
	_, err := strconv.Atoi(nn)
	return err == nil
}

// Validate checks that every element is known in the ISO name space and
// carries a value of the expected kind.
func Validate(elements []mdoc.Element) error {
	seen := map[mdoc.ElementIdentifier]bool{}
	for _, e := range elements {
		if seen[e.Identifier] {
			return ErrValidation{Field: string(e.Identifier), Message: "duplicate element"}
		}
		seen[e.Identifier] = true

		kind, ok := isoElements[e.Identifier]
		if !ok && isAgeOver(e.Identifier) {
			kind, ok = kindBool, true
		}
		if !ok {
			return ErrValidation{Field: string(e.Identifier), Message: "unknown element"}
		}
		if err := checkKind(kind, e.Value); err != nil {
			return ErrValidation{Field: string(e.Identifier), Message: err.Error()}
		}
	}
	return nil
}

func checkKind(kind valueKind, item dataitem.DataItem) error {
	var err error
	switch kind {
	case kindText:
		_, err = dataitem.AsText(item)
	case kindBytes:
		_, err = dataitem.AsBytes(item)
	case kindUint:
		_, err = dataitem.AsUint64(item)
	case kindBool:
		_, err = dataitem.AsBool(item)
	case kindFullDate:
		tagged, ok := item.(dataitem.Tagged)
		if !ok || tagged.Tag != dataitem.TagFullDate {
			return fmt.Errorf("want full-date")
		}
		var s string
		if s, err = dataitem.AsText(tagged.Item); err == nil {
			_, err = time.Parse(time.DateOnly, s)
		}
	}
	return err
}

func FullDate(t time.Time) dataitem.DataItem {
	return dataitem.Tagged{Tag: dataitem.TagFullDate, Item: dataitem.Tstr(t.Format(time.DateOnly))}
}

// AgeElements derives age_in_years, age_birth_year and the age_over_NN
// statements for thresholds from a birth date as of now.
func AgeElements(birthDate, now time.Time, thresholds ...int) ([]mdoc.Element, error) {
	age := now.Year() - birthDate.Year()
	if now.Month() < birthDate.Month() || (now.Month() == birthDate.Month() && now.Day() < birthDate.Day()) {
		age--
	}
	if age < 0 {
		return nil, ErrValidation{Field: string(IsoBirthDate), Message: "birth date is in the future"}
	}

	elements := []mdoc.Element{
		{Identifier: IsoAgeInYears, Value: dataitem.Unsigned(uint(age))},
		{Identifier: IsoAgeBirthYear, Value: dataitem.Unsigned(uint(birthDate.Year()))},
	}
	for _, threshold := range thresholds {
		id, err := AgeOver(threshold)
		if err != nil {
			return nil, err
		}
		elements = append(elements, mdoc.Element{Identifier: id, Value: dataitem.Bool(age >= threshold)})
	}
	return elements, nil
}
