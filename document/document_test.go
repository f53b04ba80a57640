package document

import (
	"errors"
	"testing"
	"time"

	"github.com/kokukuma/mdoc-issuance/dataitem"
	"github.com/kokukuma/mdoc-issuance/mdoc"
)

func TestAgeOver(t *testing.T) {
	tests := []struct {
		age     int
		want    mdoc.ElementIdentifier
		wantErr bool
	}{
		{age: 18, want: "age_over_18"},
		{age: 5, want: "age_over_05"},
		{age: 100, wantErr: true},
		{age: -1, wantErr: true},
	}
	for _, tt := range tests {
		got, err := AgeOver(tt.age)
		if (err != nil) != tt.wantErr {
			t.Errorf("AgeOver(%d) error = %v, wantErr %v", tt.age, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("AgeOver(%d) = %q, want %q", tt.age, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	date := FullDate(time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name     string
		elements []mdoc.Element
		wantErr  bool
	}{
		{
			name: "valid",
			elements: []mdoc.Element{
				{Identifier: IsoGivenName, Value: dataitem.Tstr("Erika")},
				{Identifier: IsoBirthDate, Value: date},
				{Identifier: IsoAgeInYears, Value: dataitem.Uint(34)},
				{Identifier: "age_over_18", Value: dataitem.Bool(true)},
			},
		},
		{name: "unknown", elements: []mdoc.Element{{Identifier: "favourite_colour", Value: dataitem.Tstr("blue")}}, wantErr: true},
		{name: "text as date", elements: []mdoc.Element{{Identifier: IsoBirthDate, Value: dataitem.Tstr("1990-04-01")}}, wantErr: true},
		{
			name:     "bad full-date",
			elements: []mdoc.Element{{Identifier: IsoBirthDate, Value: dataitem.Tagged{Tag: dataitem.TagFullDate, Item: dataitem.Tstr("1990-13-01")}}},
			wantErr:  true,
		},
		{name: "age_over not bool", elements: []mdoc.Element{{Identifier: "age_over_21", Value: dataitem.Uint(1)}}, wantErr: true},
		{name: "age_over one digit", elements: []mdoc.Element{{Identifier: "age_over_1", Value: dataitem.Bool(true)}}, wantErr: true},
		{
			name: "duplicate",
			elements: []mdoc.Element{
				{Identifier: IsoGivenName, Value: dataitem.Tstr("Erika")},
				{Identifier: IsoGivenName, Value: dataitem.Tstr("Erika")},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.elements)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			var verr ErrValidation
			if err != nil && !errors.As(err, &verr) {
				t.Errorf("error %v is not ErrValidation", err)
			}
		})
	}
}

func TestAgeElements(t *testing.T) {
	birth := time.Date(2006, 6, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		now    time.Time
		age    uint64
		over18 bool
	}{
		{name: "day before birthday", now: time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC), age: 17, over18: false},
		{name: "on birthday", now: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), age: 18, over18: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elements, err := AgeElements(birth, tt.now, 18)
			if err != nil {
				t.Fatalf("AgeElements() error = %v", err)
			}
			if len(elements) != 3 {
				t.Fatalf("len(elements) = %d, want 3", len(elements))
			}
			if age, _ := dataitem.AsUint64(elements[0].Value); age != tt.age {
				t.Errorf("age_in_years = %d, want %d", age, tt.age)
			}
			if over, _ := dataitem.AsBool(elements[2].Value); elements[2].Identifier != "age_over_18" || over != tt.over18 {
				t.Errorf("%s = %v, want %v", elements[2].Identifier, over, tt.over18)
			}
			if err := Validate(elements); err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}

	if _, err := AgeElements(birth, birth.AddDate(-1, 0, 0)); err == nil {
		t.Error("AgeElements() with future birth date error = nil")
	}
}
