package issuance

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/veraison/go-cose"

	"github.com/kokukuma/mdoc-issuance/dataitem"
	"github.com/kokukuma/mdoc-issuance/document"
	"github.com/kokukuma/mdoc-issuance/evidence"
	"github.com/kokukuma/mdoc-issuance/internal/cryptoroot"
	"github.com/kokukuma/mdoc-issuance/mdoc"
	"github.com/kokukuma/mdoc-issuance/presentation"
)

const (
	issuingCountry   = "UT"
	issuingAuthority = "mdoc-issuance"
)

var ageThresholds = []int{18, 21, 65}

var ErrSessionNotCompleted = errors.New("issuance: session not completed")

type Issuer struct {
	issuer   *mdoc.Issuer
	validity time.Duration
	now      func() time.Time
}

func NewIssuer(ds *cryptoroot.DocumentSigner, validity time.Duration) (*Issuer, error) {
	signer, err := cose.NewSigner(cose.AlgorithmES256, ds.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to create signer: %w", err)
	}
	return &Issuer{
		issuer:   mdoc.NewIssuer(signer, mdoc.WithCertificateChain(ds.Chain)),
		validity: validity,
		now:      time.Now,
	}, nil
}

// Issue signs an mDL for a completed session, bound to deviceKey.
func (i *Issuer) Issue(session *Session, deviceKey *ecdsa.PublicKey) (*presentation.Object, error) {
	if session.Status != StatusCompleted {
		return nil, ErrSessionNotCompleted
	}

	now := i.now().UTC().Truncate(time.Second)
	validUntil := now.Add(i.validity)

	elements, err := Elements(session, now)
	if err != nil {
		return nil, err
	}
	elements = append(elements,
		mdoc.Element{Identifier: document.IsoIssuingCountry, Value: dataitem.Tstr(issuingCountry)},
		mdoc.Element{Identifier: document.IsoIssuingAuthority, Value: dataitem.Tstr(issuingAuthority)},
		mdoc.Element{Identifier: document.IsoDocumentNumber, Value: dataitem.Tstr(session.ID)},
		mdoc.Element{Identifier: document.IsoIssueDate, Value: document.FullDate(now)},
		mdoc.Element{Identifier: document.IsoExpiryDate, Value: document.FullDate(validUntil)},
	)
	if err := document.Validate(elements); err != nil {
		return nil, err
	}

	issuerSigned, err := i.issuer.Issue(document.IsoMDL, deviceKey, mdoc.ValidityInfo{
		Signed:     now,
		ValidFrom:  now,
		ValidUntil: validUntil,
	}, map[mdoc.NameSpace][]mdoc.Element{document.ISO1801351: elements})
	if err != nil {
		return nil, fmt.Errorf("failed to issue: %w", err)
	}
	return presentation.New(deviceKey, now, validUntil, issuerSigned)
}

// Elements maps the answers of a session to mDL data elements. A passport
// path contributes the names and birth date read from DG1 of the chip; a
// passport path that delivered no DG1 yields no personal elements. Age
// statements are derived from the birth date as of now.
func Elements(session *Session, now time.Time) ([]mdoc.Element, error) {
	var elements []mdoc.Element
	var dg1 []byte
	for _, step := range session.History {
		if b, ok := passportDG1(step.Response); ok {
			dg1 = b
			continue
		}

		var answer evidence.QuestionStringResponse
		switch r := step.Response.(type) {
		case evidence.QuestionStringResponse:
			answer = r
		case *evidence.QuestionStringResponse:
			answer = *r
		default:
			continue
		}

		switch step.NodeID {
		case NodeGivenName, NodeFamilyName:
			elements = append(elements, mdoc.Element{
				Identifier: mdoc.ElementIdentifier(step.NodeID),
				Value:      dataitem.Tstr(answer.Answer),
			})
		case NodeBirthDate:
			birthDate, err := time.Parse(time.DateOnly, answer.Answer)
			if err != nil {
				return nil, fmt.Errorf("issuance: birth_date: %w", err)
			}
			ages, err := birthElements(birthDate, now)
			if err != nil {
				return nil, err
			}
			elements = append(elements, ages...)
		}
	}

	if dg1 != nil {
		passport, err := passportElements(dg1, now)
		if err != nil {
			return nil, err
		}
		elements = append(elements, passport...)
	}
	return elements, nil
}

// birthElements returns birth_date followed by the age statements.
func birthElements(birthDate, now time.Time) ([]mdoc.Element, error) {
	ages, err := document.AgeElements(birthDate, now, ageThresholds...)
	if err != nil {
		return nil, err
	}
	return append([]mdoc.Element{{Identifier: document.IsoBirthDate, Value: document.FullDate(birthDate)}}, ages...), nil
}
