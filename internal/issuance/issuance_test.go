package issuance

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog"

	"github.com/kokukuma/mdoc-issuance/dataitem"
	"github.com/kokukuma/mdoc-issuance/document"
	"github.com/kokukuma/mdoc-issuance/evidence"
	"github.com/kokukuma/mdoc-issuance/internal/cryptoroot"
	"github.com/kokukuma/mdoc-issuance/mdoc"
	"github.com/kokukuma/mdoc-issuance/proofing"
)

func newSessions(t *testing.T) *Sessions {
	t.Helper()
	graph, err := DefaultWorkflow()
	if err != nil {
		t.Fatalf("DefaultWorkflow() error = %v", err)
	}
	return NewSessions(graph, zerolog.Nop())
}

func advance(t *testing.T, s *Sessions, id string, responses ...evidence.Response) *Session {
	t.Helper()
	var session *Session
	for _, r := range responses {
		var err error
		session, _, err = s.Advance(id, r)
		if err != nil {
			t.Fatalf("Advance(%s) error = %v", spew.Sdump(r), err)
		}
	}
	return session
}

func manualPath() []evidence.Response {
	return []evidence.Response{
		evidence.MessageResponse{Acknowledged: true},
		evidence.QuestionMultipleChoiceResponse{AnswerID: ChoiceManual},
		evidence.QuestionStringResponse{Answer: "Erika"},
		evidence.QuestionStringResponse{Answer: "Mustermann"},
		evidence.QuestionStringResponse{Answer: "1990-04-01"},
		evidence.MessageResponse{Acknowledged: true},
	}
}

func TestDefaultWorkflow(t *testing.T) {
	graph, err := DefaultWorkflow()
	if err != nil {
		t.Fatalf("DefaultWorkflow() error = %v", err)
	}
	for _, id := range []string{NodeTerms, NodePath, NodePassportTunnel, NodePassportVerified, NodePassportPassive, NodeGivenName, NodeFamilyName, NodeBirthDate, NodeConfirm} {
		if _, ok := graph.Lookup(id); !ok {
			t.Errorf("node %q not in workflow", id)
		}
	}
}

func TestManualPath(t *testing.T) {
	s := newSessions(t)
	session, requests := s.Start()
	if session.NodeID != NodeTerms || len(requests) != 1 {
		t.Fatalf("Start() = %+v, %v", session, requests)
	}

	session = advance(t, s, session.ID, manualPath()...)
	if session.Status != StatusCompleted || session.NodeID != "" {
		t.Fatalf("session = %s", spew.Sdump(session))
	}

	var visited []string
	for _, step := range session.History {
		visited = append(visited, step.NodeID)
	}
	want := []string{NodeTerms, NodePath, NodeGivenName, NodeFamilyName, NodeBirthDate, NodeConfirm}
	if len(visited) != len(want) {
		t.Fatalf("visited %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("visited[%d] = %s, want %s", i, visited[i], want[i])
		}
	}

	if _, _, err := s.Advance(session.ID, evidence.MessageResponse{}); !errors.Is(err, ErrSessionFinished) {
		t.Errorf("Advance() after completion error = %v", err)
	}
}

func TestPassportPaths(t *testing.T) {
	tests := []struct {
		name string
		auth evidence.AuthenticationType
		want string
	}{
		{name: "chip", auth: evidence.AuthenticationChip, want: NodePassportVerified},
		{name: "active", auth: evidence.AuthenticationActive, want: NodePassportVerified},
		{name: "none", auth: evidence.AuthenticationNone, want: NodePassportPassive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSessions(t)
			session, _ := s.Start()
			session = advance(t, s, session.ID,
				evidence.MessageResponse{Acknowledged: true},
				evidence.QuestionMultipleChoiceResponse{AnswerID: ChoicePassport},
				evidence.IcaoNfcTunnelResultResponse{AdvancedAuthentication: tt.auth},
			)
			if session.NodeID != tt.want {
				t.Errorf("NodeID = %s, want %s", session.NodeID, tt.want)
			}
		})
	}
}

func TestInvalidAnswerFailsSession(t *testing.T) {
	s := newSessions(t)
	session, _ := s.Start()
	advance(t, s, session.ID, evidence.MessageResponse{Acknowledged: true})

	got, _, err := s.Advance(session.ID, evidence.QuestionMultipleChoiceResponse{AnswerID: "fax"})
	if !proofing.IsInvalidAnswer(err) {
		t.Fatalf("Advance() error = %v, want invalid answer", err)
	}
	if got.Status != StatusFailed || got.Error == "" {
		t.Errorf("session = %s", spew.Sdump(got))
	}
	if requests, err := s.Requests(session.ID); err != nil || requests != nil {
		t.Errorf("Requests() = %v, %v", requests, err)
	}
}

func TestWrongKindKeepsSession(t *testing.T) {
	s := newSessions(t)
	session, _ := s.Start()
	advance(t, s, session.ID, evidence.MessageResponse{Acknowledged: true})

	_, _, err := s.Advance(session.ID, evidence.QuestionStringResponse{Answer: "manual"})
	if !errors.Is(err, proofing.ErrResponseKind) {
		t.Fatalf("Advance() error = %v, want ErrResponseKind", err)
	}
	got, err := s.Get(session.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != StatusInProgress || got.NodeID != NodePath {
		t.Errorf("session = %s", spew.Sdump(got))
	}
}

func TestUnknownSession(t *testing.T) {
	s := newSessions(t)
	if _, err := s.Get("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get() error = %v", err)
	}
	if _, _, err := s.Advance("nope", evidence.MessageResponse{}); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Advance() error = %v", err)
	}
}

func TestIssue(t *testing.T) {
	ds, err := cryptoroot.NewDocumentSigner("")
	if err != nil {
		t.Fatalf("NewDocumentSigner() error = %v", err)
	}
	issuer, err := NewIssuer(ds, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}
	deviceKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	s := newSessions(t)
	session, _ := s.Start()
	if _, err := issuer.Issue(session, &deviceKey.PublicKey); !errors.Is(err, ErrSessionNotCompleted) {
		t.Errorf("Issue() on open session error = %v", err)
	}

	session = advance(t, s, session.ID, manualPath()...)
	object, err := issuer.Issue(session, &deviceKey.PublicKey)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if err := object.CheckDeviceKey(); err != nil {
		t.Errorf("CheckDeviceKey() error = %v", err)
	}
	if !object.ValidAt(time.Now()) {
		t.Error("credential not valid now")
	}

	issuerSigned, err := object.IssuerSigned()
	if err != nil {
		t.Fatalf("IssuerSigned() error = %v", err)
	}
	chain, err := issuerSigned.DocumentSigningCertificateChain()
	if err != nil || len(chain) != 2 {
		t.Fatalf("DocumentSigningCertificateChain() = %d certificates, %v", len(chain), err)
	}
	v, err := issuerSigned.GetElementValue(document.ISO1801351, document.IsoBirthDate)
	if err != nil {
		t.Fatalf("GetElementValue() error = %v", err)
	}
	if got := dataitem.Diagnostics(v); got != `1004("1990-04-01")` {
		t.Errorf("birth_date = %s", got)
	}
	over18, err := issuerSigned.GetElementValue(document.ISO1801351, "age_over_18")
	if err != nil {
		t.Fatalf("GetElementValue(age_over_18) error = %v", err)
	}
	if !dataitem.Equal(over18, dataitem.True) {
		t.Errorf("age_over_18 = %s", dataitem.Diagnostics(over18))
	}
	if err := issuerSigned.CheckDigests(); err != nil {
		t.Errorf("CheckDigests() error = %v", err)
	}
}

func TestElementsRejectsBadDate(t *testing.T) {
	session := &Session{History: []Step{{NodeID: NodeBirthDate, Response: evidence.QuestionStringResponse{Answer: "April 1st"}}}}
	if _, err := Elements(session, time.Now()); err == nil {
		t.Error("Elements() error = nil")
	}
}

const (
	td3Line1 = "P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<"
	td3Line2 = "L898902C36UTO7408122F1204159ZE184226B<<<<<10"
)

func encodeDG1(zone string) []byte {
	inner := append([]byte{0x5f, 0x1f, byte(len(zone))}, zone...)
	return append([]byte{0x61, byte(len(inner))}, inner...)
}

func passportPath(dataGroups map[int][]byte) []evidence.Response {
	return []evidence.Response{
		evidence.MessageResponse{Acknowledged: true},
		evidence.QuestionMultipleChoiceResponse{AnswerID: ChoicePassport},
		evidence.IcaoNfcTunnelResultResponse{AdvancedAuthentication: evidence.AuthenticationChip, DataGroups: dataGroups},
		evidence.MessageResponse{Acknowledged: true},
		evidence.MessageResponse{Acknowledged: true},
	}
}

func TestPassportElements(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		dg1     []byte
		want    map[string]string
		wantErr bool
	}{
		{
			name: "passport",
			dg1:  encodeDG1(td3Line1 + td3Line2),
			want: map[string]string{
				"family_name":  `"ERIKSSON"`,
				"given_name":   `"ANNA MARIA"`,
				"birth_date":   `1004("1974-08-12")`,
				"age_in_years": "49",
				"age_over_21":  "true",
				"age_over_65":  "false",
			},
		},
		{
			name: "id card",
			dg1: encodeDG1("I<UTOD231458907<<<<<<<<<<<<<<<" +
				"7408122F1204159UTO<<<<<<<<<<<6" +
				"ERIKSSON<<ANNA<MARIA<<<<<<<<<<"),
			want: map[string]string{
				"family_name": `"ERIKSSON"`,
				"birth_date":  `1004("1974-08-12")`,
			},
		},
		{
			name:    "wrong birth date check digit",
			dg1:     encodeDG1(td3Line1 + strings.Replace(td3Line2, "7408122", "7408123", 1)),
			wantErr: true,
		},
		{
			name:    "unknown layout",
			dg1:     encodeDG1(td3Line1),
			wantErr: true,
		},
		{
			name:    "not DG1",
			dg1:     []byte{0x62, 0x03, 0x5f, 0x1f, 0x00},
			wantErr: true,
		},
		{
			name:    "truncated",
			dg1:     []byte{0x61, 0x10, 0x5f},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elements, err := passportElements(tt.dg1, now)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidMRZ) {
					t.Fatalf("passportElements() error = %v, want ErrInvalidMRZ", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("passportElements() error = %v", err)
			}

			got := make(map[string]string)
			for _, e := range elements {
				got[string(e.Identifier)] = dataitem.Diagnostics(e.Value)
			}
			for id, want := range tt.want {
				if got[id] != want {
					t.Errorf("%s = %s, want %s", id, got[id], want)
				}
			}
		})
	}
}

func TestIssuePassportPath(t *testing.T) {
	ds, err := cryptoroot.NewDocumentSigner("")
	if err != nil {
		t.Fatalf("NewDocumentSigner() error = %v", err)
	}
	issuer, err := NewIssuer(ds, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}
	deviceKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	s := newSessions(t)
	session, _ := s.Start()
	session = advance(t, s, session.ID, passportPath(map[int][]byte{
		1:  encodeDG1(td3Line1 + td3Line2),
		14: {0x6e, 0x00},
	})...)
	if session.Status != StatusCompleted {
		t.Fatalf("session = %s", spew.Sdump(session))
	}

	object, err := issuer.Issue(session, &deviceKey.PublicKey)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	issuerSigned, err := object.IssuerSigned()
	if err != nil {
		t.Fatalf("IssuerSigned() error = %v", err)
	}
	for id, want := range map[mdoc.ElementIdentifier]string{
		document.IsoFamilyName: `"ERIKSSON"`,
		document.IsoGivenName:  `"ANNA MARIA"`,
		document.IsoBirthDate:  `1004("1974-08-12")`,
	} {
		v, err := issuerSigned.GetElementValue(document.ISO1801351, id)
		if err != nil {
			t.Fatalf("GetElementValue(%s) error = %v", id, err)
		}
		if got := dataitem.Diagnostics(v); got != want {
			t.Errorf("%s = %s, want %s", id, got, want)
		}
	}
}

func TestPassportPathWithoutDG1(t *testing.T) {
	s := newSessions(t)
	session, _ := s.Start()
	session = advance(t, s, session.ID, passportPath(nil)...)

	elements, err := Elements(session, time.Now())
	if err != nil {
		t.Fatalf("Elements() error = %v", err)
	}
	if len(elements) != 0 {
		t.Errorf("Elements() = %s, want none", spew.Sdump(elements))
	}
}
