package server

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kokukuma/mdoc-issuance/dataitem"
	"github.com/kokukuma/mdoc-issuance/engagement"
	"github.com/kokukuma/mdoc-issuance/evidence"
	"github.com/kokukuma/mdoc-issuance/internal/config"
	"github.com/kokukuma/mdoc-issuance/internal/issuance"
	"github.com/kokukuma/mdoc-issuance/mdoc"
	"github.com/kokukuma/mdoc-issuance/presentation"
)

func newTestServer(t *testing.T, cfg config.Config) http.Handler {
	t.Helper()
	srv, err := NewServer(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return srv.Router()
}

func do(t *testing.T, h http.Handler, method, path string, body []byte, out interface{}) int {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: failed to decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestEngagementRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.EngagementVersion = engagement.Version11
	cfg.Http = &config.HttpConfig{URI: "https://issuer.example.com/mdoc"}
	h := newTestServer(t, cfg)

	var gen EngagementResponse
	body := mustJSON(t, EngagementRequest{Origin: "https://issuer.example.com"})
	if code := do(t, h, http.MethodPost, "/engagement", body, &gen); code != http.StatusOK {
		t.Fatalf("POST /engagement = %d", code)
	}
	if !strings.Contains(gen.Diagnostics, "<<") {
		t.Errorf("diagnostics do not embed the key: %s", gen.Diagnostics)
	}

	var parsed ParseEngagementResponse
	body = mustJSON(t, ParseEngagementRequest{DeviceEngagement: gen.DeviceEngagement})
	if code := do(t, h, http.MethodPost, "/engagement/parse", body, &parsed); code != http.StatusOK {
		t.Fatalf("POST /engagement/parse = %d", code)
	}
	if parsed.Version != engagement.Version11 {
		t.Errorf("Version = %q", parsed.Version)
	}
	if len(parsed.ConnectionMethods) != 1 || parsed.ConnectionMethods[0] != "http:uri=https://issuer.example.com/mdoc" {
		t.Errorf("ConnectionMethods = %v", parsed.ConnectionMethods)
	}
	if len(parsed.OriginInfos) != 1 || parsed.OriginInfos[0] != "https://issuer.example.com" {
		t.Errorf("OriginInfos = %v", parsed.OriginInfos)
	}
}

func TestParseEngagementRejectsGarbage(t *testing.T) {
	h := newTestServer(t, config.Default())

	for _, de := range []string{"zz", "a1"} {
		var resp errorResponse
		body := mustJSON(t, ParseEngagementRequest{DeviceEngagement: de})
		if code := do(t, h, http.MethodPost, "/engagement/parse", body, &resp); code != http.StatusBadRequest {
			t.Errorf("POST /engagement/parse %q = %d", de, code)
		}
		if resp.Error == "" {
			t.Errorf("no error message for %q", de)
		}
	}
}

func submit(t *testing.T, h http.Handler, id string, r evidence.Response) (IssuanceResponse, int) {
	t.Helper()
	body, err := evidence.MarshalResponse(r)
	if err != nil {
		t.Fatalf("MarshalResponse() error = %v", err)
	}
	var resp IssuanceResponse
	code := do(t, h, http.MethodPost, "/issuance/"+id+"/evidence", body, &resp)
	return resp, code
}

func TestIssuanceFlow(t *testing.T) {
	h := newTestServer(t, config.Default())

	var started IssuanceResponse
	if code := do(t, h, http.MethodPost, "/issuance/start", nil, &started); code != http.StatusOK {
		t.Fatalf("POST /issuance/start = %d", code)
	}
	if started.NodeID != issuance.NodeTerms || len(started.Requests) != 1 {
		t.Fatalf("start = %+v", started)
	}
	req, err := evidence.UnmarshalRequest(started.Requests[0])
	if err != nil {
		t.Fatalf("UnmarshalRequest() error = %v", err)
	}
	if req.Kind() != evidence.KindMessage {
		t.Errorf("first request kind = %s", req.Kind())
	}

	id := started.SessionID
	if _, code := submit(t, h, id, evidence.MessageResponse{Acknowledged: true}); code != http.StatusOK {
		t.Fatalf("submit terms = %d", code)
	}
	if _, code := submit(t, h, id, evidence.QuestionStringResponse{Answer: "x"}); code != http.StatusUnprocessableEntity {
		t.Errorf("wrong kind = %d, want 422", code)
	}

	for _, r := range []evidence.Response{
		evidence.QuestionMultipleChoiceResponse{AnswerID: issuance.ChoiceManual},
		evidence.QuestionStringResponse{Answer: "Erika"},
		evidence.QuestionStringResponse{Answer: "Mustermann"},
		evidence.QuestionStringResponse{Answer: "1990-04-01"},
	} {
		if resp, code := submit(t, h, id, r); code != http.StatusOK {
			t.Fatalf("submit %s = %d (%+v)", r.Kind(), code, resp)
		}
	}

	deviceKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	coseKey, err := mdoc.NewCOSEKey(&deviceKey.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	keyItem, err := coseKey.DataItem()
	if err != nil {
		t.Fatal(err)
	}
	credBody := mustJSON(t, CredentialRequest{DeviceKey: hex.EncodeToString(dataitem.Encode(keyItem))})

	if code := do(t, h, http.MethodPost, "/issuance/"+id+"/credential", credBody, nil); code != http.StatusConflict {
		t.Errorf("credential before completion = %d, want 409", code)
	}

	done, code := submit(t, h, id, evidence.MessageResponse{Acknowledged: true})
	if code != http.StatusOK || done.Status != issuance.StatusCompleted {
		t.Fatalf("final submit = %d (%+v)", code, done)
	}

	var state IssuanceResponse
	if code := do(t, h, http.MethodGet, "/issuance/"+id, nil, &state); code != http.StatusOK {
		t.Fatalf("GET /issuance/{id} = %d", code)
	}
	if state.Status != issuance.StatusCompleted || len(state.History) != 6 {
		t.Errorf("state = %+v", state)
	}

	var cred CredentialResponse
	if code := do(t, h, http.MethodPost, "/issuance/"+id+"/credential", credBody, &cred); code != http.StatusOK {
		t.Fatalf("POST credential = %d", code)
	}
	data, err := hex.DecodeString(cred.PresentationObject)
	if err != nil {
		t.Fatal(err)
	}
	object, err := presentation.Decode(data)
	if err != nil {
		t.Fatalf("presentation.Decode() error = %v", err)
	}
	if err := object.CheckDeviceKey(); err != nil {
		t.Errorf("CheckDeviceKey() error = %v", err)
	}

	if _, code := submit(t, h, id, evidence.MessageResponse{}); code != http.StatusConflict {
		t.Errorf("submit after completion = %d, want 409", code)
	}
}

func TestIssuanceInvalidAnswer(t *testing.T) {
	h := newTestServer(t, config.Default())

	var started IssuanceResponse
	do(t, h, http.MethodPost, "/issuance/start", nil, &started)
	submit(t, h, started.SessionID, evidence.MessageResponse{Acknowledged: true})

	resp, code := submit(t, h, started.SessionID, evidence.QuestionMultipleChoiceResponse{AnswerID: "fax"})
	if code != http.StatusBadRequest || resp.Status != issuance.StatusFailed {
		t.Errorf("invalid answer = %d (%+v)", code, resp)
	}
}

func TestUnknownIssuance(t *testing.T) {
	h := newTestServer(t, config.Default())

	if code := do(t, h, http.MethodGet, "/issuance/nope", nil, nil); code != http.StatusNotFound {
		t.Errorf("GET unknown = %d", code)
	}
	if _, code := submit(t, h, "nope", evidence.MessageResponse{}); code != http.StatusNotFound {
		t.Errorf("submit unknown = %d", code)
	}
	if code := do(t, h, http.MethodPost, "/issuance/nope/evidence", []byte(`{"type":"telepathy"}`), nil); code != http.StatusBadRequest {
		t.Errorf("unknown kind = %d", code)
	}
}
