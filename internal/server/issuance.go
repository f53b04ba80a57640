package server

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kokukuma/mdoc-issuance/dataitem"
	"github.com/kokukuma/mdoc-issuance/evidence"
	"github.com/kokukuma/mdoc-issuance/internal/issuance"
	"github.com/kokukuma/mdoc-issuance/mdoc"
	"github.com/kokukuma/mdoc-issuance/proofing"
)

type IssuanceResponse struct {
	SessionID string            `json:"session_id"`
	Status    issuance.Status   `json:"status"`
	NodeID    string            `json:"node_id,omitempty"`
	Requests  []json.RawMessage `json:"requests,omitempty"`
	History   []string          `json:"history,omitempty"`
	Error     string            `json:"error,omitempty"`
}

type CredentialRequest struct {
	// DeviceKey is the hex encoded COSE_Key the credential is bound to.
	DeviceKey string `json:"device_key"`
}

type CredentialResponse struct {
	PresentationObject string `json:"presentation_object"`
	ValidFrom          string `json:"valid_from"`
	ValidUntil         string `json:"valid_until"`
}

func newIssuanceResponse(session *issuance.Session, requests []evidence.Request) (IssuanceResponse, error) {
	resp := IssuanceResponse{
		SessionID: session.ID,
		Status:    session.Status,
		NodeID:    session.NodeID,
		Error:     session.Error,
	}
	for _, step := range session.History {
		resp.History = append(resp.History, step.NodeID)
	}
	for _, req := range requests {
		b, err := evidence.MarshalRequest(req)
		if err != nil {
			return IssuanceResponse{}, err
		}
		resp.Requests = append(resp.Requests, json.RawMessage(b))
	}
	return resp, nil
}

func (s *Server) writeIssuance(w http.ResponseWriter, session *issuance.Session, requests []evidence.Request, c int) {
	resp, err := newIssuanceResponse(session, requests)
	if err != nil {
		jsonErrorResponse(s.logger, w, err, http.StatusInternalServerError)
		return
	}
	jsonResponse(w, resp, c)
}

func (s *Server) StartIssuance(w http.ResponseWriter, r *http.Request) {
	session, requests := s.sessions.Start()
	s.writeIssuance(w, session, requests, http.StatusOK)
}

func (s *Server) GetIssuance(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	session, err := s.sessions.Get(id)
	if err != nil {
		jsonErrorResponse(s.logger, w, err, http.StatusNotFound)
		return
	}
	requests, err := s.sessions.Requests(id)
	if err != nil {
		jsonErrorResponse(s.logger, w, err, http.StatusInternalServerError)
		return
	}
	s.writeIssuance(w, session, requests, http.StatusOK)
}

// SubmitEvidence takes a response envelope as the request body.
func (s *Server) SubmitEvidence(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		jsonErrorResponse(s.logger, w, fmt.Errorf("failed to read request: %w", err), http.StatusBadRequest)
		return
	}
	response, err := evidence.UnmarshalResponse(body)
	if err != nil {
		jsonErrorResponse(s.logger, w, err, http.StatusBadRequest)
		return
	}

	session, requests, err := s.sessions.Advance(id, response)
	switch {
	case err == nil:
		s.writeIssuance(w, session, requests, http.StatusOK)
	case errors.Is(err, issuance.ErrSessionNotFound):
		jsonErrorResponse(s.logger, w, err, http.StatusNotFound)
	case errors.Is(err, issuance.ErrSessionFinished):
		jsonErrorResponse(s.logger, w, err, http.StatusConflict)
	case proofing.IsInvalidAnswer(err):
		s.writeIssuance(w, session, nil, http.StatusBadRequest)
	case errors.Is(err, proofing.ErrResponseKind):
		jsonErrorResponse(s.logger, w, err, http.StatusUnprocessableEntity)
	default:
		jsonErrorResponse(s.logger, w, err, http.StatusInternalServerError)
	}
}

func (s *Server) IssueCredential(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req CredentialRequest
	if err := parseJSON(r, &req); err != nil {
		jsonErrorResponse(s.logger, w, fmt.Errorf("failed to parse request: %w", err), http.StatusBadRequest)
		return
	}
	keyBytes, err := hex.DecodeString(req.DeviceKey)
	if err != nil {
		jsonErrorResponse(s.logger, w, fmt.Errorf("device_key is not hex: %w", err), http.StatusBadRequest)
		return
	}
	keyItem, err := dataitem.Decode(keyBytes)
	if err != nil {
		jsonErrorResponse(s.logger, w, err, http.StatusBadRequest)
		return
	}
	coseKey, err := mdoc.COSEKeyFromDataItem(keyItem)
	if err != nil {
		jsonErrorResponse(s.logger, w, err, http.StatusBadRequest)
		return
	}
	deviceKey, err := coseKey.PublicKey()
	if err != nil {
		jsonErrorResponse(s.logger, w, err, http.StatusBadRequest)
		return
	}

	session, err := s.sessions.Get(id)
	if err != nil {
		jsonErrorResponse(s.logger, w, err, http.StatusNotFound)
		return
	}
	object, err := s.issuer.Issue(session, deviceKey)
	if errors.Is(err, issuance.ErrSessionNotCompleted) {
		jsonErrorResponse(s.logger, w, err, http.StatusConflict)
		return
	}
	if err != nil {
		jsonErrorResponse(s.logger, w, err, http.StatusInternalServerError)
		return
	}
	encoded, err := object.Encode()
	if err != nil {
		jsonErrorResponse(s.logger, w, err, http.StatusInternalServerError)
		return
	}

	from, until := object.ValidityDataItems()
	fromText, _ := dataitem.AsText(from.Item)
	untilText, _ := dataitem.AsText(until.Item)
	s.logger.Info().Str("session", id).Str("valid_until", untilText).Msg("credential issued")

	jsonResponse(w, CredentialResponse{
		PresentationObject: hex.EncodeToString(encoded),
		ValidFrom:          fromText,
		ValidUntil:         untilText,
	}, http.StatusOK)
}
