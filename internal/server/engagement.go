package server

import (
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/kokukuma/mdoc-issuance/dataitem"
	"github.com/kokukuma/mdoc-issuance/engagement"
)

type EngagementRequest struct {
	// Origin is advertised as the domain origin info for version 1.1.
	Origin string `json:"origin,omitempty"`
}

type EngagementResponse struct {
	DeviceEngagement string `json:"device_engagement"`
	Diagnostics      string `json:"diagnostics"`
}

type ParseEngagementRequest struct {
	DeviceEngagement string `json:"device_engagement"`
}

type ParseEngagementResponse struct {
	Version           string   `json:"version"`
	ConnectionMethods []string `json:"connection_methods"`
	OriginInfos       []string `json:"origin_infos,omitempty"`
	Diagnostics       string   `json:"diagnostics"`
}

func (s *Server) Engagement(w http.ResponseWriter, r *http.Request) {
	var req EngagementRequest
	if r.ContentLength > 0 {
		if err := parseJSON(r, &req); err != nil {
			jsonErrorResponse(s.logger, w, fmt.Errorf("failed to parse request: %w", err), http.StatusBadRequest)
			return
		}
	}

	g := engagement.NewGenerator(&s.eSenderKey.PublicKey, s.version).AddConnectionMethods(s.methods...)
	if req.Origin != "" {
		g.AddOriginInfos(engagement.OriginInfoDomain{URL: req.Origin})
	}
	de, err := g.Generate()
	if err != nil {
		jsonErrorResponse(s.logger, w, fmt.Errorf("failed to generate engagement: %w", err), http.StatusInternalServerError)
		return
	}

	item, err := dataitem.Decode(de)
	if err != nil {
		jsonErrorResponse(s.logger, w, err, http.StatusInternalServerError)
		return
	}
	jsonResponse(w, EngagementResponse{
		DeviceEngagement: hex.EncodeToString(de),
		Diagnostics:      dataitem.Diagnostics(item, dataitem.EmbeddedCBOR, dataitem.PrettyPrint),
	}, http.StatusOK)
}

func (s *Server) ParseEngagement(w http.ResponseWriter, r *http.Request) {
	var req ParseEngagementRequest
	if err := parseJSON(r, &req); err != nil {
		jsonErrorResponse(s.logger, w, fmt.Errorf("failed to parse request: %w", err), http.StatusBadRequest)
		return
	}
	data, err := hex.DecodeString(req.DeviceEngagement)
	if err != nil {
		jsonErrorResponse(s.logger, w, fmt.Errorf("device_engagement is not hex: %w", err), http.StatusBadRequest)
		return
	}

	e, err := engagement.Parse(data)
	if err != nil {
		jsonErrorResponse(s.logger, w, err, http.StatusBadRequest)
		return
	}
	item, _ := dataitem.Decode(data)

	resp := ParseEngagementResponse{
		Version:           e.Version,
		ConnectionMethods: []string{},
		Diagnostics:       dataitem.Diagnostics(item, dataitem.EmbeddedCBOR),
	}
	for _, m := range e.ConnectionMethods {
		resp.ConnectionMethods = append(resp.ConnectionMethods, m.String())
	}
	for _, info := range e.OriginInfos {
		if domain, ok := info.(engagement.OriginInfoDomain); ok {
			resp.OriginInfos = append(resp.OriginInfos, domain.URL)
		}
	}
	jsonResponse(w, resp, http.StatusOK)
}
