package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	cm "github.com/kokukuma/mdoc-issuance/connection_method"
	"github.com/kokukuma/mdoc-issuance/internal/config"
	"github.com/kokukuma/mdoc-issuance/internal/cryptoroot"
	"github.com/kokukuma/mdoc-issuance/internal/issuance"
	"github.com/kokukuma/mdoc-issuance/internal/observability"
	"github.com/kokukuma/mdoc-issuance/pkg/pki"
)

const credentialValidity = 30 * 24 * time.Hour

type Server struct {
	sessions    *issuance.Sessions
	issuer      *issuance.Issuer
	eSenderKey  *ecdsa.PrivateKey
	methods     []cm.ConnectionMethod
	version     string
	corsOrigins []string
	logger      zerolog.Logger
}

func NewServer(cfg config.Config, logger zerolog.Logger) (*Server, error) {
	graph, err := issuance.DefaultWorkflow()
	if err != nil {
		return nil, fmt.Errorf("failed to build workflow: %w", err)
	}

	methods, err := cfg.ConnectionMethods()
	if err != nil {
		return nil, err
	}

	var eSenderKey *ecdsa.PrivateKey
	if cfg.DeviceKeyPath != "" {
		eSenderKey, err = pki.LoadPrivateKey(cfg.DeviceKeyPath)
	} else {
		eSenderKey, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load device key: %w", err)
	}

	ds, err := cryptoroot.NewDocumentSigner(cfg.RootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to provision document signer: %w", err)
	}
	issuer, err := issuance.NewIssuer(ds, credentialValidity)
	if err != nil {
		return nil, err
	}

	return &Server{
		sessions:    issuance.NewSessions(graph, logger),
		issuer:      issuer,
		eSenderKey:  eSenderKey,
		methods:     methods,
		version:     cfg.EngagementVersion,
		corsOrigins: cfg.CORSOrigins,
		logger:      logger,
	}, nil
}

func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(observability.RequestLogger(s.logger))
	r.Use(handlers.CORS(
		handlers.AllowedMethods([]string{"POST", "GET"}),
		handlers.AllowedHeaders([]string{"content-type"}),
		handlers.AllowedOrigins(s.corsOrigins),
	))

	r.HandleFunc("/engagement", s.Engagement).Methods("POST", "OPTIONS")
	r.HandleFunc("/engagement/parse", s.ParseEngagement).Methods("POST", "OPTIONS")

	r.HandleFunc("/issuance/start", s.StartIssuance).Methods("POST", "OPTIONS")
	r.HandleFunc("/issuance/{id}", s.GetIssuance).Methods("GET", "OPTIONS")
	r.HandleFunc("/issuance/{id}/evidence", s.SubmitEvidence).Methods("POST", "OPTIONS")
	r.HandleFunc("/issuance/{id}/credential", s.IssueCredential).Methods("POST", "OPTIONS")

	return r
}
