package main

import (
	"flag"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/kokukuma/mdoc-issuance/internal/config"
	"github.com/kokukuma/mdoc-issuance/internal/observability"
	"github.com/kokukuma/mdoc-issuance/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger := observability.InitLogger("mdoc-issuance", cfg.LogLevel)

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create server")
	}

	logger.Info().Str("addr", cfg.Addr).Str("engagement_version", cfg.EngagementVersion).Msg("starting issuance server")
	if err := http.ListenAndServe(cfg.Addr, srv.Router()); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
