package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"
)

type errorResponse struct {
	Error string `json:"error"`
}

func parseJSON(r *http.Request, v interface{}) error {
	if r == nil || r.Body == nil {
		return errors.New("no request given")
	}

	defer r.Body.Close()
	defer io.Copy(io.Discard, r.Body)

	return json.NewDecoder(r.Body).Decode(v)
}

func jsonResponse(w http.ResponseWriter, d interface{}, c int) {
	dj, err := json.Marshal(d)
	if err != nil {
		http.Error(w, "Error creating JSON response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(c)
	w.Write(dj)
}

func jsonErrorResponse(logger zerolog.Logger, w http.ResponseWriter, e error, c int) {
	if c >= http.StatusInternalServerError {
		logger.Error().Err(e).Msg("request failed")
	} else {
		logger.Debug().Err(e).Msg("request rejected")
	}
	jsonResponse(w, errorResponse{Error: e.Error()}, c)
}
