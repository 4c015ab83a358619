package api

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/susu3304/snacknav/internal/catalog"
	"github.com/susu3304/snacknav/internal/flow"
	"github.com/susu3304/snacknav/internal/geourl"
	"github.com/susu3304/snacknav/internal/walk"
)

var (
	errMapsHost = fmt.Errorf("%w: %w", geourl.ErrNoCoordinates, geourl.ErrHostNotAllowed)
	errMapsLink = fmt.Errorf("%w: maps link could not be resolved", geourl.ErrNoCoordinates)
)

func generateRandomString(length int) string {
	// base64 grows input by ~4/3, so length bytes is always enough
	b := make([]byte, length)
	rand.Read(b)
	encoded := base64.URLEncoding.EncodeToString(b)
	if len(encoded) > length {
		return encoded[:length]
	}
	return encoded
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, walk.ErrSessionNotFound),
		errors.Is(err, catalog.ErrUnknownPlace),
		errors.Is(err, catalog.ErrUnknownReward),
		errors.Is(err, catalog.ErrUnknownCity):
		return http.StatusNotFound
	case errors.Is(err, flow.ErrPositionRequired),
		errors.Is(err, flow.ErrLastStep),
		errors.Is(err, walk.ErrNoPosition),
		errors.Is(err, walk.ErrNoChallenge),
		errors.Is(err, walk.ErrChallengeDone):
		return http.StatusConflict
	case errors.Is(err, walk.ErrInsufficientPoints):
		return http.StatusUnprocessableEntity
	case errors.Is(err, catalog.ErrUnknownTab),
		errors.Is(err, flow.ErrUnknownStep),
		errors.Is(err, walk.ErrInvalidPosition),
		errors.Is(err, geourl.ErrNoCoordinates):
		return http.StatusBadRequest
	case errors.Is(err, walk.ErrNoLedger):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		a.logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
