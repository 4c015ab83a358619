package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/susu3304/snacknav/internal/catalog"
	"github.com/susu3304/snacknav/internal/flow"
	"github.com/susu3304/snacknav/internal/geocode"
	"github.com/susu3304/snacknav/internal/geourl"
	"github.com/susu3304/snacknav/internal/geoscore"
	"github.com/susu3304/snacknav/internal/walk"
)

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Public handlers
func (a *API) handlePlaces(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.walk.SearchPlaces(r.URL.Query().Get("q")))
}

func (a *API) handleRewards(w http.ResponseWriter, r *http.Request) {
	tab, err := catalog.ParseTab(r.URL.Query().Get("tab"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog.RewardsByTab(a.walk.Catalog().Rewards, tab))
}

func (a *API) handleTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.walk.Catalog().Tasks)
}

func (a *API) handleCities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.walk.Catalog().Cities)
}

func (a *API) handleGeocode(w http.ResponseWriter, r *http.Request) {
	results := []geocode.Candidate{}
	if a.searcher != nil {
		if found := a.searcher.Search(r.Context(), r.URL.Query().Get("q")); found != nil {
			results = found
		}
	}
	writeJSON(w, http.StatusOK, results)
}

// Protected handlers
func (a *API) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := a.walk.Get(claimsFrom(r.Context()).SessionID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleSetPosition accepts exactly one of a coordinate pair, a catalog city
// or a maps link.
func (a *API) handleSetPosition(w http.ResponseWriter, r *http.Request) {
	id := claimsFrom(r.Context()).SessionID

	var req struct {
		Lat     *float64 `json:"lat"`
		Lng     *float64 `json:"lng"`
		Source  string   `json:"source"`
		City    string   `json:"city"`
		MapsURL string   `json:"maps_url"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var (
		view walk.View
		err  error
	)
	switch {
	case req.City != "":
		view, err = a.walk.SelectCity(id, req.City)
	case req.MapsURL != "":
		var coord geoscore.Coord
		coord, _, err = geourl.ExpandAndExtractCoords(r.Context(), a.mapsClient, req.MapsURL)
		if err != nil {
			// the cause may name hosts or paths the caller must not see
			a.logger.Info("maps link rejected", zap.String("session", id), zap.Error(err))
			if errors.Is(err, geourl.ErrHostNotAllowed) {
				err = errMapsHost
			} else {
				err = errMapsLink
			}
			break
		}
		view, err = a.walk.SetPosition(id, coord, walk.SourceMapsURL)
	case req.Lat != nil && req.Lng != nil:
		source := walk.SourceGeolocation
		if req.Source == string(walk.SourceGeocode) {
			source = walk.SourceGeocode
		}
		view, err = a.walk.SetPosition(id, geoscore.Coord{Lat: *req.Lat, Lng: *req.Lng}, source)
	default:
		http.Error(w, "one of lat/lng, city or maps_url is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	id := claimsFrom(r.Context()).SessionID

	var req struct {
		Query string `json:"query"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	places, err := a.walk.SetSearchQuery(id, req.Query)
	if err != nil {
		a.writeError(w, err)
		return
	}

	suggestions := []geocode.Candidate{}
	accepted := true
	if a.searcher != nil {
		var found []geocode.Candidate
		found, accepted, err = a.walk.Suggest(r.Context(), id, a.searcher, req.Query)
		if err != nil {
			a.writeError(w, err)
			return
		}
		if found != nil {
			suggestions = found
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"places":      places,
		"suggestions": suggestions,
		"stale":       !accepted,
	})
}

func (a *API) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Place string `json:"place"`
	}
	if err := decodeBody(w, r, &req); err != nil || req.Place == "" {
		http.Error(w, "place is required", http.StatusBadRequest)
		return
	}

	view, err := a.walk.SelectLocation(claimsFrom(r.Context()).SessionID, req.Place)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleRewardTab(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tab string `json:"tab"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	tab, err := catalog.ParseTab(req.Tab)
	if err != nil {
		a.writeError(w, err)
		return
	}

	rewards, err := a.walk.SetRewardTab(claimsFrom(r.Context()).SessionID, tab)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tab":     tab,
		"rewards": rewards,
	})
}

func (a *API) handleStep(w http.ResponseWriter, r *http.Request) {
	id := claimsFrom(r.Context()).SessionID

	var req struct {
		Action string `json:"action"`
		Step   string `json:"step"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var (
		view walk.View
		err  error
	)
	switch strings.ToLower(req.Action) {
	case "next":
		view, err = a.walk.AdvanceStep(id)
	case "back":
		view, err = a.walk.GoBack(id)
	case "goto":
		var step flow.Step
		if step, err = flow.ParseStep(req.Step); err == nil {
			view, err = a.walk.NavigateTo(id, step)
		}
	default:
		http.Error(w, "action must be next, back or goto", http.StatusBadRequest)
		return
	}
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleNearby(w http.ResponseWriter, r *http.Request) {
	places, err := a.walk.Nearby(claimsFrom(r.Context()).SessionID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, places)
}

func (a *API) handleChallenge(w http.ResponseWriter, r *http.Request) {
	result, err := a.walk.CompleteChallenge(r.Context(), claimsFrom(r.Context()).SessionID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleClaim(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	result, err := a.walk.ClaimReward(r.Context(), claimsFrom(r.Context()).SessionID, vars["id"])
	if errors.Is(err, walk.ErrInsufficientPoints) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   err.Error(),
			"balance": result.Balance,
			"cost":    result.Reward.Cost,
		})
		return
	}
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	events, err := a.walk.History(r.Context(), claimsFrom(r.Context()).SessionID, limit)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if events == nil {
		events = []walk.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}
