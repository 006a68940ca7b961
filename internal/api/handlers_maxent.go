// Parcelario - Forest Parcel Mapping and Species Distribution Backend
// Copyright 2026 A. Morales (agroforestal)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agroforestal/parcelario

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/agroforestal/parcelario/internal/gbif"
	"github.com/agroforestal/parcelario/internal/logging"
	"github.com/agroforestal/parcelario/internal/models"
)

// DistributionRequest is the body for the species-distribution proxy.
// Variables, Features, and BetaMultiplier are MaxEnt modeling inputs
// the server never interprets; they are echoed back for the client's
// modeling step.
type DistributionRequest struct {
	Species        string          `json:"species"`
	AOI            string          `json:"aoi,omitempty"`
	Variables      json.RawMessage `json:"variables,omitempty"`
	Features       json.RawMessage `json:"features,omitempty"`
	BetaMultiplier json.RawMessage `json:"betaMultiplier,omitempty"`
}

// DistributionResponse is the proxy's success payload.
type DistributionResponse struct {
	TaxonKey       int64             `json:"taxonKey"`
	Occurrences    []gbif.Occurrence `json:"occurrences"`
	Variables      json.RawMessage   `json:"variables,omitempty"`
	Features       json.RawMessage   `json:"features,omitempty"`
	BetaMultiplier json.RawMessage   `json:"betaMultiplier,omitempty"`
}

// SpeciesDistribution resolves a species name to a GBIF taxon and
// returns its occurrence records, echoing the client's modeling
// parameters unchanged.
//
// POST /api/maxent/distribution
func (h *Handler) SpeciesDistribution(w http.ResponseWriter, r *http.Request) {
	var req DistributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.Species == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "species is required"})
		return
	}

	dist, err := h.gbifClient.Distribution(r.Context(), req.Species, req.AOI)
	if err != nil {
		if errors.Is(err, gbif.ErrNoMatch) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "No taxonKey found for species"})
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Str("species", req.Species).Msg("Species distribution lookup failed")
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to fetch species distribution",
			Details: err.Error(),
		})
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("species", req.Species).
		Int64("taxon_key", dist.TaxonKey).
		Int("occurrences", len(dist.Occurrences)).
		Msg("Species distribution resolved")

	writeJSON(w, http.StatusOK, DistributionResponse{
		TaxonKey:       dist.TaxonKey,
		Occurrences:    dist.Occurrences,
		Variables:      req.Variables,
		Features:       req.Features,
		BetaMultiplier: req.BetaMultiplier,
	})
}
