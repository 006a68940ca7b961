// Parcelario - Forest Parcel Mapping and Species Distribution Backend
// Copyright 2026 A. Morales (agroforestal)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agroforestal/parcelario

package api

import (
	"net/http"

	"github.com/agroforestal/parcelario/internal/logging"
	"github.com/agroforestal/parcelario/internal/models"
)

// Health returns overall service health with the build version.
//
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:  "ok",
		Version: h.version,
	})
}

// HealthLive is the liveness probe. It answers as long as the process
// is serving requests.
//
// GET /api/health/live
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:  "alive",
		Version: h.version,
	})
}

// HealthReady is the readiness probe. It exercises the store with a
// cheap read so a wedged database surfaces as not-ready.
//
// GET /api/health/ready
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if _, err := h.db.CountUsers(r.Context()); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Readiness check failed")
		writeJSON(w, http.StatusServiceUnavailable, models.HealthResponse{
			Status:  "unavailable",
			Version: h.version,
		})
		return
	}

	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:  "ready",
		Version: h.version,
	})
}
