// Parcelario - Forest Parcel Mapping and Species Distribution Backend
// Copyright 2026 A. Morales (agroforestal)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agroforestal/parcelario

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/agroforestal/parcelario/internal/auth"
	"github.com/agroforestal/parcelario/internal/logging"
	"github.com/agroforestal/parcelario/internal/models"
	"github.com/agroforestal/parcelario/internal/wms"
)

// SaveWMSLayer normalizes the submitted WMS endpoint URL and stores it
// in the shared layer catalog.
//
// POST /api/wms-layers/guardar
func (h *Handler) SaveWMSLayer(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		respondStatus(w, http.StatusUnauthorized, false, "No userId in token")
		return
	}

	var req models.WMSLayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondStatusError(w, http.StatusInternalServerError, "Error al guardar la URL de WMS", err)
		return
	}

	if req.Name == "" || req.URL == "" {
		respondStatus(w, http.StatusBadRequest, false, "Faltan campos requeridos (name, url)")
		return
	}

	normalized := wms.NormalizeURL(req.URL, req.LayerName)

	layer, err := h.db.SaveWMSLayer(r.Context(), userID, req.Name, normalized)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("user_id", userID).Msg("WMS layer save failed")
		respondStatusError(w, http.StatusInternalServerError, "Error al guardar la URL de WMS", err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("user_id", userID).
		Str("layer_id", layer.ID).
		Str("url", layer.URL).
		Msg("WMS layer saved")

	respondStatus(w, http.StatusCreated, true, "URL de WMS guardada correctamente")
}

// ListWMSLayers returns the full shared layer catalog. No owner filter
// and no authentication; saved layers are visible to everyone.
//
// GET /api/wms-layers/listar
func (h *Handler) ListWMSLayers(w http.ResponseWriter, r *http.Request) {
	layers, err := h.db.ListWMSLayers(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("WMS layer list failed")
		respondStatusError(w, http.StatusInternalServerError, "Error al obtener las capas WMS", err)
		return
	}

	writeJSON(w, http.StatusOK, models.WMSLayerListResponse{
		Success: true,
		Layers:  layers,
	})
}
