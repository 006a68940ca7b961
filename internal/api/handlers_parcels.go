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
)

// SaveParcel persists a parcel for the authenticated user.
//
// POST /api/parcelas/guardar
func (h *Handler) SaveParcel(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		respondStatus(w, http.StatusUnauthorized, false, "No userId in token")
		return
	}

	var req models.ParcelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondStatusError(w, http.StatusInternalServerError, "Error al guardar la parcela", err)
		return
	}

	parcel, err := h.db.SaveParcel(r.Context(), userID, &req)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("user_id", userID).Msg("Parcel save failed")
		respondStatusError(w, http.StatusInternalServerError, "Error al guardar la parcela", err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("user_id", userID).
		Str("parcel_id", parcel.ID).
		Str("name", parcel.Name).
		Msg("Parcel saved")

	respondStatus(w, http.StatusCreated, true, "Parcela guardada correctamente")
}

// ListParcels returns every parcel owned by the authenticated user.
// Other users' parcels are never visible here; the store keys parcels
// by owner.
//
// GET /api/parcelas/listar
func (h *Handler) ListParcels(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		respondStatus(w, http.StatusUnauthorized, false, "No userId in token")
		return
	}

	parcels, err := h.db.ListParcelsByOwner(r.Context(), userID)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("user_id", userID).Msg("Parcel list failed")
		respondStatusError(w, http.StatusInternalServerError, "Error al obtener las parcelas", err)
		return
	}

	writeJSON(w, http.StatusOK, models.ParcelListResponse{
		Success: true,
		Parcels: parcels,
	})
}
