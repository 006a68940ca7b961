// Parcelario - Forest Parcel Mapping and Species Distribution Backend
// Copyright 2026 A. Morales (agroforestal)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agroforestal/parcelario

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/agroforestal/parcelario/internal/auth"
	"github.com/agroforestal/parcelario/internal/database"
	"github.com/agroforestal/parcelario/internal/logging"
	"github.com/agroforestal/parcelario/internal/metrics"
	"github.com/agroforestal/parcelario/internal/models"
	"github.com/agroforestal/parcelario/internal/validation"
)

// Register creates a new user account and returns a signed token.
//
// POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondStatus(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		respondStatus(w, http.StatusBadRequest, false, verr.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password, h.bcryptCost)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Password hashing failed")
		respondStatus(w, http.StatusInternalServerError, false, "Failed to create user")
		return
	}

	user, err := h.db.CreateUser(r.Context(), req.Username, hash)
	if err != nil {
		if errors.Is(err, database.ErrUserExists) {
			metrics.RecordAuthAttempt("register", "duplicate")
			respondStatus(w, http.StatusConflict, false, "Username already taken")
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("User creation failed")
		metrics.RecordAuthAttempt("register", "error")
		respondStatus(w, http.StatusInternalServerError, false, "Failed to create user")
		return
	}

	token, err := h.jwtManager.GenerateToken(user.ID)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Token generation failed")
		respondStatus(w, http.StatusInternalServerError, false, "Failed to create user")
		return
	}

	metrics.RecordAuthAttempt("register", "success")
	metrics.TokensIssued.Inc()
	logging.Ctx(r.Context()).Info().Str("user_id", user.ID).Msg("User registered")

	writeJSON(w, http.StatusCreated, models.AuthResponse{
		Success: true,
		Token:   token,
		UserID:  user.ID,
	})
}

// Login verifies credentials and returns a signed token.
//
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondStatus(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		respondStatus(w, http.StatusBadRequest, false, verr.Error())
		return
	}

	user, err := h.db.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// Burn a bcrypt comparison so missing and present usernames
			// take comparable time.
			_ = auth.VerifyPassword("$2a$12$invalidinvalidinvalidinvalidinvalidinvalidinvalidinval", req.Password)
			metrics.RecordAuthAttempt("login", "failure")
			respondStatus(w, http.StatusUnauthorized, false, "Invalid username or password")
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("User lookup failed")
		metrics.RecordAuthAttempt("login", "error")
		respondStatus(w, http.StatusInternalServerError, false, "Login failed")
		return
	}

	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		metrics.RecordAuthAttempt("login", "failure")
		respondStatus(w, http.StatusUnauthorized, false, "Invalid username or password")
		return
	}

	token, err := h.jwtManager.GenerateToken(user.ID)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Token generation failed")
		respondStatus(w, http.StatusInternalServerError, false, "Login failed")
		return
	}

	metrics.RecordAuthAttempt("login", "success")
	metrics.TokensIssued.Inc()
	logging.Ctx(r.Context()).Info().Str("user_id", user.ID).Msg("User logged in")

	writeJSON(w, http.StatusOK, models.AuthResponse{
		Success: true,
		Token:   token,
		UserID:  user.ID,
	})
}
