// Parcelario - Forest Parcel Mapping and Species Distribution Backend
// Copyright 2026 A. Morales (agroforestal)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agroforestal/parcelario

package api

import (
	"github.com/agroforestal/parcelario/internal/auth"
	"github.com/agroforestal/parcelario/internal/config"
	"github.com/agroforestal/parcelario/internal/database"
	"github.com/agroforestal/parcelario/internal/gbif"
)

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	db         *database.DB
	jwtManager *auth.JWTManager
	gbifClient *gbif.Client
	bcryptCost int
	version    string
}

// NewHandler creates a new Handler with the given dependencies.
func NewHandler(db *database.DB, jwtManager *auth.JWTManager, gbifClient *gbif.Client, cfg *config.Config, version string) *Handler {
	return &Handler{
		db:         db,
		jwtManager: jwtManager,
		gbifClient: gbifClient,
		bcryptCost: cfg.Security.BcryptCost,
		version:    version,
	}
}
