// Parcelario - Forest Parcel Mapping and Species Distribution Backend
// Copyright 2026 A. Morales (agroforestal)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agroforestal/parcelario

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/agroforestal/parcelario/internal/logging"
	"github.com/agroforestal/parcelario/internal/models"
)

type contextKey string

// UserIDContextKey is the context key under which the authenticated
// user's ID is stored after the gate admits a request.
const UserIDContextKey contextKey = "userId"

// Middleware is the authentication gate for protected endpoints.
type Middleware struct {
	jwtManager *JWTManager
}

// NewMiddleware creates the authentication middleware.
func NewMiddleware(jwtManager *JWTManager) *Middleware {
	return &Middleware{jwtManager: jwtManager}
}

// Authenticate enforces bearer-token authentication.
//
// A request with no Authorization header, or a header without a token
// after the scheme, is rejected with 401. A token that fails
// validation (bad signature, expired, not yet valid, malformed) is
// rejected with 403: the caller presented credentials and they were
// refused, which is a different condition from never presenting any.
// On success the user ID from the claims is bound to the request
// context.
func (m *Middleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeAuthError(w, http.StatusUnauthorized, "No token provided")
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Token validation failed")
			writeAuthError(w, http.StatusForbidden, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, claims.UserID)
		next(w, r.WithContext(ctx))
	}
}

// UserIDFromContext returns the authenticated user ID bound by
// Authenticate, or empty string if the request never passed the gate.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDContextKey).(string); ok {
		return id
	}
	return ""
}

// extractBearerToken pulls the token out of an Authorization header.
// The scheme word is not checked; "Bearer <tok>" and "Token <tok>"
// both yield <tok>, matching the permissive split the API has always
// done. A bare header with no second field yields empty.
func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// writeAuthError writes the gate's JSON rejection envelope.
func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // nothing to do if the client went away mid-write
	json.NewEncoder(w).Encode(models.StatusResponse{
		Success: false,
		Message: message,
	})
}
