// Parcelario - Forest Parcel Mapping and Species Distribution Backend
// Copyright 2026 A. Morales (agroforestal)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agroforestal/parcelario

package models

import "time"

// User is a registered account. PasswordHash is a bcrypt digest and is
// never serialized into API responses.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username" validate:"required,min=3,max=64"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CredentialsRequest is the client body for register and login.
type CredentialsRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}
