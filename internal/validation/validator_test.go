// Parcelario - Forest Parcel Mapping and Species Distribution Backend
// Copyright 2026 A. Morales (agroforestal)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agroforestal/parcelario

package validation

import (
	"strings"
	"testing"
)

type layerForm struct {
	Name string `validate:"required"`
	URL  string `validate:"required,url"`
}

type credentialsForm struct {
	Username string `validate:"required,min=3,max=64"`
	Password string `validate:"required,min=8,max=128"`
}

func TestGetValidatorSingleton(t *testing.T) {
	t.Parallel()

	v1 := GetValidator()
	v2 := GetValidator()
	if v1 != v2 {
		t.Error("GetValidator should return the same instance")
	}
}

func TestValidateStructPasses(t *testing.T) {
	t.Parallel()

	form := layerForm{Name: "IGN base", URL: "https://www.ign.es/wms-inspire/ign-base"}
	if err := ValidateStruct(&form); err != nil {
		t.Errorf("ValidateStruct() = %v, want nil", err)
	}
}

func TestValidateStructFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       interface{}
		wantField   string
		wantMessage string
	}{
		{
			name:        "missing name",
			input:       &layerForm{URL: "https://example.com/wms"},
			wantField:   "Name",
			wantMessage: "Name is required",
		},
		{
			name:        "invalid url",
			input:       &layerForm{Name: "x", URL: "not a url"},
			wantField:   "URL",
			wantMessage: "URL must be a valid URL",
		},
		{
			name:        "short username",
			input:       &credentialsForm{Username: "ab", Password: "long enough password"},
			wantField:   "Username",
			wantMessage: "Username must be at least 3 characters",
		},
		{
			name:        "short password",
			input:       &credentialsForm{Username: "alice", Password: "short"},
			wantField:   "Password",
			wantMessage: "Password must be at least 8 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateStruct(tt.input)
			if err == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}

			errs := err.Errors()
			if len(errs) != 1 {
				t.Fatalf("got %d field errors, want 1: %v", len(errs), err)
			}
			if errs[0].Field() != tt.wantField {
				t.Errorf("Field() = %q, want %q", errs[0].Field(), tt.wantField)
			}
			if errs[0].Error() != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", errs[0].Error(), tt.wantMessage)
			}
		})
	}
}

func TestRequestValidationErrorJoinsMessages(t *testing.T) {
	t.Parallel()

	err := ValidateStruct(&layerForm{})
	if err == nil {
		t.Fatal("ValidateStruct() = nil, want error")
	}

	msg := err.Error()
	if !strings.Contains(msg, "Name is required") || !strings.Contains(msg, "URL is required") {
		t.Errorf("combined message = %q, want both field messages", msg)
	}
	if !strings.Contains(msg, "; ") {
		t.Errorf("combined message = %q, want semicolon-joined messages", msg)
	}
}
