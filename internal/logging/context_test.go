// Parcelario - Forest Parcel Mapping and Species Distribution Backend
// Copyright 2026 A. Morales (agroforestal)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agroforestal/parcelario

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestGenerateRequestID(t *testing.T) {
	t.Parallel()

	id := GenerateRequestID()
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("GenerateRequestID() = %q, not a valid UUID: %v", id, err)
	}

	if GenerateRequestID() == id {
		t.Error("expected unique IDs from successive calls")
	}
}

func TestRequestIDFromContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("RequestIDFromContext(empty) = %q, want empty", got)
	}

	ctx = ContextWithRequestID(ctx, "req-123")
	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Errorf("RequestIDFromContext() = %q, want %q", got, "req-123")
	}
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	scoped := NewTestLogger(&buf).With().Str("job", "import").Logger()

	ctx := ContextWithLogger(context.Background(), scoped)
	got := LoggerFromContext(ctx)
	got.Info().Msg("scoped logger")

	if !strings.Contains(buf.String(), "import") {
		t.Errorf("expected scoped logger field in output: %s", buf.String())
	}
}

func TestCtxIncludesRequestID(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))

	ctx := ContextWithRequestID(context.Background(), "req-456")
	Ctx(ctx).Info().Msg("with request id")

	output := buf.String()
	if !strings.Contains(output, "req-456") {
		t.Errorf("expected request_id in output: %s", output)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))

	logger := WithComponent("store")
	logger.Info().Msg("component scoped")

	output := buf.String()
	if !strings.Contains(output, "store") {
		t.Errorf("expected component field in output: %s", output)
	}
}
