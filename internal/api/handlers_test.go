// Parcelario - Forest Parcel Mapping and Species Distribution Backend
// Copyright 2026 A. Morales (agroforestal)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agroforestal/parcelario

package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/agroforestal/parcelario/internal/auth"
	"github.com/agroforestal/parcelario/internal/config"
	"github.com/agroforestal/parcelario/internal/database"
	"github.com/agroforestal/parcelario/internal/gbif"
	"github.com/agroforestal/parcelario/internal/models"
)

const testJWTSecret = "test-secret-key-at-least-32-chars!!"

// newTestServer builds a full router backed by an in-memory store and
// the given GBIF base URL, with rate limiting disabled.
func newTestServer(t *testing.T, gbifBaseURL string) (*httptest.Server, *database.DB) {
	t.Helper()

	db, err := database.NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{
		Security: config.SecurityConfig{
			JWTSecret:      testJWTSecret,
			SessionTimeout: time.Hour,
			BcryptCost:     bcrypt.MinCost, // keep hashing fast in tests
			CORSOrigins:    []string{"*"},
		},
		GBIF: config.GBIFConfig{
			BaseURL:         gbifBaseURL,
			OccurrenceLimit: 300,
			Timeout:         5 * time.Second,
		},
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	handler := NewHandler(db, jwtManager, gbif.NewClient(&cfg.GBIF), cfg, "test")
	router := NewRouter(handler, auth.NewMiddleware(jwtManager), NewChiMiddlewareFromSecurity(cfg.Security.CORSOrigins, 1000, time.Minute, true))

	srv := httptest.NewServer(router.SetupChi())
	t.Cleanup(srv.Close)

	return srv, db
}

// doJSON issues a request with an optional bearer token and JSON body.
func doJSON(t *testing.T, method, url, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

// registerUser registers a user through the API and returns the token
// and user ID.
func registerUser(t *testing.T, baseURL, username string) (token, userID string) {
	t.Helper()

	resp := doJSON(t, http.MethodPost, baseURL+"/api/auth/register", "", models.CredentialsRequest{
		Username: username,
		Password: "correct horse battery staple",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %q status = %d, want %d", username, resp.StatusCode, http.StatusCreated)
	}

	var authResp models.AuthResponse
	decodeBody(t, resp, &authResp)
	if !authResp.Success || authResp.Token == "" || authResp.UserID == "" {
		t.Fatalf("register %q response = %+v, want success with token and userId", username, authResp)
	}
	return authResp.Token, authResp.UserID
}

func TestRegisterLoginFlow(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, "http://gbif.invalid")

	token, userID := registerUser(t, srv.URL, "alice")
	if token == "" || userID == "" {
		t.Fatal("expected token and userId from register")
	}

	// Duplicate username is rejected
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", models.CredentialsRequest{
		Username: "alice",
		Password: "another long password",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	resp.Body.Close()

	// Login with the right password
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", models.CredentialsRequest{
		Username: "alice",
		Password: "correct horse battery staple",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var loginResp models.AuthResponse
	decodeBody(t, resp, &loginResp)
	if !loginResp.Success || loginResp.UserID != userID {
		t.Errorf("login response = %+v, want success for user %s", loginResp, userID)
	}

	// Wrong password
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", models.CredentialsRequest{
		Username: "alice",
		Password: "not the right password",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
	resp.Body.Close()

	// Unknown user looks the same as a wrong password
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", models.CredentialsRequest{
		Username: "mallory",
		Password: "whatever password here",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unknown user status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
	resp.Body.Close()
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, "http://gbif.invalid")

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"empty username", "", "a long enough password"},
		{"short username", "ab", "a long enough password"},
		{"empty password", "carol", ""},
		{"short password", "carol", "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", models.CredentialsRequest{
				Username: tt.username,
				Password: tt.password,
			})
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
			}
		})
	}
}

func TestParcelAuthGate(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, "http://gbif.invalid")

	// No token at all
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/parcelas/listar", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
	var status models.StatusResponse
	decodeBody(t, resp, &status)
	if status.Message != "No token provided" {
		t.Errorf("no token message = %q, want %q", status.Message, "No token provided")
	}

	// Garbage token
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/parcelas/listar", "not.a.token", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("bad token status = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}
	decodeBody(t, resp, &status)
	if status.Message != "Invalid or expired token" {
		t.Errorf("bad token message = %q, want %q", status.Message, "Invalid or expired token")
	}
}

func TestParcelSaveAndListPerOwner(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, "http://gbif.invalid")

	aliceToken, _ := registerUser(t, srv.URL, "alice")
	bobToken, _ := registerUser(t, srv.URL, "bob")

	geometry := json.RawMessage(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`)

	for _, name := range []string{"encinar norte", "pinar sur"} {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/parcelas/guardar", aliceToken, models.ParcelRequest{
			Name:     name,
			Geometry: geometry,
			Trees:    json.RawMessage(`[{"especie":"Quercus ilex","altura":8.2}]`),
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("save %q status = %d, want %d", name, resp.StatusCode, http.StatusCreated)
		}
		var status models.StatusResponse
		decodeBody(t, resp, &status)
		if !status.Success || status.Message != "Parcela guardada correctamente" {
			t.Errorf("save response = %+v", status)
		}
	}

	// Alice sees her two parcels
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/parcelas/listar", aliceToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("alice list status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var aliceList models.ParcelListResponse
	decodeBody(t, resp, &aliceList)
	if !aliceList.Success || len(aliceList.Parcels) != 2 {
		t.Errorf("alice parcels = %d, want 2", len(aliceList.Parcels))
	}
	for _, p := range aliceList.Parcels {
		if p.ID == "" || p.CreatedAt.IsZero() {
			t.Errorf("parcel %q missing server-assigned fields: %+v", p.Name, p)
		}
	}

	// Bob sees nothing of Alice's, and gets an array rather than null
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/parcelas/listar", bobToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("bob list status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read bob list body: %v", err)
	}
	if !strings.Contains(string(raw), `"parcels":[]`) {
		t.Errorf("bob list body = %s, want empty parcels array", raw)
	}
}

func TestWMSLayerEndpoints(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, "http://gbif.invalid")

	aliceToken, _ := registerUser(t, srv.URL, "alice")
	bobToken, _ := registerUser(t, srv.URL, "bob")

	// Save requires a token
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/wms-layers/guardar", "", models.WMSLayerRequest{
		Name: "IGN base",
		URL:  "https://www.ign.es/wms-inspire/ign-base",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated save status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
	resp.Body.Close()

	// Missing fields
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/wms-layers/guardar", aliceToken, models.WMSLayerRequest{
		Name: "sin url",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing url status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	var status models.StatusResponse
	decodeBody(t, resp, &status)
	if status.Message != "Faltan campos requeridos (name, url)" {
		t.Errorf("missing url message = %q", status.Message)
	}

	// A GetMap-style URL is reduced to its base plus LAYERS
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/wms-layers/guardar", aliceToken, models.WMSLayerRequest{
		Name:      "ortofoto",
		URL:       "https://www.ign.es/wms-inspire/pnoa-ma?SERVICE=WMS&REQUEST=GetMap&BBOX=1,2,3,4&WIDTH=256&HEIGHT=256",
		LayerName: "OI.OrthoimageCoverage",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("alice save status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	decodeBody(t, resp, &status)
	if status.Message != "URL de WMS guardada correctamente" {
		t.Errorf("save message = %q", status.Message)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/wms-layers/guardar", bobToken, models.WMSLayerRequest{
		Name: "catastro",
		URL:  "http://ovc.catastro.meh.es/Cartografia/WMS/ServidorWMS.aspx",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("bob save status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	resp.Body.Close()

	// Listing is public and shows layers from every user
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/wms-layers/listar", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var list models.WMSLayerListResponse
	decodeBody(t, resp, &list)
	if !list.Success || len(list.Layers) != 2 {
		t.Fatalf("layers = %d, want 2", len(list.Layers))
	}

	byName := make(map[string]models.WMSLayer, len(list.Layers))
	for _, l := range list.Layers {
		byName[l.Name] = l
	}
	want := "https://www.ign.es/wms-inspire/pnoa-ma?LAYERS=OI.OrthoimageCoverage"
	if got := byName["ortofoto"].URL; got != want {
		t.Errorf("normalized URL = %q, want %q", got, want)
	}
}

// newGBIFStub serves canned GBIF species match and occurrence search
// responses.
func newGBIFStub(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/species/match", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("name") == "Quercus ilex" {
			_, _ = w.Write([]byte(`{"usageKey":2878688,"scientificName":"Quercus ilex L."}`))
			return
		}
		_, _ = w.Write([]byte(`{"matchType":"NONE"}`))
	})
	mux.HandleFunc("/occurrence/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"key":1,"decimalLatitude":40.4,"decimalLongitude":-3.7,"country":"Spain","eventDate":"2025-06-01"},
			{"key":2,"country":"Spain"},
			{"key":3,"decimalLatitude":37.2,"decimalLongitude":-5.9,"country":"Spain","eventDate":"2025-07-12"}
		]}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSpeciesDistribution(t *testing.T) {
	t.Parallel()

	gbifSrv := newGBIFStub(t)
	srv, _ := newTestServer(t, gbifSrv.URL)

	// Missing species
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/maxent/distribution", "", map[string]string{"aoi": "ES"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing species status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	var errResp models.ErrorResponse
	decodeBody(t, resp, &errResp)
	if errResp.Error != "species is required" {
		t.Errorf("missing species error = %q", errResp.Error)
	}

	// Unknown species
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/maxent/distribution", "", map[string]string{"species": "Dracaena imaginaria"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown species status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	decodeBody(t, resp, &errResp)
	if errResp.Error != "No taxonKey found for species" {
		t.Errorf("unknown species error = %q", errResp.Error)
	}

	// Successful lookup echoes the modeling parameters and drops the
	// record without coordinates
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/maxent/distribution", "", map[string]interface{}{
		"species":        "Quercus ilex",
		"aoi":            "ES",
		"variables":      []string{"bio1", "bio12"},
		"features":       map[string]bool{"linear": true},
		"betaMultiplier": 1.5,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("distribution status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var dist DistributionResponse
	decodeBody(t, resp, &dist)
	if dist.TaxonKey != 2878688 {
		t.Errorf("taxonKey = %d, want 2878688", dist.TaxonKey)
	}
	if len(dist.Occurrences) != 2 {
		t.Errorf("occurrences = %d, want 2", len(dist.Occurrences))
	}
	if string(dist.Variables) != `["bio1","bio12"]` {
		t.Errorf("variables = %s, want echo of request", dist.Variables)
	}
	if string(dist.BetaMultiplier) != "1.5" {
		t.Errorf("betaMultiplier = %s, want 1.5", dist.BetaMultiplier)
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, "http://gbif.invalid")

	for _, path := range []string{"/api/health", "/api/health/live", "/api/health/ready"} {
		resp := doJSON(t, http.MethodGet, srv.URL+path, "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d, want %d", path, resp.StatusCode, http.StatusOK)
		}
		var health models.HealthResponse
		decodeBody(t, resp, &health)
		if health.Status == "" || health.Version != "test" {
			t.Errorf("%s response = %+v", path, health)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, "http://gbif.invalid")

	resp := doJSON(t, http.MethodGet, srv.URL+"/metrics", "", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read metrics body: %v", err)
	}
	if !strings.Contains(string(raw), "go_goroutines") {
		t.Error("expected Go runtime metrics in /metrics output")
	}
}
