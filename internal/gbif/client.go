// Parcelario - Forest Parcel Mapping and Species Distribution Backend
// Copyright 2026 A. Morales (agroforestal)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agroforestal/parcelario

// Package gbif is the client for the GBIF public API used by the
// species-distribution endpoint. Calls go through a circuit breaker so
// a slow or failing upstream cannot pile up request goroutines.
package gbif

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/agroforestal/parcelario/internal/config"
	"github.com/agroforestal/parcelario/internal/logging"
	"github.com/agroforestal/parcelario/internal/metrics"
)

// ErrNoMatch is returned when the species backbone has no usage key
// for the requested name.
var ErrNoMatch = errors.New("no taxon key found for species")

// countryCodePattern matches a bare 2-letter ISO country code.
var countryCodePattern = regexp.MustCompile(`^[A-Za-z]{2}$`)

// Occurrence is one georeferenced species occurrence record. Records
// without coordinates are dropped before they reach the caller.
type Occurrence struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Key     int64   `json:"key"`
	Country string  `json:"country"`
	Date    string  `json:"date"`
}

// Distribution is the assembled result for one species query.
type Distribution struct {
	TaxonKey    int64        `json:"taxonKey"`
	Occurrences []Occurrence `json:"occurrences"`
}

// matchResponse is the subset of /species/match we read.
type matchResponse struct {
	UsageKey int64 `json:"usageKey"`
}

// occurrenceRecord is the subset of an occurrence search result we read.
type occurrenceRecord struct {
	Key              int64   `json:"key"`
	DecimalLatitude  float64 `json:"decimalLatitude"`
	DecimalLongitude float64 `json:"decimalLongitude"`
	Country          string  `json:"country"`
	EventDate        string  `json:"eventDate"`
}

// occurrenceSearchResponse is the envelope of /occurrence/search.
type occurrenceSearchResponse struct {
	Results []occurrenceRecord `json:"results"`
}

// Client talks to the GBIF API with circuit breaker protection.
type Client struct {
	baseURL    string
	limit      int
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[[]byte]
}

// NewClient creates a GBIF client from configuration.
//
// Circuit breaker settings: opens at a 60% failure rate over at least
// 10 requests, allows 3 probes in half-open state, and waits 2 minutes
// before probing an open circuit.
func NewClient(cfg *config.GBIFConfig) *Client {
	cbName := "gbif-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
		},
	})

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		limit:      cfg.OccurrenceLimit,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cb:         cb,
	}
}

// MatchSpecies resolves a species name to its backbone taxon key.
// Returns ErrNoMatch when the backbone has no usage key for the name.
func (c *Client) MatchSpecies(ctx context.Context, species string) (int64, error) {
	endpoint := c.baseURL + "/species/match?name=" + url.QueryEscape(species)

	body, err := c.get(ctx, "species_match", endpoint)
	if err != nil {
		return 0, err
	}

	var match matchResponse
	if err := json.Unmarshal(body, &match); err != nil {
		return 0, fmt.Errorf("decode species match: %w", err)
	}
	if match.UsageKey == 0 {
		return 0, ErrNoMatch
	}

	return match.UsageKey, nil
}

// Occurrences fetches georeferenced occurrences for a taxon key. The
// aoi argument is applied as a country filter only when it is a bare
// 2-letter ISO code; anything else (polygons, names) is ignored.
// Records lacking either coordinate are dropped.
func (c *Client) Occurrences(ctx context.Context, taxonKey int64, aoi string) ([]Occurrence, error) {
	endpoint := fmt.Sprintf("%s/occurrence/search?taxonKey=%d&limit=%d", c.baseURL, taxonKey, c.limit)

	aoi = strings.TrimSpace(aoi)
	if countryCodePattern.MatchString(aoi) {
		endpoint += "&country=" + strings.ToUpper(aoi)
	}

	body, err := c.get(ctx, "occurrence_search", endpoint)
	if err != nil {
		return nil, err
	}

	var search occurrenceSearchResponse
	if err := json.Unmarshal(body, &search); err != nil {
		return nil, fmt.Errorf("decode occurrence search: %w", err)
	}

	occurrences := make([]Occurrence, 0, len(search.Results))
	for _, rec := range search.Results {
		// Absent coordinates decode as zero; a record on the equator or
		// prime meridian is indistinguishable and dropped with them
		if rec.DecimalLatitude == 0 || rec.DecimalLongitude == 0 {
			continue
		}
		occurrences = append(occurrences, Occurrence{
			Lat:     rec.DecimalLatitude,
			Lng:     rec.DecimalLongitude,
			Key:     rec.Key,
			Country: rec.Country,
			Date:    rec.EventDate,
		})
	}

	return occurrences, nil
}

// Distribution resolves a species name and fetches its occurrences in
// one call, the shape the species-distribution endpoint serves.
func (c *Client) Distribution(ctx context.Context, species, aoi string) (*Distribution, error) {
	taxonKey, err := c.MatchSpecies(ctx, species)
	if err != nil {
		return nil, err
	}

	occurrences, err := c.Occurrences(ctx, taxonKey, aoi)
	if err != nil {
		return nil, err
	}

	return &Distribution{
		TaxonKey:    taxonKey,
		Occurrences: occurrences,
	}, nil
}

// get performs a GET through the circuit breaker and returns the body.
// Any non-200 status counts as a breaker failure.
func (c *Client) get(ctx context.Context, name, endpoint string) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.GBIFRequestDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	return c.cb.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("gbif request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read gbif response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("gbif returned status %d", resp.StatusCode)
		}

		return body, nil
	})
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
