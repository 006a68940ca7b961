// Parcelario - Forest Parcel Mapping and Species Distribution Backend
// Copyright 2026 A. Morales (agroforestal)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agroforestal/parcelario

// Package wms normalizes Web Map Service URLs before they are saved as
// layer bookmarks.
//
// Clients typically paste a full GetMap request URL copied from a map
// viewer. Normalization strips the per-tile request parameters and
// leaves a base URL ready for further parameters, so the stored
// bookmark works for any bounding box and tile size. The algorithm is
// idempotent: normalizing an already-normalized URL is a no-op.
package wms

import (
	"net/url"
	"regexp"
	"strings"
)

// tileParamPattern matches a tile-request query parameter together with
// its preceding separator. The parameter set is fixed; unknown
// parameters (including LAYERS) survive normalization.
var tileParamPattern = regexp.MustCompile(`(?i)[&?](?:BBOX|WIDTH|HEIGHT|SRS|CRS|STYLES|FORMAT|TRANSPARENT|SERVICE|VERSION|REQUEST)=[^&]*`)

// trailingSeparators matches a trailing run of & or ? characters.
var trailingSeparators = regexp.MustCompile(`[&?]+$`)

// layersPattern detects an existing LAYERS parameter.
var layersPattern = regexp.MustCompile(`(?i)LAYERS=`)

// layersAtEnd matches a URL whose final query parameter is LAYERS.
// Such a URL is the fixed point of normalization and must pass through
// unchanged, otherwise re-normalizing a stored bookmark would grow a
// stray separator on every save.
var layersAtEnd = regexp.MustCompile(`(?i)[?&]LAYERS=[^&]*$`)

// NormalizeURL normalizes a WMS URL for storage:
//
//  1. Strip the fixed set of tile parameters (case-insensitive) with
//     their preceding & or ? separator.
//  2. Strip any trailing run of & or ? left behind.
//  3. Ensure the URL ends ready for appending parameters: append "?"
//     if the URL has none, or "&" if it has parameters but does not
//     already end in a separator.
//  4. Append LAYERS=<escaped layerName> when layerName is non-empty
//     and the URL has no LAYERS parameter yet.
func NormalizeURL(rawURL, layerName string) string {
	u := tileParamPattern.ReplaceAllString(rawURL, "")
	u = trailingSeparators.ReplaceAllString(u, "")

	if !strings.Contains(u, "?") {
		u += "?"
	} else if !strings.HasSuffix(u, "?") && !strings.HasSuffix(u, "&") && !layersAtEnd.MatchString(u) {
		u += "&"
	}

	if layerName != "" && !layersPattern.MatchString(u) {
		u += "LAYERS=" + escapeLayerName(layerName)
	}

	return u
}

// escapeLayerName percent-encodes a layer name for use as a query
// value. Spaces become %20, not +, to keep stored URLs byte-compatible
// with bookmarks saved by earlier releases.
func escapeLayerName(name string) string {
	return strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}
