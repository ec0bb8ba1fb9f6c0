// Package handlers contains the HTTP handler implementations for the
// AgriDash API. Each handler defines a local service interface matching the
// package it fronts, so handlers depend on behavior rather than concrete
// service types.
package handlers

import (
	"net/http"
	"strconv"

	"agridash/internal/types"
)

// parseCoordinates reads and validates lat/lon query parameters.
func parseCoordinates(r *http.Request) (lat, lon float64, err error) {
	q := r.URL.Query()

	latStr := q.Get("lat")
	if latStr == "" {
		return 0, 0, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"lat query parameter is required",
			nil,
		)
	}
	lat, parseErr := strconv.ParseFloat(latStr, 64)
	if parseErr != nil || lat < -90 || lat > 90 {
		return 0, 0, types.NewAppError(
			types.ErrCodeValidationInvalidLat,
			"lat must be a number between -90 and 90",
			parseErr,
		)
	}

	lonStr := q.Get("lon")
	if lonStr == "" {
		return 0, 0, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"lon query parameter is required",
			nil,
		)
	}
	lon, parseErr = strconv.ParseFloat(lonStr, 64)
	if parseErr != nil || lon < -180 || lon > 180 {
		return 0, 0, types.NewAppError(
			types.ErrCodeValidationInvalidLon,
			"lon must be a number between -180 and 180",
			parseErr,
		)
	}
	return lat, lon, nil
}
