// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/voralis/envrisk/internal/domain/reading"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// locationFromQuery parses the lat/lon query parameters. Missing or
// unparsable values are reported with the offending field name; range
// checks are left to Location.Validate.
func locationFromQuery(r *http.Request) (reading.Location, error) {
	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")
	if latStr == "" {
		return reading.Location{}, fmt.Errorf("%w: missing lat", ErrBadRequest)
	}
	if lonStr == "" {
		return reading.Location{}, fmt.Errorf("%w: missing lon", ErrBadRequest)
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return reading.Location{}, fmt.Errorf("%w: invalid lat %q", ErrBadRequest, latStr)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return reading.Location{}, fmt.Errorf("%w: invalid lon %q", ErrBadRequest, lonStr)
	}
	return reading.Location{Latitude: lat, Longitude: lon}, nil
}
