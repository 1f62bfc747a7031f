package report

import (
	"fmt"

	"github.com/voralis/envrisk/internal/domain/reading"
)

// LocationName resolves coordinates to a coarse city label, matching the
// upstream geocoding stub's boxes. Anything else gets the coordinate
// fallback.
func LocationName(l reading.Location) string {
	switch {
	case l.Latitude >= 40 && l.Latitude <= 41 && l.Longitude >= -75 && l.Longitude <= -73:
		return "New York, NY"
	case l.Latitude >= 34 && l.Latitude <= 35 && l.Longitude >= -119 && l.Longitude <= -117:
		return "Los Angeles, CA"
	case l.Latitude >= 37 && l.Latitude <= 38 && l.Longitude >= -123 && l.Longitude <= -122:
		return "San Francisco, CA"
	default:
		return fmt.Sprintf("Location (%.2f, %.2f)", l.Latitude, l.Longitude)
	}
}
