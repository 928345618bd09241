package media

import (
	"fmt"
	"math"
	"strings"
)

// DMSToDecimal converts degrees/minutes/seconds plus a hemisphere reference
// (N, S, E or W) into signed decimal degrees. South and west are negative.
// An empty reference is treated as north/east.
func DMSToDecimal(deg, minutes, seconds float64, ref string) (float64, error) {
	if deg < 0 || minutes < 0 || seconds < 0 {
		return 0, fmt.Errorf("negative DMS component %v/%v/%v", deg, minutes, seconds)
	}
	val := deg + minutes/60 + seconds/3600

	switch strings.ToUpper(strings.Trim(ref, "\x00 ")) {
	case "", "N", "E":
		return val, nil
	case "S", "W":
		return -val, nil
	default:
		return 0, fmt.Errorf("unknown hemisphere reference %q", ref)
	}
}

// ApplyAltitudeRef signs an altitude magnitude; belowSeaLevel corresponds to
// GPSAltitudeRef == 1.
func ApplyAltitudeRef(alt float64, belowSeaLevel bool) float64 {
	alt = math.Abs(alt)
	if belowSeaLevel {
		return -alt
	}
	return alt
}

// ValidateCoordinate checks that a position lies within the valid degree ranges.
func ValidateCoordinate(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", lon)
	}
	return nil
}
