package geo

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// CoordinateExtractionError is returned when a record carries no usable
// coordinate encoding.
type CoordinateExtractionError struct {
	Reason string
}

func (e *CoordinateExtractionError) Error() string {
	return "coordinate extraction: " + e.Reason
}

// ExtractCoordinates normalises the coordinate encodings found in node
// records into a Point. Supported encodings, tried in order:
//
//   - lat / lon (or lng) fields
//   - latitude / longitude fields
//   - a GeoJSON Point under "location" or "centroid"; a malformed location
//     falls through to centroid
func ExtractCoordinates(record map[string]any) (Point, error) {
	if record == nil {
		return Point{}, &CoordinateExtractionError{Reason: "nil record"}
	}
	lonKey := "lon"
	if _, ok := record[lonKey]; !ok {
		lonKey = "lng"
	}
	if p, ok, err := pair(record, "lat", lonKey); ok {
		return p, err
	}
	if p, ok, err := pair(record, "latitude", "longitude"); ok {
		return p, err
	}
	var firstErr error
	for _, key := range []string{"location", "centroid"} {
		raw, ok := record[key]
		if !ok || raw == nil {
			continue
		}
		p, err := geoJSONPoint(key, raw)
		if err == nil {
			return p, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return Point{}, firstErr
	}
	return Point{}, &CoordinateExtractionError{Reason: "no lat/lon, latitude/longitude, location or centroid field"}
}

func pair(record map[string]any, latKey, lonKey string) (Point, bool, error) {
	rawLat, okLat := record[latKey]
	rawLon, okLon := record[lonKey]
	if !okLat || !okLon {
		return Point{}, false, nil
	}
	lat, err := toFloat(rawLat)
	if err != nil {
		return Point{}, true, &CoordinateExtractionError{Reason: fmt.Sprintf("%s: %v", latKey, err)}
	}
	lon, err := toFloat(rawLon)
	if err != nil {
		return Point{}, true, &CoordinateExtractionError{Reason: fmt.Sprintf("%s: %v", lonKey, err)}
	}
	return checked(Point{Lat: lat, Lon: lon})
}

func geoJSONPoint(key string, raw any) (Point, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Point{}, &CoordinateExtractionError{Reason: key + " is not an object"}
	}
	if t, ok := obj["type"].(string); ok && !strings.EqualFold(t, "Point") {
		return Point{}, &CoordinateExtractionError{Reason: fmt.Sprintf("%s has geometry type %q", key, t)}
	}
	coords, ok := obj["coordinates"].([]any)
	if !ok {
		if fl, isFloats := obj["coordinates"].([]float64); isFloats {
			coords = make([]any, len(fl))
			for i, f := range fl {
				coords[i] = f
			}
		} else {
			return Point{}, &CoordinateExtractionError{Reason: key + ".coordinates missing"}
		}
	}
	if len(coords) < 2 {
		return Point{}, &CoordinateExtractionError{Reason: key + ".coordinates needs [lon, lat]"}
	}
	lon, err := toFloat(coords[0])
	if err != nil {
		return Point{}, &CoordinateExtractionError{Reason: fmt.Sprintf("%s longitude: %v", key, err)}
	}
	lat, err := toFloat(coords[1])
	if err != nil {
		return Point{}, &CoordinateExtractionError{Reason: fmt.Sprintf("%s latitude: %v", key, err)}
	}
	p, _, err := checked(Point{Lat: lat, Lon: lon})
	return p, err
}

func checked(p Point) (Point, bool, error) {
	if !p.Valid() {
		return Point{}, true, &CoordinateExtractionError{Reason: fmt.Sprintf("out of range (%v, %v)", p.Lat, p.Lon)}
	}
	return p, true, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	case nil:
		return 0, fmt.Errorf("null value")
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
