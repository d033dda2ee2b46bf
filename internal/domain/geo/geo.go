package geo

import (
	"math"

	"civicfix/internal/domain/entity"
)

const (
	EarthRadiusMeters     = 6371000.0
	DuplicateRadiusMeters = 50.0
	MaxAccuracyMeters     = 100.0
)

// Distance returns the haversine great-circle distance between two points in meters.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// HasCoordinates reports whether p holds a usable coordinate pair.
func HasCoordinates(p *entity.GeoPoint) bool {
	if p == nil {
		return false
	}
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// AccurateEnough rejects coarse fixes.
func AccurateEnough(p *entity.GeoPoint) bool {
	return HasCoordinates(p) && p.Accuracy >= 0 && p.Accuracy <= MaxAccuracyMeters
}

// FindDuplicate returns the first existing report within DuplicateRadiusMeters of candidate.
// Callers pass only the submitting user's pending reports. Reports without coordinates
// are skipped, and a candidate without coordinates never matches.
func FindDuplicate(candidate *entity.GeoPoint, existing []*entity.Report) *entity.Report {
	if !HasCoordinates(candidate) {
		return nil
	}
	for _, r := range existing {
		if r == nil || !HasCoordinates(r.Location) {
			continue
		}
		d := Distance(candidate.Latitude, candidate.Longitude, r.Location.Latitude, r.Location.Longitude)
		if d <= DuplicateRadiusMeters {
			return r
		}
	}
	return nil
}

func IsDuplicate(candidate *entity.GeoPoint, existing []*entity.Report) bool {
	return FindDuplicate(candidate, existing) != nil
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
