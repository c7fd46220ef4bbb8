package geo

import "shelternav.org/internal/models"

// Nearest returns the shelter closest to pos.
//
// The scan is linear and keeps the first shelter on ties. ok is false when
// shelters is empty.
func Nearest(pos models.Position, shelters []models.Shelter) (result models.NearestResult, ok bool) {
	for i, s := range shelters {
		d := Distance(pos, s.Location)
		if i == 0 || d < result.DistanceMeters {
			result = models.NearestResult{Shelter: s, DistanceMeters: d}
		}
	}
	return result, len(shelters) > 0
}
