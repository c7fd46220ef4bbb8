package shelters

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"shelternav.org/internal/geo"
	"shelternav.org/internal/metrics"
	"shelternav.org/internal/models"
)

var ErrInvalidShelter = errors.New("invalid shelter")

// Store is a thread-safe in-memory shelter set. Readers always get a copy,
// so a watch session can hold its snapshot while the set is replaced.
type Store struct {
	mu       sync.RWMutex
	shelters []models.Shelter
}

// NewStore returns a Store holding a copy of initial.
func NewStore(initial []models.Shelter) *Store {
	s := &Store{}
	s.Set(initial)
	return s
}

// Snapshot returns a copy of the current shelter set.
func (s *Store) Snapshot() []models.Shelter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Shelter(nil), s.shelters...)
}

// Set replaces the shelter set.
func (s *Store) Set(shelters []models.Shelter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shelters = append([]models.Shelter(nil), shelters...)
	metrics.ShelterCount.Set(float64(len(s.shelters)))
}

// Add validates and appends a shelter, returning the updated set.
func (s *Store) Add(shelter models.Shelter) ([]models.Shelter, error) {
	if err := Validate(shelter); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.shelters = append(s.shelters, shelter)
	metrics.ShelterCount.Set(float64(len(s.shelters)))
	return append([]models.Shelter(nil), s.shelters...), nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.shelters)
}

// Validate checks that a shelter has a name and a usable location.
func Validate(shelter models.Shelter) error {
	if strings.TrimSpace(shelter.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidShelter)
	}
	if !geo.IsValidPosition(shelter.Location) {
		return fmt.Errorf("%w: coordinates %v,%v out of range", ErrInvalidShelter, shelter.Location.Lat, shelter.Location.Lon)
	}
	return nil
}
