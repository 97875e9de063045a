package geo

import (
	"math/rand"
	"sync"
	"time"

	"boadwuma-backend/internal/models"
)

// ETA bounds in minutes for the simulated feed.
const (
	minEtaMinutes = 10
	maxEtaMinutes = 30
)

// maxJitterDegrees bounds how far a simulated provider position may drift
// from the request location on each axis.
const maxJitterDegrees = 0.005

// LocationProvider supplies the ETA and provider position used while a
// request is en route. The engine depends on it abstractly so the simulated
// generator can be swapped for a real positioning feed.
type LocationProvider interface {
	EstimateEta() int
	ProviderPosition(origin models.Location) models.Location
}

// Simulated generates plausible telemetry around the request's own location,
// defaulting to Accra when the request carries no coordinates.
type Simulated struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSimulated() *Simulated {
	return &Simulated{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSimulatedWithSeed returns a deterministic generator for tests.
func NewSimulatedWithSeed(seed int64) *Simulated {
	return &Simulated{rng: rand.New(rand.NewSource(seed))}
}

// EstimateEta returns a whole number of minutes in [10, 30).
func (s *Simulated) EstimateEta() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return minEtaMinutes + s.rng.Intn(maxEtaMinutes-minEtaMinutes)
}

// ProviderPosition jitters the origin by up to ±0.005 degrees on each axis.
func (s *Simulated) ProviderPosition(origin models.Location) models.Location {
	if origin.Lat == 0 && origin.Lng == 0 {
		origin = models.Accra
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.Location{
		Lat: origin.Lat + (s.rng.Float64()-0.5)*2*maxJitterDegrees,
		Lng: origin.Lng + (s.rng.Float64()-0.5)*2*maxJitterDegrees,
	}
}
