package service

import (
	"context"

	"ride/internal/geo"
)

const (
	defaultSearchRadiusKm = 5.0
	defaultSearchLimit    = 5
)

// MatchingService implements the Matching Service: a read-only
// nearby-candidate lookup over the geo index. It makes no assignment
// decision and performs no writes — that belongs to the Assignment Service
//, which the Dispatch Worker drives with the candidates this service
// returns.
type MatchingService struct {
	nearby   geo.NearbyFinder
	radiusKm float64
	limit    int
}

// NewMatchingService creates a new MatchingService.
func NewMatchingService(nearby geo.NearbyFinder, radiusKm float64, limit int) *MatchingService {
	if radiusKm <= 0 {
		radiusKm = defaultSearchRadiusKm
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return &MatchingService{nearby: nearby, radiusKm: radiusKm, limit: limit}
}

// FindNearbyRequest contains the parameters for a candidate search.
type FindNearbyRequest struct {
	Lat      float64
	Lng      float64
	RadiusKm float64 // Optional: 0 uses the configured default
	Limit    int     // Optional: 0 uses the configured default
}

// FindNearby returns AVAILABLE driver candidates near a point, nearest
// first. Tier filtering is not applied here: the geo index holds a single
// set for all drivers, so every tier draws from the same candidate pool.
func (s *MatchingService) FindNearby(ctx context.Context, req FindNearbyRequest) ([]geo.Candidate, error) {
	radiusKm := req.RadiusKm
	if radiusKm <= 0 {
		radiusKm = s.radiusKm
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.limit
	}
	return s.nearby.SearchNearby(ctx, req.Lat, req.Lng, radiusKm, limit)
}
