package geo

import "context"

// NearbyFinder is the read side of the geo index the Matching Service
// depends on. Satisfied by *Index; a hand-rolled mock backs service tests.
type NearbyFinder interface {
	SearchNearby(ctx context.Context, lat, lon float64, radiusKm float64, limit int) ([]Candidate, error)
}

// IndexWriter is the write side the Driver Registry depends on.
type IndexWriter interface {
	Upsert(ctx context.Context, driverID string, lat, lon float64) error
	Remove(ctx context.Context, driverID string) error
	IsFresh(ctx context.Context, driverID string) (bool, error)
}

var (
	_ NearbyFinder = (*Index)(nil)
	_ IndexWriter  = (*Index)(nil)
)
