// Package geo implements the geospatial index the Matching Service
// reads and the Driver Registry writes: a Redis sorted geo set keyed
// "drivers:geo" plus a companion freshness key per driver, following the
// teacher's internal/redis package split (LocationStore wrapping GEOADD/
// GEORADIUS) generalized to the freshness and radius/limit policy the
// matching service requires.
package geo

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	indexKey          = "drivers:geo"
	freshnessPrefix   = "drivers:geo:fresh:" // + driver id
	freshnessWindow   = 60 * time.Second
	defaultRadiusKm   = 5.0
	defaultLimit      = 5
)

// Candidate is a driver returned from a nearby search, ordered by ascending
// distance from the query point.
type Candidate struct {
	DriverID   string
	DistanceKm float64
	Lat        float64
	Lon        float64
}

// Index wraps the Redis geo set backing the matching hot path.
type Index struct {
	client *redis.Client
}

// NewIndex builds an Index over an existing Redis client.
func NewIndex(client *redis.Client) *Index {
	return &Index{client: client}
}

// Upsert writes a driver's position into the geo set and refreshes its
// freshness key. Called by the Driver Registry whenever a driver becomes
// AVAILABLE or reports a new location while AVAILABLE.
func (idx *Index) Upsert(ctx context.Context, driverID string, lat, lon float64) error {
	pipe := idx.client.TxPipeline()
	pipe.GeoAdd(ctx, indexKey, &redis.GeoLocation{Name: driverID, Longitude: lon, Latitude: lat})
	pipe.Set(ctx, freshnessKey(driverID), time.Now().UTC().Format(time.RFC3339), freshnessWindow)
	_, err := pipe.Exec(ctx)
	return err
}

// Remove deletes a driver from the geo set. Called whenever a driver
// transitions away from AVAILABLE, or is assigned a ride, so that a nearby
// search cannot hand out a candidate that is no longer available.
func (idx *Index) Remove(ctx context.Context, driverID string) error {
	pipe := idx.client.TxPipeline()
	pipe.ZRem(ctx, indexKey, driverID)
	pipe.Del(ctx, freshnessKey(driverID))
	_, err := pipe.Exec(ctx)
	return err
}

// IsFresh reports whether driverID's last location write is within the 60s
// freshness window. Used by the Driver Registry, when a driver returns to
// AVAILABLE, to decide whether its last-known position is re-added.
func (idx *Index) IsFresh(ctx context.Context, driverID string) (bool, error) {
	n, err := idx.client.Exists(ctx, freshnessKey(driverID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SearchNearby returns up to limit drivers within radiusKm of (lat, lon),
// sorted by ascending distance. radiusKm<=0 defaults to 5km; limit<=0
// defaults to 5. A single call, no store reads in the hot path.
func (idx *Index) SearchNearby(ctx context.Context, lat, lon float64, radiusKm float64, limit int) ([]Candidate, error) {
	if radiusKm <= 0 {
		radiusKm = defaultRadiusKm
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	results, err := idx.client.GeoRadius(ctx, indexKey, lon, lat, &redis.GeoRadiusQuery{
		Radius:      radiusKm,
		Unit:        "km",
		WithCoord:   true,
		WithDist:    true,
		Sort:        "ASC",
		Count:       limit,
	}).Result()
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, Candidate{
			DriverID:   r.Name,
			DistanceKm: r.Dist,
			Lat:        r.Latitude,
			Lon:        r.Longitude,
		})
	}
	return candidates, nil
}

func freshnessKey(driverID string) string {
	return fmt.Sprintf("%s%s", freshnessPrefix, driverID)
}
