package domain

import "time"

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusCreated   TripStatus = "CREATED"
	TripStatusStarted   TripStatus = "STARTED"
	TripStatusPaused    TripStatus = "PAUSED"
	TripStatusEnded     TripStatus = "ENDED"
	TripStatusCancelled TripStatus = "CANCELLED"
)

// Trip represents an active or completed trip in the system.
//
// For a given driver, at most one trip with status in {CREATED, STARTED,
// PAUSED} may exist. StartedAt is non-zero once status is in {STARTED,
// PAUSED, ENDED}; EndedAt is non-zero (and >= StartedAt) once status ==
// ENDED; TotalFare is set once status == ENDED.
type Trip struct {
	ID          string
	RideID      string // unique
	DriverID    string
	Status      TripStatus
	StartedAt   time.Time
	EndedAt     time.Time
	PausedAt    time.Time     // when the trip entered PAUSED, zero otherwise
	TotalPaused time.Duration // cumulative paused duration, excluded from fare time
	DistanceKm  float64
	DurationSec int64
	BaseFare    float64 // pre-surge subtotal
	TotalFare   float64 // surge-multiplied total
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Receipt represents a read-only trip receipt, joining trip + ride + driver + payment.
type Receipt struct {
	ID              string
	TripID          string
	RideID          string
	DriverID        string
	RiderID         string
	PickupLat       float64
	PickupLng       float64
	DestinationLat  float64
	DestinationLng  float64
	Tier            RideTier
	BaseFare        float64
	SurgeMultiplier float64
	SurgeAmount     float64
	TotalFare       float64
	PaymentMethod   PaymentMethod
	PaymentStatus   PaymentStatus
	DistanceKm      float64
	DurationSec     int64
	StartedAt       time.Time
	EndedAt         time.Time
	CreatedAt       time.Time
}
