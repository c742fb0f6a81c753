package domain

import "time"

// DriverStatus represents the current status of a driver.
type DriverStatus string

const (
	DriverStatusOffline   DriverStatus = "OFFLINE"
	DriverStatusAvailable DriverStatus = "AVAILABLE"
	DriverStatusOnTrip    DriverStatus = "ON_TRIP"
)

// Driver represents a driver in the system.
//
// A driver is present in the geospatial index iff Status == AVAILABLE, and
// at most one non-terminal trip references a given driver at any time.
type Driver struct {
	ID        string
	Name      string
	Phone     string
	Status    DriverStatus
	Lat       float64
	Lon       float64
	HasLoc    bool // whether Lat/Lon has ever been reported
	Rating    float64
	CreatedAt time.Time
	UpdatedAt time.Time
}
