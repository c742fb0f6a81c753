// Package statemachine validates entity transitions against the fixed
// tables in the dispatch core domain model. It is pure and stateless: it
// holds no store handle and performs no I/O. Callers are expected to
// invoke Validate inside the enclosing transaction, after the row has been
// locked and its current state read — this package never re-reads state
// itself.
package statemachine

import "fmt"

// EntityKind names the aggregate whose transition is being checked.
type EntityKind string

const (
	EntityTrip   EntityKind = "TRIP"
	EntityRide   EntityKind = "RIDE"
	EntityDriver EntityKind = "DRIVER"
)

// InvalidTransition is returned when from->to is not present in the
// transition table for the given entity.
type InvalidTransition struct {
	Entity  EntityKind
	From    string
	To      string
	Allowed []string
}

func (e *InvalidTransition) Error() string {
	return fmt.Sprintf("statemachine: invalid %s transition %s -> %s (allowed: %v)", e.Entity, e.From, e.To, e.Allowed)
}

// table maps a from-state to its allowed to-states.
type table map[string][]string

var tripTable = table{
	"CREATED": {"STARTED", "CANCELLED"},
	"STARTED": {"PAUSED", "ENDED", "CANCELLED"},
	"PAUSED":  {"STARTED", "ENDED", "CANCELLED"},
	"ENDED":     {},
	"CANCELLED": {},
}

var rideTable = table{
	"REQUESTED":       {"MATCHING", "CANCELLED", "EXPIRED"},
	"MATCHING":        {"DRIVER_ASSIGNED", "CANCELLED", "EXPIRED"},
	"DRIVER_ASSIGNED": {"COMPLETED", "CANCELLED"},
	"COMPLETED":       {},
	"CANCELLED":       {},
	"EXPIRED":         {},
}

// Note: the source data permitted a DRIVER_ASSIGNED->DRIVER_ASSIGNED
// "idempotent re-assignment" edge. We reject it — see DESIGN.md.

var driverTable = table{
	"OFFLINE":   {"AVAILABLE"},
	"AVAILABLE": {"OFFLINE", "ON_TRIP"},
	"ON_TRIP":   {"AVAILABLE", "OFFLINE"},
}

func tableFor(entity EntityKind) table {
	switch entity {
	case EntityTrip:
		return tripTable
	case EntityRide:
		return rideTable
	case EntityDriver:
		return driverTable
	default:
		return nil
	}
}

// Validate checks whether from->to is a legal transition for entity. It
// returns nil on success, or a non-nil *InvalidTransition otherwise
// (including the case from == to, which is never implicitly allowed).
func Validate(entity EntityKind, from, to string) error {
	t := tableFor(entity)
	if t == nil {
		return &InvalidTransition{Entity: entity, From: from, To: to}
	}
	allowed, ok := t[from]
	if !ok {
		return &InvalidTransition{Entity: entity, From: from, To: to}
	}
	for _, candidate := range allowed {
		if candidate == to {
			return nil
		}
	}
	return &InvalidTransition{Entity: entity, From: from, To: to, Allowed: allowed}
}

// IsTerminal reports whether state has no outgoing transitions for entity.
func IsTerminal(entity EntityKind, state string) bool {
	t := tableFor(entity)
	if t == nil {
		return false
	}
	allowed, ok := t[state]
	if !ok {
		return false
	}
	return len(allowed) == 0
}
