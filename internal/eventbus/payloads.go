package eventbus

// Payload shapes published alongside each Type. Kept deliberately flat —
// subscribers (the websocket hub) only need identifiers
// and the handful of fields they display.

type RideCreatedPayload struct {
	RideID  string `json:"ride_id"`
	RiderID string `json:"rider_id"`
}

type RideUpdatedPayload struct {
	RideID string `json:"ride_id"`
	Status string `json:"status"`
}

type DriverCreatedPayload struct {
	DriverID string `json:"driver_id"`
}

type DriverStatusChangedPayload struct {
	DriverID string `json:"driver_id"`
	From     string `json:"from"`
	To       string `json:"to"`
}

type DriverLocationUpdatedPayload struct {
	DriverID string  `json:"driver_id"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

type DriverAssignedPayload struct {
	RideID   string `json:"ride_id"`
	DriverID string `json:"driver_id"`
}

type TripAcceptedPayload struct {
	TripID   string `json:"trip_id"`
	RideID   string `json:"ride_id"`
	DriverID string `json:"driver_id"`
}

type TripStartedPayload struct {
	TripID string `json:"trip_id"`
}

type TripEndedPayload struct {
	TripID    string  `json:"trip_id"`
	TotalFare float64 `json:"total_fare"`
}

type TripReceiptPayload struct {
	TripID string `json:"trip_id"`
}

type PaymentCompletedPayload struct {
	PaymentID string  `json:"payment_id"`
	TripID    string  `json:"trip_id"`
	Amount    float64 `json:"amount"`
}

type PaymentFailedPayload struct {
	PaymentID string `json:"payment_id"`
	TripID    string `json:"trip_id"`
	Reason    string `json:"reason"`
}
