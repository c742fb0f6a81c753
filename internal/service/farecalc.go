package service

import "math"

// fareRate holds the per-tier pricing inputs for the fare formula.
type fareRate struct {
	base   float64
	perKm  float64
	perMin float64
}

var fareRates = map[string]fareRate{
	"ECONOMY": {base: 5.00, perKm: 1.50, perMin: 0.25},
	"PREMIUM": {base: 8.00, perKm: 2.50, perMin: 0.40},
	"LUXURY":  {base: 15.00, perKm: 4.00, perMin: 0.60},
}

// calculateFare computes (baseFare, totalFare) for a trip: baseFare is the
// pre-surge subtotal, totalFare applies the surge multiplier on top. Both
// are rounded half-up to 2 decimal places, matching how currency is
// displayed everywhere else in the system.
//
//	fare = (base + distance_km*per_km + (duration_sec/60)*per_min) * surge
func calculateFare(tier string, distanceKm float64, durationSec int64, surgeMultiplier float64) (baseFare, totalFare float64) {
	rate, ok := fareRates[tier]
	if !ok {
		rate = fareRates["ECONOMY"]
	}
	if surgeMultiplier < 1.0 {
		surgeMultiplier = 1.0
	}

	minutes := float64(durationSec) / 60.0
	subtotal := rate.base + distanceKm*rate.perKm + minutes*rate.perMin

	return roundMoney(subtotal), roundMoney(subtotal * surgeMultiplier)
}

func roundMoney(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
