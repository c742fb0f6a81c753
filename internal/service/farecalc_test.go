package service

import "testing"

func TestCalculateFare_EconomyNoSurge(t *testing.T) {
	base, total := calculateFare("ECONOMY", 10, 600, 1.0)
	if base != 22.50 {
		t.Errorf("expected base fare 22.50, got %v", base)
	}
	if total != 22.50 {
		t.Errorf("expected total fare 22.50 with no surge, got %v", total)
	}
}

func TestCalculateFare_AppliesSurgeOnTopOfBase(t *testing.T) {
	base, total := calculateFare("PREMIUM", 5, 300, 2.0)
	if base != 22.50 {
		t.Errorf("expected base fare 22.50, got %v", base)
	}
	if total != 45.00 {
		t.Errorf("expected total fare 45.00 at 2x surge, got %v", total)
	}
}

func TestCalculateFare_UnknownTierFallsBackToEconomy(t *testing.T) {
	base, _ := calculateFare("UNKNOWN", 10, 600, 1.0)
	econBase, _ := calculateFare("ECONOMY", 10, 600, 1.0)
	if base != econBase {
		t.Errorf("expected unknown tier to price like ECONOMY, got %v want %v", base, econBase)
	}
}

func TestCalculateFare_SubSurgeMultiplierClampedToOne(t *testing.T) {
	_, total := calculateFare("ECONOMY", 0, 0, 0.5)
	if total != 5.00 {
		t.Errorf("expected a multiplier below 1.0 to be clamped to 1.0, got total %v", total)
	}
}

func TestCalculateFare_RoundsHalfUp(t *testing.T) {
	// 5.00 + 0.003km*1.50 = 5.0045 sits below the half-cent and rounds down;
	// 5.00 + 0.5min*0.25 = 5.125 lands exactly on a half-cent and rounds up.
	base, _ := calculateFare("ECONOMY", 0.003, 0, 1.0)
	if base != 5.00 {
		t.Errorf("expected negligible distance to round down to 5.00, got %v", base)
	}
	base, _ = calculateFare("ECONOMY", 0, 30, 1.0)
	if base != 5.13 {
		t.Errorf("expected an exact half-cent to round up to 5.13, got %v", base)
	}
}
