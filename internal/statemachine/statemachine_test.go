package statemachine

import "testing"

func TestValidate_RideHappyPath(t *testing.T) {
	t.Parallel()

	steps := []struct{ from, to string }{
		{"REQUESTED", "MATCHING"},
		{"MATCHING", "DRIVER_ASSIGNED"},
		{"DRIVER_ASSIGNED", "COMPLETED"},
	}
	for _, s := range steps {
		if err := Validate(EntityRide, s.from, s.to); err != nil {
			t.Errorf("Validate(%s -> %s) = %v, want nil", s.from, s.to, err)
		}
	}
}

func TestValidate_RideRejectsReassignment(t *testing.T) {
	t.Parallel()

	err := Validate(EntityRide, "DRIVER_ASSIGNED", "DRIVER_ASSIGNED")
	if err == nil {
		t.Fatal("expected DRIVER_ASSIGNED -> DRIVER_ASSIGNED to be rejected")
	}
	var invalid *InvalidTransition
	if _, ok := err.(*InvalidTransition); !ok {
		t.Fatalf("expected *InvalidTransition, got %T", err)
	}
	_ = invalid
}

func TestValidate_RideRejectsLeavingTerminal(t *testing.T) {
	t.Parallel()

	for _, terminal := range []string{"COMPLETED", "CANCELLED", "EXPIRED"} {
		if err := Validate(EntityRide, terminal, "MATCHING"); err == nil {
			t.Errorf("expected leaving terminal state %s to fail", terminal)
		}
	}
}

func TestValidate_TripTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to string
		ok       bool
	}{
		{"CREATED", "STARTED", true},
		{"CREATED", "CANCELLED", true},
		{"CREATED", "ENDED", false},
		{"STARTED", "PAUSED", true},
		{"PAUSED", "STARTED", true},
		{"ENDED", "STARTED", false},
		{"CANCELLED", "STARTED", false},
	}
	for _, c := range cases {
		err := Validate(EntityTrip, c.from, c.to)
		if c.ok && err != nil {
			t.Errorf("Validate(%s -> %s) = %v, want nil", c.from, c.to, err)
		}
		if !c.ok && err == nil {
			t.Errorf("Validate(%s -> %s) = nil, want error", c.from, c.to)
		}
	}
}

func TestValidate_DriverTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to string
		ok       bool
	}{
		{"OFFLINE", "AVAILABLE", true},
		{"OFFLINE", "ON_TRIP", false},
		{"AVAILABLE", "ON_TRIP", true},
		{"ON_TRIP", "AVAILABLE", true},
		{"ON_TRIP", "ON_TRIP", false},
	}
	for _, c := range cases {
		err := Validate(EntityDriver, c.from, c.to)
		if c.ok && err != nil {
			t.Errorf("Validate(%s -> %s) = %v, want nil", c.from, c.to, err)
		}
		if !c.ok && err == nil {
			t.Errorf("Validate(%s -> %s) = nil, want error", c.from, c.to)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	t.Parallel()

	if !IsTerminal(EntityRide, "COMPLETED") {
		t.Error("COMPLETED should be terminal for rides")
	}
	if IsTerminal(EntityRide, "MATCHING") {
		t.Error("MATCHING should not be terminal for rides")
	}
	if !IsTerminal(EntityTrip, "ENDED") {
		t.Error("ENDED should be terminal for trips")
	}
	if IsTerminal(EntityDriver, "AVAILABLE") {
		t.Error("AVAILABLE should never be terminal for drivers")
	}
}

func TestInvalidTransition_ErrorMessage(t *testing.T) {
	t.Parallel()

	err := Validate(EntityRide, "REQUESTED", "COMPLETED")
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Error() == "" {
		t.Error("expected a non-empty error message")
	}
}
