package domain

import "testing"

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"pending", "scheduled", "completed", "cancelled", "no-show", "rejected"} {
		got, err := ParseStatus(s)
		if err != nil {
			t.Fatalf("ParseStatus(%q) error: %v", s, err)
		}
		if string(got) != s {
			t.Fatalf("ParseStatus(%q) = %q", s, got)
		}
	}

	if _, err := ParseStatus("confirmed"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusScheduled},
		{StatusPending, StatusRejected},
		{StatusScheduled, StatusCancelled},
		{StatusScheduled, StatusCompleted},
		{StatusScheduled, StatusNoShow},
	}
	for _, c := range allowed {
		if !c.from.CanTransition(c.to) {
			t.Fatalf("%s -> %s should be legal", c.from, c.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusPending, StatusCompleted},
		{StatusPending, StatusCancelled},
		{StatusScheduled, StatusPending},
		{StatusScheduled, StatusRejected},
		{StatusCompleted, StatusScheduled},
		{StatusCancelled, StatusScheduled},
		{StatusRejected, StatusScheduled},
		{StatusNoShow, StatusCompleted},
		{StatusCompleted, StatusCompleted},
	}
	for _, c := range denied {
		if c.from.CanTransition(c.to) {
			t.Fatalf("%s -> %s should be illegal", c.from, c.to)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusCancelled, StatusNoShow, StatusRejected} {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusScheduled} {
		if s.Terminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}

func TestBlocksBooking(t *testing.T) {
	if !StatusScheduled.BlocksBooking() {
		t.Fatalf("scheduled must block bookings")
	}
	for _, s := range []Status{StatusPending, StatusCompleted, StatusCancelled, StatusNoShow, StatusRejected} {
		if s.BlocksBooking() {
			t.Fatalf("%s must not block bookings", s)
		}
	}
}
