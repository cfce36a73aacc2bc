package booking

import (
	"testing"
	"time"
)

// TestCanTransition verifies the state machine transition table.
func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusNone, StatusPending, true},
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCancelled, true},
		{StatusApproved, StatusPaid, true},
		{StatusApproved, StatusCancelled, true},
		{StatusPaid, StatusCompleted, true},
		// skipping states
		{StatusNone, StatusApproved, false},
		{StatusPending, StatusPaid, false},
		{StatusPending, StatusCompleted, false},
		{StatusApproved, StatusRejected, false},
		{StatusPaid, StatusCancelled, false},
		// terminal states
		{StatusCompleted, StatusPending, false},
		{StatusCancelled, StatusPending, false},
		{StatusRejected, StatusApproved, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"pending":    StatusPending,
		" Approved ": StatusApproved,
		"confirmed":  StatusApproved,
		"PAID":       StatusPaid,
		"rejected":   StatusRejected,
	}
	for in, want := range cases {
		got, ok := ParseStatus(in)
		if !ok || got != want {
			t.Errorf("ParseStatus(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := ParseStatus("on_the_way"); ok {
		t.Error("ParseStatus accepted unknown status")
	}
}

func TestCanCancel(t *testing.T) {
	departure := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	deadline := CancellationDeadline(departure)
	if want := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC); !deadline.Equal(want) {
		t.Fatalf("deadline = %v, want %v", deadline, want)
	}

	cases := []struct {
		name   string
		status Status
		now    time.Time
		want   bool
	}{
		{"pending well before", StatusPending, deadline.Add(-time.Hour), true},
		{"approved one second before", StatusApproved, deadline.Add(-time.Second), true},
		{"exactly at deadline", StatusPending, deadline, false},
		{"after deadline", StatusApproved, deadline.Add(time.Minute), false},
		{"paid", StatusPaid, deadline.Add(-24 * time.Hour), false},
		{"completed", StatusCompleted, deadline.Add(-24 * time.Hour), false},
		{"cancelled", StatusCancelled, deadline.Add(-24 * time.Hour), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanCancel(tc.status, departure, tc.now); got != tc.want {
				t.Errorf("CanCancel = %v, want %v", got, tc.want)
			}
		})
	}
}
