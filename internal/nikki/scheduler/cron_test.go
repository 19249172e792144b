package scheduler

import (
	"testing"
	"time"
)

func TestParse_Valid(t *testing.T) {
	cases := []string{
		"* * * * *",
		"0 20 * * *",
		"*/15 * * * *",
		"0 9 * * 1-5",
		"30 6 1,15 * *",
		"0 0 1 1 *",
		"0-5 * * * *",
		"0 8-18/2 * * 1-5",
		"5/20 * * * *",
	}
	for _, expr := range cases {
		t.Run(expr, func(t *testing.T) {
			sched, err := Parse(expr)
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", expr, err)
			}
			if sched.String() != expr {
				t.Errorf("String() = %q, want %q", sched.String(), expr)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := []struct {
		expr string
		desc string
	}{
		{"* * * *", "only 4 fields"},
		{"* * * * * *", "6 fields"},
		{"", "empty"},
		{"60 * * * *", "minute out of range"},
		{"* 24 * * *", "hour out of range"},
		{"* * 0 * *", "day-of-month out of range (0)"},
		{"* * 32 * *", "day-of-month out of range (32)"},
		{"* * * 0 *", "month out of range (0)"},
		{"* * * 13 *", "month out of range (13)"},
		{"* * * * 7", "day-of-week out of range (7)"},
		{"abc * * * *", "non-numeric minute"},
		{"*/0 * * * *", "step zero"},
		{"5-1 * * * *", "inverted range"},
		{"1,x * * * *", "bad list value"},
	}
	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			if _, err := Parse(tc.expr); err == nil {
				t.Errorf("Parse(%q) expected error, got nil", tc.expr)
			}
		})
	}
}

func TestScheduleNext(t *testing.T) {
	cases := []struct {
		name string
		expr string
		now  time.Time
		want time.Time
	}{
		{
			name: "every minute truncates seconds",
			expr: "* * * * *",
			now:  time.Date(2026, 1, 15, 10, 30, 45, 0, time.UTC),
			want: time.Date(2026, 1, 15, 10, 31, 0, 0, time.UTC),
		},
		{
			name: "every 15 minutes",
			expr: "*/15 * * * *",
			now:  time.Date(2026, 1, 15, 10, 7, 0, 0, time.UTC),
			want: time.Date(2026, 1, 15, 10, 15, 0, 0, time.UTC),
		},
		{
			name: "daily check-in later today",
			expr: DefaultSchedule,
			now:  time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC),
			want: time.Date(2026, 1, 15, 20, 0, 0, 0, time.UTC),
		},
		{
			name: "daily check-in exactly at tick moves to tomorrow",
			expr: DefaultSchedule,
			now:  time.Date(2026, 1, 15, 20, 0, 0, 0, time.UTC),
			want: time.Date(2026, 1, 16, 20, 0, 0, 0, time.UTC),
		},
		{
			name: "weekday only skips the weekend",
			expr: "0 9 * * 1-5",
			now:  time.Date(2026, 1, 17, 9, 0, 0, 0, time.UTC), // Saturday
			want: time.Date(2026, 1, 19, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "month rollover",
			expr: "0 0 1 * *",
			now:  time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC),
			want: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sched, err := Parse(tc.expr)
			if err != nil {
				t.Fatal(err)
			}
			if got := sched.Next(tc.now); !got.Equal(tc.want) {
				t.Errorf("Next(%v) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}

func TestScheduleNext_Impossible(t *testing.T) {
	sched, err := Parse("0 0 31 2 *")
	if err != nil {
		t.Fatal(err)
	}
	if got := sched.Next(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)); !got.IsZero() {
		t.Errorf("expected zero time for Feb 31, got %v", got)
	}
}
