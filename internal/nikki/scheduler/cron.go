package scheduler

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DefaultSchedule fires the daily check-in at 20:00 server local time.
const DefaultSchedule = "0 20 * * *"

// Schedule holds the matching values for each of the five cron fields:
//
//	minute(0-59)  hour(0-23)  day-of-month(1-31)  month(1-12)  day-of-week(0-6)
type Schedule struct {
	expr       string
	minute     []int
	hour       []int
	dayOfMonth []int
	month      []int
	dayOfWeek  []int
}

// Parse compiles a 5-field cron expression. Supported field syntax:
//
//	*          every value in the allowed range
//	*/N        every Nth value
//	N          single value
//	N-M        inclusive range
//	N-M/S      range with step
//	A,B,C      list of values
func Parse(expr string) (*Schedule, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("cron expression must have exactly 5 fields, got %d in %q", len(fields), expr)
	}

	bounds := []struct {
		name     string
		min, max int
	}{
		{"minute", 0, 59},
		{"hour", 0, 23},
		{"day-of-month", 1, 31},
		{"month", 1, 12},
		{"day-of-week", 0, 6},
	}
	vals := make([][]int, len(fields))
	for i, b := range bounds {
		v, err := parseField(fields[i], b.min, b.max)
		if err != nil {
			return nil, fmt.Errorf("%s field %q: %w", b.name, fields[i], err)
		}
		vals[i] = v
	}

	return &Schedule{
		expr:       strings.Join(fields, " "),
		minute:     vals[0],
		hour:       vals[1],
		dayOfMonth: vals[2],
		month:      vals[3],
		dayOfWeek:  vals[4],
	}, nil
}

func (s *Schedule) String() string { return s.expr }

func parseField(field string, min, max int) ([]int, error) {
	if idx := strings.LastIndex(field, "/"); idx != -1 {
		stepStr := field[idx+1:]
		step, err := strconv.Atoi(stepStr)
		if err != nil || step <= 0 {
			return nil, fmt.Errorf("invalid step value %q", stepStr)
		}
		base := field[:idx]
		var start, end int
		switch {
		case base == "*":
			start, end = min, max
		case strings.Contains(base, "-"):
			start, end, err = parseRange(base)
			if err != nil {
				return nil, err
			}
		default:
			start, err = strconv.Atoi(base)
			if err != nil {
				return nil, fmt.Errorf("invalid value %q", base)
			}
			end = max
		}
		if err := checkRange(start, end, min, max); err != nil {
			return nil, err
		}
		var vals []int
		for v := start; v <= end; v += step {
			vals = append(vals, v)
		}
		return vals, nil
	}

	if field == "*" {
		return span(min, max), nil
	}

	if strings.Contains(field, ",") {
		var vals []int
		for _, p := range strings.Split(field, ",") {
			v, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return nil, fmt.Errorf("invalid list value %q", p)
			}
			if v < min || v > max {
				return nil, fmt.Errorf("value %d out of range [%d, %d]", v, min, max)
			}
			if !slices.Contains(vals, v) {
				vals = append(vals, v)
			}
		}
		slices.Sort(vals)
		return vals, nil
	}

	if strings.Contains(field, "-") {
		start, end, err := parseRange(field)
		if err != nil {
			return nil, err
		}
		if err := checkRange(start, end, min, max); err != nil {
			return nil, err
		}
		return span(start, end), nil
	}

	v, err := strconv.Atoi(field)
	if err != nil {
		return nil, fmt.Errorf("invalid value %q", field)
	}
	if v < min || v > max {
		return nil, fmt.Errorf("value %d out of range [%d, %d]", v, min, max)
	}
	return []int{v}, nil
}

func span(start, end int) []int {
	vals := make([]int, end-start+1)
	for i := range vals {
		vals[i] = start + i
	}
	return vals
}

func parseRange(s string) (start, end int, err error) {
	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid range %q", s)
	}
	start, err = strconv.Atoi(lo)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range start %q", lo)
	}
	end, err = strconv.Atoi(hi)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range end %q", hi)
	}
	return start, end, nil
}

func checkRange(start, end, min, max int) error {
	if start < min || end > max || start > end {
		return fmt.Errorf("range [%d, %d] out of bounds [%d, %d]", start, end, min, max)
	}
	return nil
}

// Next returns the first matching minute strictly after now, in now's
// location. It returns the zero time if nothing matches within a year.
func (s *Schedule) Next(now time.Time) time.Time {
	t := now.Truncate(time.Minute).Add(time.Minute)

	for range 366 * 24 * 60 {
		if slices.Contains(s.month, int(t.Month())) &&
			slices.Contains(s.dayOfMonth, t.Day()) &&
			slices.Contains(s.dayOfWeek, int(t.Weekday())) &&
			slices.Contains(s.hour, t.Hour()) &&
			slices.Contains(s.minute, t.Minute()) {
			return t
		}
		t = t.Add(time.Minute)
	}
	return time.Time{}
}
