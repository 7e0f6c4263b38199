package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Recognition result errors.
var (
	ErrNoDateTime  = errors.New("schedule: recognition result has no date_time")
	ErrNoBlackouts = errors.New("schedule: recognition result has no blackouts")
)

// recognitionDocument mirrors the table-recognizer output:
//
//	{"date_time": "30.10.2025 08:12",
//	 "blackouts": {"1.1": [{"start": "10:00", "end": "12:00"}, ...], ...}}
//
// Endpoints are local clock strings; an end at or before its start wraps
// to the following calendar day.
type recognitionDocument struct {
	DateTime  string                        `json:"date_time"`
	Blackouts map[string][]recognitionRange `json:"blackouts"`
}

type recognitionRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// NormalizeRecognition converts a recognizer result for the given day into
// the canonical schedule form, deriving the per-group mask from the
// intervals so both shapes are always present.
func NormalizeRecognition(raw []byte, day time.Time, units int) (Schedule, error) {
	if units != UnitsHourly && units != UnitsHalfHourly {
		return Schedule{}, fmt.Errorf("recognition result: %w", ErrBadUnits)
	}
	var doc recognitionDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Schedule{}, fmt.Errorf("decode recognition result: %w", err)
	}
	if doc.DateTime == "" {
		return Schedule{}, ErrNoDateTime
	}
	if doc.Blackouts == nil {
		return Schedule{}, ErrNoBlackouts
	}

	day = Midnight(day)
	groups := make(map[string]GroupDay, len(doc.Blackouts))
	for group, ranges := range doc.Blackouts {
		intervals := make([]Interval, 0, len(ranges))
		for _, r := range ranges {
			iv, err := clockInterval(day, r.Start, r.End)
			if err != nil {
				return Schedule{}, fmt.Errorf("group %s: %w", group, err)
			}
			intervals = append(intervals, iv)
		}
		intervals = MergeAdjacent(intervals)
		groups[group] = GroupDay{
			Intervals: intervals,
			Mask:      MaskFromIntervals(day, units, intervals),
		}
	}

	return Schedule{
		Date:        day,
		LastUpdated: doc.DateTime,
		Source:      SourceRecognition,
		Units:       units,
		Groups:      groups,
	}, nil
}

// clockInterval builds a half-open interval on day from two clock strings.
func clockInterval(day time.Time, start, end string) (Interval, error) {
	s, err := onDay(day, start)
	if err != nil {
		return Interval{}, err
	}
	e, err := onDay(day, end)
	if err != nil {
		return Interval{}, err
	}
	if !e.After(s) {
		e = e.AddDate(0, 0, 1)
	}
	return Interval{Start: s, End: e}, nil
}

// onDay places a "HH:MM" clock string on the given day. "24:00" maps to
// midnight of the following calendar day.
func onDay(day time.Time, clock string) (time.Time, error) {
	if clock == "24:00" {
		return DayEnd(day), nil
	}
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad clock value %q: %w", clock, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}
