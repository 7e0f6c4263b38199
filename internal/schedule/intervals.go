package schedule

import (
	"fmt"
	"sort"
	"time"
)

// StatusPower is the only supplier token meaning power is present.
// Every other token, including unknown or missing ones, is read as a
// blackout unit.
const StatusPower = "yes"

// HasPower classifies a supplier status token.
func HasPower(token string) bool {
	return token == StatusPower
}

// IntervalsFromStatuses converts an ordered per-unit status sequence into
// blackout intervals. statuses is indexed by unit; a short slice leaves
// the remaining units as blackout.
func IntervalsFromStatuses(day time.Time, units int, statuses []string) ([]Interval, error) {
	m, err := MaskFromStatuses(units, statuses)
	if err != nil {
		return nil, err
	}
	return IntervalsFromMask(day, m), nil
}

// MaskFromStatuses builds a blackout mask from per-unit status tokens.
func MaskFromStatuses(units int, statuses []string) (Mask, error) {
	if units != UnitsHourly && units != UnitsHalfHourly {
		return Mask{}, fmt.Errorf("statuses: %w", ErrBadUnits)
	}
	m := Mask{Units: units}
	for i := 0; i < units; i++ {
		token := ""
		if i < len(statuses) {
			token = statuses[i]
		}
		if !HasPower(token) {
			m.Set(i)
		}
	}
	return m, nil
}

// IntervalsFromMask scans the mask in unit order and produces the ordered,
// maximal blackout intervals it encodes. An interval opens at the first
// blackout unit after a power unit and closes at the boundary time of the
// first power unit that follows. A run still open at the last unit closes
// at midnight of the following calendar day.
func IntervalsFromMask(day time.Time, m Mask) []Interval {
	var out []Interval
	openAt := -1
	for i := 0; i < m.Units; i++ {
		switch {
		case m.Blackout(i) && openAt < 0:
			openAt = i
		case !m.Blackout(i) && openAt >= 0:
			out = append(out, Interval{
				Start: UnitStart(day, m.Units, openAt),
				End:   UnitStart(day, m.Units, i),
			})
			openAt = -1
		}
	}
	if openAt >= 0 {
		out = append(out, Interval{
			Start: UnitStart(day, m.Units, openAt),
			End:   DayEnd(day),
		})
	}
	return out
}

// MaskFromIntervals derives the per-unit mask covered by the intervals.
// A unit is a blackout unit when its start instant falls inside any
// interval. Round-trips with IntervalsFromMask for unit-aligned input.
func MaskFromIntervals(day time.Time, units int, intervals []Interval) Mask {
	m := Mask{Units: units}
	for i := 0; i < units; i++ {
		at := UnitStart(day, units, i)
		for _, iv := range intervals {
			if !at.Before(iv.Start) && at.Before(iv.End) {
				m.Set(i)
				break
			}
		}
	}
	return m
}

// MergeAdjacent sorts intervals by start and coalesces overlapping or
// touching neighbors so the result is ordered and maximal.
func MergeAdjacent(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}
	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	out := sorted[:1]
	for _, iv := range sorted[1:] {
		last := &out[len(out)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}
