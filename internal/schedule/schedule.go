// Package schedule defines the canonical per-group blackout schedule and
// the conversions between its three raw shapes: per-unit status tokens,
// fixed-width bitmasks, and half-open time intervals.
//
// A day is divided into a fixed number of units (24 hourly or 48
// half-hourly). Unit 0 starts at local midnight; the end of the day is
// midnight of the following calendar day.
package schedule

import (
	"errors"
	"fmt"
	"time"
)

// Supported unit counts per day.
const (
	UnitsHourly     = 24
	UnitsHalfHourly = 48
)

// Source tags where a schedule came from. The feed path carries
// authoritative bitmasks; the recognition path carries intervals read off
// a rendered table.
type Source int

const (
	SourceFeed Source = iota
	SourceRecognition
)

// ErrBadUnits indicates an unsupported units-per-day value.
var ErrBadUnits = errors.New("schedule: units per day must be 24 or 48")

// Interval is a single blackout period, half-open [Start, End).
// End may fall on the following calendar day.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Mask is a per-unit blackout bitmask for one group and one day.
// Bit i (1 << i) is unit i; unit 0 starts at midnight. The string form is
// the zero-padded binary rendering, most significant unit first, so hours
// 1-3 off on an hourly mask render as "000000000000000000000111".
type Mask struct {
	Bits  uint64
	Units int
}

// Blackout reports whether unit i is a blackout unit.
func (m Mask) Blackout(i int) bool {
	return m.Bits&(1<<uint(i)) != 0
}

// Set marks unit i as a blackout unit.
func (m *Mask) Set(i int) {
	m.Bits |= 1 << uint(i)
}

// String renders the mask as a fixed-width binary string.
func (m Mask) String() string {
	return fmt.Sprintf("%0*b", m.Units, m.Bits)
}

// ParseMask reads a fixed-width binary mask string. '1' marks a blackout
// unit; any other character is read as power present.
func ParseMask(s string) (Mask, error) {
	units := len(s)
	if units != UnitsHourly && units != UnitsHalfHourly {
		return Mask{}, fmt.Errorf("parse mask %q: %w", s, ErrBadUnits)
	}
	m := Mask{Units: units}
	for i := 0; i < units; i++ {
		// Leftmost character is the most significant unit.
		if s[units-1-i] == '1' {
			m.Set(i)
		}
	}
	return m, nil
}

// GroupDay is one group's schedule for one day, carried in both forms so
// downstream code never branches on which shape is present.
type GroupDay struct {
	Intervals []Interval
	Mask      Mask
}

// Schedule is the normalized result of one ingestion run for one calendar
// day. Immutable after creation.
type Schedule struct {
	Date        time.Time // local midnight of the covered day
	LastUpdated string    // opaque supplier display string
	Source      Source
	Units       int
	Groups      map[string]GroupDay
}

// UnitDuration returns the length of one schedule unit.
func UnitDuration(units int) time.Duration {
	return 24 * time.Hour / time.Duration(units)
}

// UnitStart returns the start instant of unit i on the given day.
// i == units maps to midnight of the following calendar day.
func UnitStart(day time.Time, units, i int) time.Time {
	if i == units {
		return DayEnd(day)
	}
	return day.Add(time.Duration(i) * UnitDuration(units))
}

// DayEnd returns midnight of the calendar day after day.
func DayEnd(day time.Time) time.Time {
	return day.AddDate(0, 0, 1)
}

// Midnight truncates t to local midnight in its own location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
