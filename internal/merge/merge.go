// Package merge combines the blackout timelines of the groups sharing one
// notification channel into a single "all groups are out" timeline plus a
// timeline of possible-switch markers where the groups disagree.
//
// A possible switch is flagged with a fixed 30-minute window regardless of
// how long the disagreement lasts: the marker communicates uncertainty to
// a human reader, it does not measure a duration.
package merge

import (
	"sort"
	"time"

	"github.com/svitlobot/blackout-notify/internal/schedule"
)

// SwitchWindow is the synthetic length of a possible-switch marker.
const SwitchWindow = 30 * time.Minute

// Result holds the two merged timelines for one group-set and one day.
// Both may be empty. Derived per run, never persisted.
type Result struct {
	Combined  []schedule.Interval // every member group is out
	Ambiguous []schedule.Interval // members disagree: some out, some not
}

type eventKind int

const (
	eventStart eventKind = iota
	eventEnd
)

type event struct {
	at   time.Time
	kind eventKind
}

// Groups merges the members' interval timelines with a sweep over their
// endpoints. A member with no intervals counts as having power all day.
//
// The sweep keeps an explicit count of currently-out members and applies
// all events sharing one timestamp as a single transition, starts before
// ends. Combined intervals are emitted when the count drops from N; a
// zero-length closure is a same-instant switch and becomes a marker
// instead. A marker is also recorded whenever the sweep enters a state
// where some but not all members are out.
func Groups(day time.Time, members [][]schedule.Interval) Result {
	n := len(members)
	if n == 0 {
		return Result{}
	}
	if n == 1 {
		return Result{Combined: cloneIntervals(members[0])}
	}
	if identicalTimelines(members) {
		return Result{Combined: cloneIntervals(members[0])}
	}

	var events []event
	for _, intervals := range members {
		for _, iv := range intervals {
			events = append(events, event{at: iv.Start, kind: eventStart})
			events = append(events, event{at: iv.End, kind: eventEnd})
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].at.Equal(events[j].at) {
			return events[i].at.Before(events[j].at)
		}
		return events[i].kind == eventStart && events[j].kind == eventEnd
	})

	var (
		combined    []schedule.Interval
		markers     []schedule.Interval
		active      int
		allSince    time.Time
		allActive   bool
		prevPartial bool
	)

	for i := 0; i < len(events); {
		t := events[i].at
		starts, ends := 0, 0
		j := i
		for ; j < len(events) && events[j].at.Equal(t); j++ {
			if events[j].kind == eventStart {
				starts++
			} else {
				ends++
			}
		}

		active += starts
		if active == n && !allActive {
			allActive = true
			allSince = t
		}
		if ends > 0 && allActive {
			if t.After(allSince) {
				combined = append(combined, schedule.Interval{Start: allSince, End: t})
			} else {
				markers = append(markers, marker(t))
			}
			allActive = false
		}
		active -= ends

		partial := active > 0 && active < n
		if partial && !prevPartial {
			markers = append(markers, marker(t))
		}
		prevPartial = partial
		i = j
	}

	return finish(day, n, combined, dedupeMarkers(markers))
}

// Masks merges member bitmasks directly: the combined timeline is the AND
// of all masks, and the disagreement timeline is the union minus the
// intersection. Each contiguous run of disagreement units collapses to one
// marker at the run's first unit.
func Masks(day time.Time, masks []schedule.Mask) Result {
	n := len(masks)
	if n == 0 {
		return Result{}
	}
	units := masks[0].Units
	if n == 1 {
		return Result{Combined: schedule.IntervalsFromMask(day, masks[0])}
	}

	and := masks[0].Bits
	or := masks[0].Bits
	identical := true
	for _, m := range masks[1:] {
		if m.Bits != masks[0].Bits {
			identical = false
		}
		and &= m.Bits
		or |= m.Bits
	}

	combined := schedule.IntervalsFromMask(day, schedule.Mask{Bits: and, Units: units})
	if identical {
		return Result{Combined: combined}
	}

	var markers []schedule.Interval
	disagree := schedule.Mask{Bits: or &^ and, Units: units}
	inRun := false
	for i := 0; i < units; i++ {
		switch {
		case disagree.Blackout(i) && !inRun:
			markers = append(markers, marker(schedule.UnitStart(day, units, i)))
			inRun = true
		case !disagree.Blackout(i):
			inRun = false
		}
	}

	return finish(day, n, combined, markers)
}

// finish synthesizes boundary markers when a multi-group merge found no
// disagreement but its combined timeline leaves the edges of the day
// uncovered; the sources say nothing about those edges, which is itself
// ambiguous. Identical member timelines never reach this point.
func finish(day time.Time, n int, combined, markers []schedule.Interval) Result {
	if n > 1 && len(markers) == 0 && len(combined) > 0 {
		if combined[0].Start.After(day) {
			markers = append(markers, marker(day))
		}
		if last := combined[len(combined)-1]; last.End.Before(schedule.DayEnd(day)) {
			markers = append(markers, marker(last.End))
		}
	}
	return Result{Combined: combined, Ambiguous: markers}
}

func marker(at time.Time) schedule.Interval {
	return schedule.Interval{Start: at, End: at.Add(SwitchWindow)}
}

func cloneIntervals(intervals []schedule.Interval) []schedule.Interval {
	if len(intervals) == 0 {
		return nil
	}
	out := make([]schedule.Interval, len(intervals))
	copy(out, intervals)
	return out
}

func identicalTimelines(members [][]schedule.Interval) bool {
	first := members[0]
	for _, m := range members[1:] {
		if len(m) != len(first) {
			return false
		}
		for i := range m {
			if !m[i].Start.Equal(first[i].Start) || !m[i].End.Equal(first[i].End) {
				return false
			}
		}
	}
	return true
}

func dedupeMarkers(markers []schedule.Interval) []schedule.Interval {
	if len(markers) < 2 {
		return markers
	}
	sort.Slice(markers, func(i, j int) bool { return markers[i].Start.Before(markers[j].Start) })
	out := markers[:1]
	for _, m := range markers[1:] {
		if !m.Start.Equal(out[len(out)-1].Start) {
			out = append(out, m)
		}
	}
	return out
}
