package merge

import (
	"testing"
	"time"

	"github.com/svitlobot/blackout-notify/internal/schedule"
)

var day = time.Date(2025, time.October, 30, 0, 0, 0, 0, time.UTC)

func hour(h int) time.Time {
	return day.Add(time.Duration(h) * time.Hour)
}

func iv(startHour, endHour int) schedule.Interval {
	return schedule.Interval{Start: hour(startHour), End: hour(endHour)}
}

func checkTimeline(t *testing.T, label string, got, want []schedule.Interval) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %d intervals, want %d: %v", label, len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Start.Equal(want[i].Start) || !got[i].End.Equal(want[i].End) {
			t.Errorf("%s[%d]: got [%v, %v), want [%v, %v)",
				label, i, got[i].Start, got[i].End, want[i].Start, want[i].End)
		}
	}
}

func marker30(at time.Time) schedule.Interval {
	return schedule.Interval{Start: at, End: at.Add(30 * time.Minute)}
}

func TestGroupsSingleton(t *testing.T) {
	t.Parallel()

	own := []schedule.Interval{iv(1, 3), iv(10, 12)}
	res := Groups(day, [][]schedule.Interval{own})
	checkTimeline(t, "combined", res.Combined, own)
	if len(res.Ambiguous) != 0 {
		t.Errorf("singleton set produced markers: %v", res.Ambiguous)
	}
}

func TestGroupsIdenticalTimelines(t *testing.T) {
	t.Parallel()

	shared := []schedule.Interval{iv(1, 3), iv(10, 12)}
	res := Groups(day, [][]schedule.Interval{shared, shared, shared})
	checkTimeline(t, "combined", res.Combined, shared)
	if len(res.Ambiguous) != 0 {
		t.Errorf("identical timelines produced markers: %v", res.Ambiguous)
	}
}

func TestGroupsStaggeredOverlap(t *testing.T) {
	t.Parallel()

	// 1.1 out 00:00-02:00, 1.2 out 01:00-03:00: the shared hour is a
	// combined blackout, the lone hours are flagged as switching.
	res := Groups(day, [][]schedule.Interval{
		{iv(0, 2)},
		{iv(1, 3)},
	})
	checkTimeline(t, "combined", res.Combined, []schedule.Interval{iv(1, 2)})
	checkTimeline(t, "ambiguous", res.Ambiguous, []schedule.Interval{
		marker30(hour(0)),
		marker30(hour(2)),
	})
}

func TestGroupsSameInstantSwitch(t *testing.T) {
	t.Parallel()

	// One group's end coincides with the other's start: never a combined
	// blackout, only switch markers.
	res := Groups(day, [][]schedule.Interval{
		{iv(0, 2)},
		{iv(2, 4)},
	})
	if len(res.Combined) != 0 {
		t.Errorf("combined = %v, want none", res.Combined)
	}
	checkTimeline(t, "ambiguous", res.Ambiguous, []schedule.Interval{
		marker30(hour(0)),
		marker30(hour(2)),
	})
}

func TestGroupsMemberWithoutBlackouts(t *testing.T) {
	t.Parallel()

	// A member with no intervals has power all day, so nothing is ever a
	// combined blackout; the other member's outage reads as switching.
	res := Groups(day, [][]schedule.Interval{
		{iv(1, 3)},
		nil,
	})
	if len(res.Combined) != 0 {
		t.Errorf("combined = %v, want none", res.Combined)
	}
	checkTimeline(t, "ambiguous", res.Ambiguous, []schedule.Interval{marker30(hour(1))})
}

func TestGroupsEmpty(t *testing.T) {
	t.Parallel()

	res := Groups(day, nil)
	if len(res.Combined) != 0 || len(res.Ambiguous) != 0 {
		t.Errorf("empty member list produced output: %+v", res)
	}
}

func TestGroupsThreeWay(t *testing.T) {
	t.Parallel()

	res := Groups(day, [][]schedule.Interval{
		{iv(0, 4)},
		{iv(1, 4)},
		{iv(2, 5)},
	})
	checkTimeline(t, "combined", res.Combined, []schedule.Interval{iv(2, 4)})
	checkTimeline(t, "ambiguous", res.Ambiguous, []schedule.Interval{
		marker30(hour(0)),
		marker30(hour(4)),
	})
}

func mask(t *testing.T, s string) schedule.Mask {
	t.Helper()
	m, err := schedule.ParseMask(s)
	if err != nil {
		t.Fatalf("ParseMask(%s): %v", s, err)
	}
	return m
}

func TestMasksStaggeredOverlap(t *testing.T) {
	t.Parallel()

	// Same shape as the sweep test: hours 0-1 vs hours 1-2.
	res := Masks(day, []schedule.Mask{
		mask(t, "000000000000000000000011"),
		mask(t, "000000000000000000000110"),
	})
	checkTimeline(t, "combined", res.Combined, []schedule.Interval{iv(1, 2)})
	checkTimeline(t, "ambiguous", res.Ambiguous, []schedule.Interval{
		marker30(hour(0)),
		marker30(hour(2)),
	})
}

func TestMasksIdentical(t *testing.T) {
	t.Parallel()

	m := mask(t, "000000000000000000111100")
	res := Masks(day, []schedule.Mask{m, m})
	checkTimeline(t, "combined", res.Combined, []schedule.Interval{iv(2, 6)})
	if len(res.Ambiguous) != 0 {
		t.Errorf("identical masks produced markers: %v", res.Ambiguous)
	}
}

func TestMasksSingleton(t *testing.T) {
	t.Parallel()

	res := Masks(day, []schedule.Mask{mask(t, "000000000000000000000011")})
	checkTimeline(t, "combined", res.Combined, []schedule.Interval{iv(0, 2)})
	if len(res.Ambiguous) != 0 {
		t.Errorf("singleton mask produced markers: %v", res.Ambiguous)
	}
}

func TestMasksDisagreementRunCollapses(t *testing.T) {
	t.Parallel()

	// Three groups, a long disagreement run: one marker per contiguous
	// run, placed at the run's first unit.
	res := Masks(day, []schedule.Mask{
		mask(t, "000000000000000000111111"), // hours 0-5
		mask(t, "000000000000000000111100"), // hours 2-5
		mask(t, "000000000000000000111100"), // hours 2-5
	})
	checkTimeline(t, "combined", res.Combined, []schedule.Interval{iv(2, 6)})
	checkTimeline(t, "ambiguous", res.Ambiguous, []schedule.Interval{marker30(hour(0))})
}

func TestMasksThreeWayParityTrap(t *testing.T) {
	t.Parallel()

	// All three groups out at hour 0: no disagreement there even though a
	// bitwise XOR chain would claim one.
	res := Masks(day, []schedule.Mask{
		mask(t, "000000000000000000000001"),
		mask(t, "000000000000000000000001"),
		mask(t, "000000000000000000000011"),
	})
	checkTimeline(t, "combined", res.Combined, []schedule.Interval{iv(0, 1)})
	checkTimeline(t, "ambiguous", res.Ambiguous, []schedule.Interval{marker30(hour(1))})
}
