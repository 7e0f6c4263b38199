package notifications

import (
	"strings"
	"testing"
	"time"

	"github.com/svitlobot/blackout-notify/internal/merge"
	"github.com/svitlobot/blackout-notify/internal/schedule"
)

func formatIntervals(startHour, endHour int) []schedule.Interval {
	day := time.Date(2025, time.October, 30, 0, 0, 0, 0, time.UTC)
	return []schedule.Interval{{
		Start: day.Add(time.Duration(startHour) * time.Hour),
		End:   day.Add(time.Duration(endHour) * time.Hour),
	}}
}

func TestFormatSingle(t *testing.T) {
	t.Parallel()

	msg := FormatSingle("30.10.2025 08:12", "1.1", formatIntervals(10, 12))
	for _, want := range []string{
		"🗓 Графік на 30.10.2025 08:12. 1.1 група:",
		"◾️ 10:00 - 12:00",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}

	empty := FormatSingle("30.10.2025 08:12", "1.1", nil)
	if !strings.Contains(empty, noBlackoutsLine) {
		t.Errorf("empty schedule missing fixed sentence:\n%s", empty)
	}
}

func TestFormatMerged(t *testing.T) {
	t.Parallel()

	dayStart := formatIntervals(0, 1)[0].Start
	res := merge.Result{
		Combined: formatIntervals(1, 2),
		Ambiguous: []schedule.Interval{
			{Start: dayStart, End: dayStart.Add(30 * time.Minute)},
		},
	}

	msg := FormatMerged("30.10.2025 08:12", []string{"1.1", "1.2"}, res)
	for _, want := range []string{
		"1.1, 1.2 групи:",
		"Відключення:",
		"◾️ 01:00 - 02:00",
		"Можливе перемикання:",
		"🔀00:00 - 00:30",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatMergedEmpty(t *testing.T) {
	t.Parallel()

	msg := FormatMerged("30.10.2025", []string{"1.1", "1.2"}, merge.Result{})
	if !strings.Contains(msg, noBlackoutsLine) {
		t.Errorf("empty merge missing fixed sentence:\n%s", msg)
	}
	if strings.Contains(msg, blackoutsHeading) || strings.Contains(msg, switchesHeading) {
		t.Errorf("empty merge should have no section headings:\n%s", msg)
	}
}
