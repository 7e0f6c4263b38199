package notifications

import (
	"fmt"
	"strings"

	"github.com/svitlobot/blackout-notify/internal/merge"
	"github.com/svitlobot/blackout-notify/internal/schedule"
)

// Message wording, kept byte-for-byte with the legacy bot so subscribers
// see no difference after the rewrite.
const (
	groupWordSingular = "група"
	groupWordPlural   = "групи"
	blackoutsHeading  = "Відключення:"
	switchesHeading   = "Можливе перемикання:"
	noBlackoutsLine   = "Відключень не заплановано."
)

// FormatSingle renders the message body for a channel watching one group.
func FormatSingle(dateTime, group string, intervals []schedule.Interval) string {
	if len(intervals) == 0 {
		return header(dateTime, []string{group}) + "\n" + noBlackoutsLine + "\n"
	}
	return header(dateTime, []string{group}) + "\n" + bullets("◾️ ", intervals) + "\n"
}

// FormatMerged renders the message body for a channel watching several
// groups: a combined-blackout section, a possible-switch section, or the
// fixed no-blackout sentence when both timelines are empty.
func FormatMerged(dateTime string, groups []string, res merge.Result) string {
	var sections []string
	if len(res.Combined) > 0 {
		sections = append(sections, blackoutsHeading+"\n"+bullets("◾️ ", res.Combined)+"\n")
	}
	if len(res.Ambiguous) > 0 {
		sections = append(sections, switchesHeading+"\n"+bullets("🔀", res.Ambiguous))
	}
	if len(sections) == 0 {
		sections = append(sections, noBlackoutsLine)
	}
	return header(dateTime, groups) + "\n" + strings.Join(sections, "\n") + "\n"
}

func header(dateTime string, groups []string) string {
	word := groupWordSingular
	if len(groups) > 1 {
		word = groupWordPlural
	}
	return fmt.Sprintf("\n🗓 Графік на %s. %s %s:\n", dateTime, strings.Join(groups, ", "), word)
}

func bullets(prefix string, intervals []schedule.Interval) string {
	lines := make([]string, len(intervals))
	for i, iv := range intervals {
		lines[i] = fmt.Sprintf("%s%s - %s", prefix, clock(iv.Start), clock(iv.End))
	}
	return strings.Join(lines, "\n")
}
