package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrEmptyFeed indicates a supplier document with no day entries.
var ErrEmptyFeed = errors.New("schedule: supplier feed contains no day entries")

// feedDocument mirrors the supplier JSON wire format:
//
//	{"data": {"<unix_ts>": {"GPV1.1": {"1": "yes", ...}, ...}, ...},
//	 "update": "30.10.2025 08:12"}
//
// Hour keys run 1..24 (or 1..48 for half-hourly feeds).
type feedDocument struct {
	Data   map[string]map[string]map[string]string `json:"data"`
	Update string                                  `json:"update"`
}

// NormalizeFeed converts a raw supplier feed document into one Schedule
// per calendar day present in the feed, ordered by date. Group labels are
// stripped of prefix; only the "yes" token counts as power present, so a
// malformed or missing unit is conservatively read as blackout.
func NormalizeFeed(raw []byte, prefix string, loc *time.Location) ([]Schedule, error) {
	var doc feedDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode supplier feed: %w", err)
	}
	if len(doc.Data) == 0 {
		return nil, ErrEmptyFeed
	}

	schedules := make([]Schedule, 0, len(doc.Data))
	for tsKey, dayData := range doc.Data {
		ts, err := strconv.ParseInt(tsKey, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("supplier feed: bad day timestamp %q: %w", tsKey, err)
		}
		day := Midnight(time.Unix(ts, 0).In(loc))

		units, err := feedUnits(dayData)
		if err != nil {
			return nil, err
		}

		groups := make(map[string]GroupDay, len(dayData))
		for label, hours := range dayData {
			group := strings.TrimPrefix(label, prefix)
			mask := Mask{Units: units}
			for u := 1; u <= units; u++ {
				if !HasPower(hours[strconv.Itoa(u)]) {
					mask.Set(u - 1)
				}
			}
			groups[group] = GroupDay{
				Intervals: IntervalsFromMask(day, mask),
				Mask:      mask,
			}
		}

		schedules = append(schedules, Schedule{
			Date:        day,
			LastUpdated: doc.Update,
			Source:      SourceFeed,
			Units:       units,
			Groups:      groups,
		})
	}

	sort.Slice(schedules, func(i, j int) bool {
		return schedules[i].Date.Before(schedules[j].Date)
	})
	return schedules, nil
}

// feedUnits infers the unit granularity of one day entry from its highest
// unit key: feeds with keys past 24 are half-hourly.
func feedUnits(dayData map[string]map[string]string) (int, error) {
	max := 0
	for _, hours := range dayData {
		for key := range hours {
			u, err := strconv.Atoi(key)
			if err != nil {
				return 0, fmt.Errorf("supplier feed: bad unit key %q: %w", key, err)
			}
			if u > max {
				max = u
			}
		}
	}
	if max > UnitsHalfHourly {
		return 0, fmt.Errorf("supplier feed: unit key %d out of range: %w", max, ErrBadUnits)
	}
	if max > UnitsHourly {
		return UnitsHalfHourly, nil
	}
	return UnitsHourly, nil
}
