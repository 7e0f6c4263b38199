package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeRecognition(t *testing.T) {
	t.Parallel()

	raw := `{
		"date_time": "30.10.2025 08:12",
		"blackouts": {
			"1.1": [
				{"start": "10:00", "end": "12:00"},
				{"start": "02:00", "end": "05:00"}
			],
			"2.1": []
		}
	}`
	s, err := NormalizeRecognition([]byte(raw), testDay.Add(9*time.Hour), UnitsHourly)
	if err != nil {
		t.Fatalf("NormalizeRecognition: %v", err)
	}

	// The day is truncated to midnight and intervals come back sorted.
	if !s.Date.Equal(testDay) {
		t.Errorf("Date = %v, want %v", s.Date, testDay)
	}
	if s.Source != SourceRecognition {
		t.Errorf("Source = %v, want SourceRecognition", s.Source)
	}
	checkIntervals(t, s.Groups["1.1"].Intervals, []Interval{
		{Start: at(t, 2, 0), End: at(t, 5, 0)},
		{Start: at(t, 10, 0), End: at(t, 12, 0)},
	})
	if got := s.Groups["1.1"].Mask.String(); got != "000000000000110000011100" {
		t.Errorf("derived mask = %s", got)
	}

	// An empty group has power all day.
	if len(s.Groups["2.1"].Intervals) != 0 {
		t.Errorf("2.1 intervals = %v, want none", s.Groups["2.1"].Intervals)
	}
	if s.Groups["2.1"].Mask.Bits != 0 {
		t.Errorf("2.1 mask = %s, want zero", s.Groups["2.1"].Mask.String())
	}
}

func TestNormalizeRecognitionWraparound(t *testing.T) {
	t.Parallel()

	raw := `{
		"date_time": "d",
		"blackouts": {"1.1": [{"start": "22:00", "end": "00:00"}]}
	}`
	s, err := NormalizeRecognition([]byte(raw), testDay, UnitsHourly)
	if err != nil {
		t.Fatalf("NormalizeRecognition: %v", err)
	}
	checkIntervals(t, s.Groups["1.1"].Intervals, []Interval{
		{Start: at(t, 22, 0), End: testDay.AddDate(0, 0, 1)},
	})

	// "24:00" is an accepted spelling of next-day midnight.
	raw = `{
		"date_time": "d",
		"blackouts": {"1.1": [{"start": "22:00", "end": "24:00"}]}
	}`
	s, err = NormalizeRecognition([]byte(raw), testDay, UnitsHourly)
	if err != nil {
		t.Fatalf("NormalizeRecognition: %v", err)
	}
	checkIntervals(t, s.Groups["1.1"].Intervals, []Interval{
		{Start: at(t, 22, 0), End: testDay.AddDate(0, 0, 1)},
	})
}

func TestNormalizeRecognitionErrors(t *testing.T) {
	t.Parallel()

	if _, err := NormalizeRecognition([]byte(`{`), testDay, UnitsHourly); err == nil {
		t.Error("want error for bad json")
	}
	if _, err := NormalizeRecognition([]byte(`{"blackouts": {}}`), testDay, UnitsHourly); !errors.Is(err, ErrNoDateTime) {
		t.Errorf("want ErrNoDateTime, got %v", err)
	}
	if _, err := NormalizeRecognition([]byte(`{"date_time": "d"}`), testDay, UnitsHourly); !errors.Is(err, ErrNoBlackouts) {
		t.Errorf("want ErrNoBlackouts, got %v", err)
	}
	raw := `{"date_time": "d", "blackouts": {"1.1": [{"start": "nope", "end": "12:00"}]}}`
	if _, err := NormalizeRecognition([]byte(raw), testDay, UnitsHourly); err == nil {
		t.Error("want error for bad clock string")
	}
	if _, err := NormalizeRecognition([]byte(`{"date_time": "d", "blackouts": {}}`), testDay, 17); !errors.Is(err, ErrBadUnits) {
		t.Error("want ErrBadUnits for 17 units")
	}
}
