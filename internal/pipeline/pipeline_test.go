package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/svitlobot/blackout-notify/internal/config"
	"github.com/svitlobot/blackout-notify/internal/notifications"
)

const sampleFeed = `{
	"data": {
		"1761782400": {
			"GPV1.1": {"1": "no", "2": "no", "3": "yes"},
			"GPV2.1": {"1": "yes", "2": "no", "3": "no"}
		}
	},
	"update": "30.10.2025 08:12"
}`

type countingSender struct {
	sends map[int64]int
	fail  map[int64]bool
}

func newCountingSender() *countingSender {
	return &countingSender{sends: map[int64]int{}, fail: map[int64]bool{}}
}

func (s *countingSender) SendMessage(_ context.Context, chatID int64, _ string) error {
	if s.fail[chatID] {
		return errors.New("blocked by chat")
	}
	s.sends[chatID]++
	return nil
}

func (s *countingSender) SendPhoto(_ context.Context, chatID int64, _, _ string) error {
	return s.SendMessage(context.Background(), chatID, "")
}

func newTestRunner(t *testing.T, sender notifications.Sender, subs map[int64][]string) *Runner {
	t.Helper()
	store, err := notifications.NewDirStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dispatcher := notifications.NewDispatcher(
		notifications.NewDetector(store), sender, nil, notifications.QuietHours{}, logger)
	cfg := &config.Config{
		OutDir:        t.TempDir(),
		GroupPrefix:   "GPV",
		Timezone:      time.UTC,
		Subscriptions: subs,
	}
	return NewRunner(cfg, dispatcher, logger)
}

func TestProcessFeedIsIdempotent(t *testing.T) {
	t.Parallel()

	sender := newCountingSender()
	r := newTestRunner(t, sender, map[int64][]string{
		100: {"1.1"},
		200: {"1.1", "2.1"},
	})
	ctx := context.Background()

	res, err := r.ProcessFeed(ctx, []byte(sampleFeed))
	if err != nil {
		t.Fatalf("ProcessFeed: %v", err)
	}
	if res.Schedules != 1 || res.ChannelsNotified != 2 || res.ChannelsFailed != 0 {
		t.Fatalf("first run: %s", res.Summary())
	}

	// The same document again changes nothing and sends nothing.
	res, err = r.ProcessFeed(ctx, []byte(sampleFeed))
	if err != nil {
		t.Fatalf("ProcessFeed again: %v", err)
	}
	if res.ChannelsNotified != 0 || res.ChannelsUnchanged != 2 {
		t.Fatalf("second run: %s", res.Summary())
	}
	if sender.sends[100] != 1 || sender.sends[200] != 1 {
		t.Errorf("send counts = %v, want one per channel", sender.sends)
	}
}

func TestProcessFeedChannelFailureIsIsolated(t *testing.T) {
	t.Parallel()

	sender := newCountingSender()
	sender.fail[100] = true
	r := newTestRunner(t, sender, map[int64][]string{
		100: {"1.1"},
		200: {"2.1"},
	})

	res, err := r.ProcessFeed(context.Background(), []byte(sampleFeed))
	if err != nil {
		t.Fatalf("ProcessFeed: %v", err)
	}
	if res.ChannelsFailed != 1 || res.ChannelsNotified != 1 {
		t.Fatalf("run: %s", res.Summary())
	}
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %v", res.Errors)
	}
	if sender.sends[200] != 1 {
		t.Error("healthy channel should still be notified")
	}
}

func TestProcessFeedMalformedInput(t *testing.T) {
	t.Parallel()

	sender := newCountingSender()
	r := newTestRunner(t, sender, map[int64][]string{100: {"1.1"}})

	if _, err := r.ProcessFeed(context.Background(), []byte(`{"data": {}}`)); err == nil {
		t.Fatal("want error for empty feed")
	}
	if len(sender.sends) != 0 {
		t.Error("malformed input must not reach the transport")
	}
}

func TestProcessRecognition(t *testing.T) {
	t.Parallel()

	sender := newCountingSender()
	r := newTestRunner(t, sender, map[int64][]string{300: {"1.1"}})

	raw := []byte(`{"date_time": "30.10.2025 14:00", "blackouts": {"1.1": [{"start": "10:00", "end": "12:00"}]}}`)
	res, err := r.ProcessRecognition(context.Background(), raw)
	if err != nil {
		t.Fatalf("ProcessRecognition: %v", err)
	}
	if res.Schedules != 1 || res.ChannelsNotified != 1 {
		t.Fatalf("run: %s", res.Summary())
	}
}
