// Package pipeline orchestrates one ingestion run end to end: normalize
// the raw source, fan out to every subscribed channel, and account for
// per-channel outcomes. A channel failure never aborts the rest of the
// run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/svitlobot/blackout-notify/internal/config"
	"github.com/svitlobot/blackout-notify/internal/notifications"
	"github.com/svitlobot/blackout-notify/internal/schedule"
)

// Result tracks counts and errors from one run.
type Result struct {
	Schedules         int
	ChannelsNotified  int
	ChannelsUnchanged int
	ChannelsFailed    int
	Errors            []string
}

// AddErrorf records a formatted error message.
func (r *Result) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	return fmt.Sprintf("schedules=%d notified=%d unchanged=%d failed=%d",
		r.Schedules, r.ChannelsNotified, r.ChannelsUnchanged, r.ChannelsFailed)
}

// Runner drives schedules through the dispatcher for every configured
// channel.
type Runner struct {
	cfg        *config.Config
	dispatcher *notifications.Dispatcher
	logger     *slog.Logger
}

// NewRunner wires a runner.
func NewRunner(cfg *config.Config, dispatcher *notifications.Dispatcher, logger *slog.Logger) *Runner {
	return &Runner{cfg: cfg, dispatcher: dispatcher, logger: logger}
}

// ProcessFeed normalizes a raw supplier feed document and dispatches every
// day entry it contains.
func (r *Runner) ProcessFeed(ctx context.Context, raw []byte) (*Result, error) {
	schedules, err := schedule.NormalizeFeed(raw, r.cfg.GroupPrefix, r.cfg.Timezone)
	if err != nil {
		return nil, err
	}
	return r.run(ctx, schedules), nil
}

// ProcessRecognition normalizes a table-recognizer result for today and
// dispatches it.
func (r *Runner) ProcessRecognition(ctx context.Context, raw []byte) (*Result, error) {
	day := schedule.Midnight(time.Now().In(r.cfg.Timezone))
	sched, err := schedule.NormalizeRecognition(raw, day, schedule.UnitsHourly)
	if err != nil {
		return nil, err
	}
	return r.run(ctx, []schedule.Schedule{sched}), nil
}

func (r *Runner) run(ctx context.Context, schedules []schedule.Schedule) *Result {
	res := &Result{Schedules: len(schedules)}

	// Deterministic channel order for reproducible logs.
	channels := make([]int64, 0, len(r.cfg.Subscriptions))
	for id := range r.cfg.Subscriptions {
		channels = append(channels, id)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })

	for _, sched := range schedules {
		for _, channelID := range channels {
			scope := notifications.NewScope(channelID, r.cfg.Subscriptions[channelID])
			outcome := r.dispatcher.Dispatch(ctx, sched, scope, r.imagePath(sched, scope))
			switch {
			case outcome.Err != nil:
				res.ChannelsFailed++
				res.AddErrorf("chat %d: %v", channelID, outcome.Err)
			case outcome.Sent:
				res.ChannelsNotified++
			default:
				res.ChannelsUnchanged++
			}
		}
	}
	return res
}

func (r *Runner) imagePath(sched schedule.Schedule, scope notifications.Scope) string {
	name := fmt.Sprintf("schedule_%s_%s.png", sched.Date.Format("2006-01-02"), scope.Key())
	return filepath.Join(r.cfg.OutDir, name)
}
