package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/svitlobot/blackout-notify/internal/merge"
	"github.com/svitlobot/blackout-notify/internal/schedule"
)

// Renderer draws the schedule table for the given groups to outPath.
type Renderer interface {
	Render(s schedule.Schedule, groups []string, outPath string) error
}

// Dispatcher runs the decision chain for one channel at a time:
// merge → canonicalize → detect → render → send.
type Dispatcher struct {
	detector *Detector
	sender   Sender
	renderer Renderer
	quiet    QuietHours
	logger   *slog.Logger
	now      func() time.Time
}

// NewDispatcher wires the dispatcher. renderer may be nil; affected
// channels then receive text-only messages.
func NewDispatcher(detector *Detector, sender Sender, renderer Renderer, quiet QuietHours, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		detector: detector,
		sender:   sender,
		renderer: renderer,
		quiet:    quiet,
		logger:   logger,
		now:      time.Now,
	}
}

// Outcome records what happened for one channel.
type Outcome struct {
	ChannelID int64
	Changed   bool
	Sent      bool
	Err       error
}

// Dispatch processes one channel for one normalized schedule. Feed-sourced
// schedules merge through their bitmasks; recognition-sourced ones merge
// through an endpoint sweep. The change detector is consulted before any
// rendering or sending; its record is durable before the first send.
func (d *Dispatcher) Dispatch(ctx context.Context, sched schedule.Schedule, scope Scope, imagePath string) Outcome {
	out := Outcome{ChannelID: scope.ChannelID}

	// A group absent from the schedule has power all day.
	members := make([]schedule.GroupDay, len(scope.Groups))
	payload := make(map[string][]schedule.Interval, len(scope.Groups))
	for i, g := range scope.Groups {
		gd := sched.Groups[g]
		if gd.Mask.Units == 0 {
			gd.Mask.Units = sched.Units
		}
		members[i] = gd
		payload[g] = gd.Intervals
	}

	changed, err := d.detector.Observe(ctx, scope, Canonicalize(sched.Date, payload))
	if err != nil {
		out.Err = err
		return out
	}
	if !changed {
		d.logger.Info("schedule unchanged", "chat_id", scope.ChannelID, "groups", scope.Groups)
		return out
	}
	out.Changed = true

	var text string
	if len(scope.Groups) == 1 {
		text = FormatSingle(sched.LastUpdated, scope.Groups[0], members[0].Intervals)
	} else {
		var res merge.Result
		if sched.Source == schedule.SourceFeed {
			masks := make([]schedule.Mask, len(members))
			for i, m := range members {
				masks[i] = m.Mask
			}
			res = merge.Masks(sched.Date, masks)
		} else {
			timelines := make([][]schedule.Interval, len(members))
			for i, m := range members {
				timelines[i] = m.Intervals
			}
			res = merge.Groups(sched.Date, timelines)
		}
		text = FormatMerged(sched.LastUpdated, scope.Groups, res)
	}

	photoPath := ""
	if d.renderer != nil && imagePath != "" {
		if err := d.renderer.Render(sched, scope.Groups, imagePath); err != nil {
			d.logger.Warn("render failed, sending text only", "chat_id", scope.ChannelID, "error", err)
		} else {
			photoPath = imagePath
		}
	}

	if err := d.quiet.Wait(ctx, d.now); err != nil {
		out.Err = fmt.Errorf("quiet hours wait: %w", err)
		return out
	}

	if photoPath != "" && fileExists(photoPath) {
		err = d.sender.SendPhoto(ctx, scope.ChannelID, photoPath, text)
	} else {
		err = d.sender.SendMessage(ctx, scope.ChannelID, text)
	}
	if err != nil {
		out.Err = err
		return out
	}
	out.Sent = true
	d.logger.Info("notification sent", "chat_id", scope.ChannelID, "groups", scope.Groups, "photo", photoPath != "")
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
