// Package notifications gates blackout-schedule changes behind a
// content-hash dedup store and pushes localized messages to the
// subscribed channels.
//
// Pipeline per channel: merge the subscribed groups → canonicalize →
// digest → seen check → render table image → send. An unchanged digest
// for a (channel, group-set) scope suppresses the whole chain.
package notifications

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// Telegram allows bursts but throttles sustained sending; one message
	// per second with a small burst stays well inside the limits.
	sendsPerSecond = 1
	sendBurst      = 3

	clockLayout = "15:04"
	dateLayout  = "02.01.2006"
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Scope identifies one channel's subscription: the channel plus the exact
// set of groups it watches. Distinct scopes never suppress each other.
type Scope struct {
	ChannelID int64
	Groups    []string // sorted, non-empty
}

// NewScope builds a Scope with a sorted copy of the group set.
func NewScope(channelID int64, groups []string) Scope {
	sorted := make([]string, len(groups))
	copy(sorted, groups)
	sort.Strings(sorted)
	return Scope{ChannelID: channelID, Groups: sorted}
}

// Key returns the filesystem-safe store namespace for this scope.
func (s Scope) Key() string {
	return fmt.Sprintf("%d_%s", s.ChannelID, strings.Join(s.Groups, "-"))
}

func clock(t time.Time) string {
	return t.Format(clockLayout)
}
