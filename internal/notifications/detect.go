package notifications

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/svitlobot/blackout-notify/internal/schedule"
)

// canonicalDoc is the deterministic serialization of one channel's
// notification content: group keys sorted, endpoints rendered as local
// clock strings so re-runs against the same wall-clock schedule hash
// identically.
type canonicalDoc struct {
	Date   string           `json:"date"`
	Groups []canonicalGroup `json:"groups"`
}

type canonicalGroup struct {
	Group  string           `json:"group"`
	Ranges []canonicalRange `json:"ranges"`
}

type canonicalRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Canonicalize serializes a schedule fragment deterministically.
// Identical logical content always yields identical bytes regardless of
// map iteration order.
func Canonicalize(date time.Time, groups map[string][]schedule.Interval) []byte {
	doc := canonicalDoc{
		Date:   date.Format(dateLayout),
		Groups: make([]canonicalGroup, 0, len(groups)),
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cg := canonicalGroup{Group: name, Ranges: []canonicalRange{}}
		for _, iv := range groups[name] {
			cg.Ranges = append(cg.Ranges, canonicalRange{
				Start: clock(iv.Start),
				End:   clock(iv.End),
			})
		}
		doc.Groups = append(doc.Groups, cg)
	}

	// Marshal cannot fail for this shape.
	raw, _ := json.Marshal(doc)
	return raw
}

// Detector is the idempotency gate in front of the notification path.
// It is an at-least-once gate, not an audit log: a record write failure
// leaves the content unseen so a later run can still notify.
type Detector struct {
	store SeenStore
}

// NewDetector creates a Detector backed by the given store.
func NewDetector(store SeenStore) *Detector {
	return &Detector{store: store}
}

// Observe digests the canonical payload and records it for the scope.
// It returns true when the content had not been seen before, with the
// record already durable; callers must only send after a true result.
func (d *Detector) Observe(ctx context.Context, scope Scope, canonical []byte) (bool, error) {
	sum := blake2b.Sum256(canonical)
	digest := hex.EncodeToString(sum[:])
	fresh, err := d.store.MarkIfNew(ctx, scope.Key(), digest)
	if err != nil {
		return false, fmt.Errorf("record seen hash for scope %s: %w", scope.Key(), err)
	}
	return fresh, nil
}
