// Package ristretto keeps recently finished plans available for lookup
// after the executor has released them, using dgraph-io/ristretto as a
// bounded in-process cache.
package ristretto

import (
	"encoding/json"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/planforge/planforge/internal/domain/plan"
)

// Retention holds marshaled terminal plan snapshots for a bounded window so
// detail and status queries keep working after execution ends. Eviction is
// by TTL or total size, whichever bites first.
type Retention struct {
	c   *ristretto.Cache[string, []byte]
	ttl time.Duration
}

// NewRetention builds a retention cache bounded by maxCostBytes of stored
// snapshots, each kept for the given window.
func NewRetention(maxCostBytes int64, window time.Duration) (*Retention, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCostBytes / 100 * 10, // ~10x expected items
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Retention{c: c, ttl: window}, nil
}

// Store retains a terminal plan snapshot. It returns only once the snapshot
// is visible to Lookup: the executor drops its live entry right after this
// call, so a buffered write would leave a window where the plan is in
// neither table.
func (r *Retention) Store(p *plan.Plan) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	r.c.SetWithTTL(p.PlanID, data, int64(len(data)), r.ttl)
	r.c.Wait()
	return nil
}

// Lookup returns the retained snapshot for planID, or false when it was
// never stored or has been evicted.
func (r *Retention) Lookup(planID string) (*plan.Plan, bool) {
	data, found := r.c.Get(planID)
	if !found {
		return nil, false
	}
	var p plan.Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false
	}
	return &p, true
}

// Close releases the cache's resources.
func (r *Retention) Close() {
	r.c.Close()
}
