package renting

import (
	"sync"
	"time"

	"github.com/numrent/numrent/internal/catalog"
)

// Listing is one row of the availability listing.
type Listing struct {
	Identity catalog.Identity
	Rented   bool
	RenterID string
	RentEnd  time.Time
}

// listingCache is the process-local working set mirroring catalog and ledger
// state for fast listing. It is invalidated on catalog mutation and on
// assign/cancel, and rebuilt by a single writer at the next read.
type listingCache struct {
	mu      sync.Mutex
	valid   bool
	entries []Listing
}

func (c *listingCache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}

// snapshot returns the cached entries, rebuilding through build when stale.
// The mutex makes the rebuild single-writer; readers block on it rather than
// racing to rebuild.
func (c *listingCache) snapshot(build func() ([]Listing, error)) ([]Listing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid {
		entries, err := build()
		if err != nil {
			return nil, err
		}
		c.entries = entries
		c.valid = true
	}
	return c.entries, nil
}
