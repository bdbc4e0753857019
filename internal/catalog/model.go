package catalog

import "time"

// Identity is a rentable anonymous number with per-duration pricing.
type Identity struct {
	ID         string
	PriceDay   int64
	PriceWeek  int64
	PriceMonth int64
	Available  bool
	UpdatedAt  time.Time
}

// PriceFor selects the price tier covering the requested rental duration.
func (i Identity) PriceFor(hours int) int64 {
	switch {
	case hours <= 24:
		return i.PriceDay
	case hours <= 7*24:
		return i.PriceWeek
	default:
		return i.PriceMonth
	}
}
