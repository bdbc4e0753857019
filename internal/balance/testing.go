package balance

// Seed is a test helper that sets a renter's balance directly when using the
// in-memory store.
func Seed(s Store, renterID string, amount int64) {
	if mem, ok := s.(*inMemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.balances[renterID] = amount
	}
}
