package services

import "sync"

// dealLocks serializes read-modify-write cycles per deal so that
// concurrent bid placement or buyer assignment cannot lose updates.
// Entries are never evicted; the map is bounded by the number of deals
// touched since process start.
var dealLocks sync.Map // dealID -> *sync.Mutex

func lockDeal(dealID uint) (unlock func()) {
	v, _ := dealLocks.LoadOrStore(dealID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
