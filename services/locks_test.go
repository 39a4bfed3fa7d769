package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockDealSerializesSameDeal(t *testing.T) {
	const goroutines = 50

	counter := 0
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			unlock := lockDeal(42)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines, counter)
}

func TestLockDealIndependentPerDeal(t *testing.T) {
	unlockA := lockDeal(1)
	defer unlockA()

	// A different deal's lock must not block.
	done := make(chan struct{})
	go func() {
		unlockB := lockDeal(2)
		unlockB()
		close(done)
	}()
	<-done
}
