package usecase

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyMutex_SerializesSameKey(t *testing.T) {
	km := newKeyMutex()

	const workers = 32
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("cart_1")
			defer km.Unlock("cart_1")
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestKeyMutex_IndependentKeysDoNotBlock(t *testing.T) {
	km := newKeyMutex()

	km.Lock("cart_1")
	done := make(chan struct{})
	go func() {
		km.Lock("cart_2")
		km.Unlock("cart_2")
		close(done)
	}()
	<-done // deadlocks the test if keys shared a lock
	km.Unlock("cart_1")
}

func TestKeyMutex_EntriesAreReclaimed(t *testing.T) {
	km := newKeyMutex()

	km.Lock("cart_1")
	km.Unlock("cart_1")

	km.mu.Lock()
	defer km.mu.Unlock()
	assert.Empty(t, km.locks, "released keys must not accumulate")
}
