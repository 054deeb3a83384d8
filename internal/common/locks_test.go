package common

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SameKeyBlocks(t *testing.T) {
	km := NewKeyedMutex()
	unlock := km.Lock("user-1")

	acquired := make(chan struct{})
	go func() {
		second := km.Lock("user-1")
		second()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock acquired while the key was held")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Lock never acquired after unlock")
	}
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	km := NewKeyedMutex()
	unlock := km.Lock("user-1")
	defer unlock()

	done := make(chan struct{})
	go func() {
		other := km.Lock("user-2")
		other()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestKeyedMutex_MutualExclusion(t *testing.T) {
	km := NewKeyedMutex()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("user-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	require.Equal(t, 50, counter)
}
