package keylock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockSerialisesSameKey(t *testing.T) {
	kl := New()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := kl.Lock("learner-1")
			defer unlock()
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, kl.Len())
}

func TestLockDifferentKeysDoNotBlock(t *testing.T) {
	kl := New()
	unlockA := kl.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := kl.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key should not block")
	}
}

func TestUnlockIsIdempotent(t *testing.T) {
	kl := New()
	unlock := kl.Lock("a")
	unlock()
	unlock()

	assert.Equal(t, 0, kl.Len())
	relock := kl.Lock("a")
	relock()
}
