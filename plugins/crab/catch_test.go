package crab

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConcurrentCatchHasOneWinner(t *testing.T) {
	r, _ := makeRegistry()
	s, _ := r.TrySpawn("srv", "c1")

	const n = 50
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, errs[i] = r.AttemptCatch("c1", "u")
			} else {
				_, errs[i] = r.AttemptCatchID(s.ID, "u")
			}
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyCaught)
	}
	assert.Equal(t, 1, winners)
}

func TestCatchNothing(t *testing.T) {
	r, _ := makeRegistry()
	_, err := r.AttemptCatch("c1", "u1")
	assert.ErrorIs(t, err, ErrNoActiveSpawn)
	_, err = r.AttemptCatchID("srv_nope", "u1")
	assert.ErrorIs(t, err, ErrNoActiveSpawn)
}

func TestLateCatcher(t *testing.T) {
	r, _ := makeRegistry()
	s, _ := r.TrySpawn("srv", "c1")
	won, err := r.AttemptCatch("c1", "a")
	assert.Nil(t, err)
	assert.Equal(t, s.ID, won.ID)
	assert.True(t, won.Caught)
	assert.Equal(t, "a", won.CaughtBy)

	_, err = r.AttemptCatch("c1", "b")
	assert.ErrorIs(t, err, ErrAlreadyCaught)
	_, err = r.AttemptCatchID(s.ID, "b")
	assert.ErrorIs(t, err, ErrAlreadyCaught)
}

func TestCatchExpired(t *testing.T) {
	r, clock := makeRegistry()
	s, _ := r.TrySpawn("srv", "c1")
	clock.Advance(10 * time.Minute)
	_, err := r.AttemptCatch("c1", "a")
	assert.ErrorIs(t, err, ErrNoActiveSpawn)
	_, err = r.AttemptCatchID(s.ID, "a")
	assert.ErrorIs(t, err, ErrNoActiveSpawn)
}
