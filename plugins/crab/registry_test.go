package crab

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func makeRegistry() (*Registry, *fakeClock) {
	clock := newClock()
	return NewRegistry(Creatures, 10*time.Minute, &seqRand{}, clock.Now), clock
}

func TestTrySpawnOnePerChannel(t *testing.T) {
	r, _ := makeRegistry()
	s, ok := r.TrySpawn("srv", "c1")
	assert.True(t, ok)
	assert.True(t, strings.HasPrefix(s.ID, "srv_"))
	for i := 0; i < 5; i++ {
		_, ok := r.TrySpawn("srv", "c1")
		assert.False(t, ok)
	}
	_, ok = r.ForceSpawn("srv", "c1", nil)
	assert.False(t, ok)
	_, ok = r.TrySpawn("srv", "c2")
	assert.True(t, ok)
}

func TestSpawnAfterCatch(t *testing.T) {
	r, _ := makeRegistry()
	r.TrySpawn("srv", "c1")
	_, err := r.AttemptCatch("c1", "u1")
	assert.Nil(t, err)
	_, ok := r.TrySpawn("srv", "c1")
	assert.True(t, ok)
}

func TestExpiredSpawnIsInvisible(t *testing.T) {
	r, clock := makeRegistry()
	first, _ := r.TrySpawn("srv", "c1")
	clock.Advance(9 * time.Minute)
	found, ok := r.FindActive("c1")
	assert.True(t, ok)
	assert.Equal(t, first.ID, found.ID)

	clock.Advance(time.Minute)
	_, ok = r.FindActive("c1")
	assert.False(t, ok)
	_, ok = r.Get(first.ID)
	assert.False(t, ok)

	second, ok := r.TrySpawn("srv", "c1")
	assert.True(t, ok)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestForceSpawnCreature(t *testing.T) {
	r, _ := makeRegistry()
	galaxy, ok := FindCreature(Creatures, "galaxy")
	assert.True(t, ok)
	s, ok := r.ForceSpawn("srv", "c1", &galaxy)
	assert.True(t, ok)
	assert.Equal(t, "Galaxy Crab", s.Creature.Name)
	assert.Equal(t, 250, s.Creature.Value)
}

func TestSweep(t *testing.T) {
	r, clock := makeRegistry()
	old, _ := r.TrySpawn("srv", "c1")
	clock.Advance(5 * time.Minute)
	fresh, _ := r.TrySpawn("srv", "c2")
	clock.Advance(6 * time.Minute)

	gone := r.Sweep(clock.Now())
	assert.Len(t, gone, 1)
	assert.Equal(t, old.ID, gone[0].ID)
	all := r.All()
	assert.Len(t, all, 1)
	assert.Equal(t, fresh.ID, all[0].ID)
}

func TestForget(t *testing.T) {
	r, _ := makeRegistry()
	r.TrySpawn("a", "c1")
	r.TrySpawn("a", "c2")
	r.TrySpawn("b", "c3")
	assert.Equal(t, 2, r.Forget("a"))
	all := r.All()
	assert.Len(t, all, 1)
	assert.Equal(t, "b", all[0].Server)
}

func TestRestore(t *testing.T) {
	r, clock := makeRegistry()
	now := clock.Now()
	saved := []Spawn{
		{ID: "srv_1", Server: "srv", Channel: "c1", Creature: Creatures[0], SpawnedAt: now.Add(-time.Minute)},
		{ID: "srv_2", Server: "srv", Channel: "c2", Creature: Creatures[1], SpawnedAt: now.Add(-time.Hour)},
		{ID: "srv_3", Server: "srv", Channel: "c1", Creature: Creatures[2], SpawnedAt: now.Add(-2 * time.Minute)},
	}
	assert.Equal(t, 1, r.Restore(saved))
	s, ok := r.FindActive("c1")
	assert.True(t, ok)
	assert.Equal(t, "srv_1", s.ID)
	_, ok = r.FindActive("c2")
	assert.False(t, ok)
}

func TestPickerCoversTable(t *testing.T) {
	p := newPicker(Creatures)
	rng := &seqRand{ints: []int{0, 1, 2, 3, 4}}
	for _, want := range Creatures {
		assert.Equal(t, want.Name, p.Pick(rng).Name)
	}
}

func TestPickerWeights(t *testing.T) {
	table := []Creature{{Name: "a", Weight: 3}, {Name: "b"}}
	p := newPicker(table)
	rng := &seqRand{ints: []int{0, 2, 3}}
	assert.Equal(t, "a", p.Pick(rng).Name)
	assert.Equal(t, "a", p.Pick(rng).Name)
	assert.Equal(t, "b", p.Pick(rng).Name)
}

func TestFindCreature(t *testing.T) {
	c, ok := FindCreature(Creatures, "Epic")
	assert.True(t, ok)
	assert.Equal(t, "Crystal Crab", c.Name)
	_, ok = FindCreature(Creatures, "lobster")
	assert.False(t, ok)
}
