package crab

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Spawn is a crab waiting in a channel
type Spawn struct {
	ID        string    `json:"id"`
	Server    string    `json:"server"`
	Channel   string    `json:"channel"`
	Creature  Creature  `json:"creature"`
	SpawnedAt time.Time `json:"spawnedAt"`
	Caught    bool      `json:"caught"`
	CaughtBy  string    `json:"caughtBy,omitempty"`
	// MessageID is the announcement carrying the catch button
	MessageID string `json:"messageID,omitempty"`
}

// Registry holds the active spawns of every server. A channel has at most
// one uncaught spawn. Caught spawns stay until they expire so a late
// catcher can be told they missed it.
type Registry struct {
	mu     sync.Mutex
	spawns map[string]*Spawn
	ttl    time.Duration
	now    func() time.Time
	rng    Rand
	picker *picker
}

func NewRegistry(table []Creature, ttl time.Duration, rng Rand, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		spawns: map[string]*Spawn{},
		ttl:    ttl,
		now:    now,
		rng:    rng,
		picker: newPicker(table),
	}
}

func (r *Registry) expired(s *Spawn, now time.Time) bool {
	return now.Sub(s.SpawnedAt) >= r.ttl
}

// uncaught returns the live, uncaught spawn for channel; r.mu must be held
func (r *Registry) uncaught(channel string, now time.Time) *Spawn {
	for _, s := range r.spawns {
		if s.Channel == channel && !s.Caught && !r.expired(s, now) {
			return s
		}
	}
	return nil
}

// TrySpawn creates a spawn with a randomly drawn creature unless the
// channel already has one waiting
func (r *Registry) TrySpawn(server, channel string) (Spawn, bool) {
	return r.spawn(server, channel, nil)
}

// ForceSpawn is TrySpawn with an optional fixed creature. It still refuses
// a channel that already has a crab waiting.
func (r *Registry) ForceSpawn(server, channel string, c *Creature) (Spawn, bool) {
	return r.spawn(server, channel, c)
}

func (r *Registry) spawn(server, channel string, c *Creature) (Spawn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if r.uncaught(channel, now) != nil {
		return Spawn{}, false
	}
	var creature Creature
	if c != nil {
		creature = *c
	} else {
		creature = r.picker.Pick(r.rng)
	}
	s := &Spawn{
		ID:        fmt.Sprintf("%s_%s", server, uuid.New().String()),
		Server:    server,
		Channel:   channel,
		Creature:  creature,
		SpawnedAt: now,
	}
	r.spawns[s.ID] = s
	return *s, true
}

// FindActive returns the uncaught, unexpired spawn in channel
func (r *Registry) FindActive(channel string) (Spawn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.uncaught(channel, r.now())
	if s == nil {
		return Spawn{}, false
	}
	return *s, true
}

// Get returns a spawn by id whether or not it is caught
func (r *Registry) Get(id string) (Spawn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.spawns[id]
	if !ok || r.expired(s, r.now()) {
		return Spawn{}, false
	}
	return *s, true
}

// SetMessageID remembers which message announced the spawn
func (r *Registry) SetMessageID(id, messageID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.spawns[id]; ok {
		s.MessageID = messageID
	}
}

// Remove drops a spawn outright
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.spawns, id)
}

// Sweep removes every spawn that has outlived the TTL at now and returns them
func (r *Registry) Sweep(now time.Time) []Spawn {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Spawn{}
	for id, s := range r.spawns {
		if r.expired(s, now) {
			out = append(out, *s)
			delete(r.spawns, id)
		}
	}
	return out
}

// Forget drops every spawn of server and reports how many went
func (r *Registry) Forget(server string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.spawns {
		if s.Server == server {
			delete(r.spawns, id)
			n++
		}
	}
	return n
}

// All lists the spawns ordered by creation time
func (r *Registry) All() []Spawn {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Spawn, 0, len(r.spawns))
	for _, s := range r.spawns {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SpawnedAt.Before(out[j].SpawnedAt)
	})
	return out
}

// Restore loads previously saved spawns, skipping expired ones and any
// that would break the one uncaught crab per channel rule
func (r *Registry) Restore(spawns []Spawn) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	n := 0
	for _, s := range spawns {
		s := s
		if r.expired(&s, now) {
			continue
		}
		if !s.Caught && r.uncaught(s.Channel, now) != nil {
			continue
		}
		r.spawns[s.ID] = &s
		n++
	}
	return n
}
