package crab

// AttemptCatch flips the channel's waiting crab to caught by userID. Of any
// number of concurrent callers exactly one gets the spawn back; the rest
// get ErrAlreadyCaught.
func (r *Registry) AttemptCatch(channel, userID string) (Spawn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if s := r.uncaught(channel, now); s != nil {
		return r.flip(s, userID), nil
	}
	for _, s := range r.spawns {
		if s.Channel == channel && s.Caught && !r.expired(s, now) {
			return Spawn{}, ErrAlreadyCaught
		}
	}
	return Spawn{}, ErrNoActiveSpawn
}

// AttemptCatchID is AttemptCatch for a specific spawn, as named by a button
func (r *Registry) AttemptCatchID(id, userID string) (Spawn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.spawns[id]
	if !ok || r.expired(s, r.now()) {
		return Spawn{}, ErrNoActiveSpawn
	}
	if s.Caught {
		return Spawn{}, ErrAlreadyCaught
	}
	return r.flip(s, userID), nil
}

// flip marks s caught; r.mu must be held
func (r *Registry) flip(s *Spawn, userID string) Spawn {
	s.Caught = true
	s.CaughtBy = userID
	return *s
}
