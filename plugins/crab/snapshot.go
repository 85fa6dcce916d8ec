package crab

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/velour/crabbase/config/store"
)

const snapshotPrefix = "spawn/"

// snapshot mirrors the registry into a key-value store so waiting crabs
// survive a restart. Every write is best effort.
type snapshot struct {
	kv *store.KV
}

func (s *snapshot) save(sp Spawn) {
	if s == nil || s.kv == nil {
		return
	}
	data, err := json.Marshal(sp)
	if err != nil {
		log.Error().Err(err).Str("spawn", sp.ID).Msg("could not encode spawn")
		return
	}
	if err := s.kv.Set(snapshotPrefix+sp.ID, string(data)); err != nil {
		log.Error().Err(err).Str("spawn", sp.ID).Msg("could not snapshot spawn")
	}
}

func (s *snapshot) drop(id string) {
	if s == nil || s.kv == nil {
		return
	}
	if err := s.kv.Delete(snapshotPrefix + id); err != nil {
		log.Error().Err(err).Str("spawn", id).Msg("could not drop spawn snapshot")
	}
}

// load returns every saved spawn; unreadable entries are dropped
func (s *snapshot) load() []Spawn {
	out := []Spawn{}
	if s == nil || s.kv == nil {
		return out
	}
	keys, err := s.kv.Keys()
	if err != nil {
		log.Error().Err(err).Msg("could not list spawn snapshots")
		return out
	}
	for _, k := range keys {
		if !strings.HasPrefix(k, snapshotPrefix) {
			continue
		}
		v, err := s.kv.Get(k)
		if err != nil {
			continue
		}
		sp := Spawn{}
		if err := json.Unmarshal([]byte(v), &sp); err != nil {
			log.Error().Err(err).Str("key", k).Msg("bad spawn snapshot")
			s.kv.Delete(k)
			continue
		}
		out = append(out, sp)
	}
	return out
}
