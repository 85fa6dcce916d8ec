package crab

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/velour/crabbase/bot"
)

// runScheduler ticks until ctx is done
func (p *CrabPlugin) runScheduler(ctx context.Context, interval time.Duration) {
	log.Info().Dur("interval", interval).Msg("crab scheduler started")
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("crab scheduler stopped")
			return
		case <-t.C:
			p.tick()
		}
	}
}

// tick sweeps expired crabs and then gives every enabled server its chance
// at a new one
func (p *CrabPlugin) tick() {
	p.sweep(p.registry.now())

	servers, err := p.store.EnabledServers()
	if err != nil {
		log.Error().Err(err).Msg("could not list crab servers")
		return
	}
	chance := p.cfg.GetFloat64("crab.spawnchance", 0.7)
	for _, s := range servers {
		if err := p.tickServer(s, chance); err != nil {
			log.Error().Err(err).Str("server", s.Server).Msg("crab tick failed")
		}
	}
}

// tickServer runs one server's tick; a panic here stays here
func (p *CrabPlugin) tickServer(cfg ServerConfig, chance float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if p.rng.Float64() >= chance {
		return nil
	}
	_, _, err = p.spawnIn(p.bot.DefaultConnector(), cfg.Server, cfg.SpawnChannel, nil)
	return err
}

// sweep drops spawns past their TTL and marks uncaught ones as escaped
func (p *CrabPlugin) sweep(now time.Time) {
	for _, s := range p.registry.Sweep(now) {
		p.snap.drop(s.ID)
		if s.Caught || s.MessageID == "" {
			continue
		}
		_, err := p.bot.Send(p.bot.DefaultConnector(), bot.Edit, s.Channel, s.MessageID, "",
			escapedEmbed(s), catchButton(s, true))
		if err != nil {
			log.Debug().Err(err).Str("spawn", s.ID).Msg("could not mark spawn escaped")
		}
	}
}
