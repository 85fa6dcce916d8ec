package crab

import (
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/velour/crabbase/bot"
	"github.com/velour/crabbase/bot/msg"
	"github.com/velour/crabbase/bot/user"
	"github.com/velour/crabbase/plugins/cli"
)

// seqRand replays fixed draws; Intn results are taken modulo n
type seqRand struct {
	mu     sync.Mutex
	ints   []int
	floats []float64
}

func (s *seqRand) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v % n
}

func (s *seqRand) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func makePlugin(t *testing.T, rng Rand) (*CrabPlugin, *bot.MockBot, *fakeClock) {
	mb := bot.NewMockBot()
	clock := newClock()
	p := newPlugin(mb, rng, clock.Now)
	return p, mb, clock
}

func makeRequest(payload string, r *regexp.Regexp, who string, admin bool) bot.Request {
	c := &cli.CliPlugin{}
	m := msg.Message{
		User:    &user.User{ID: who, Name: who, Admin: admin},
		Channel: "test",
		Server:  "srv",
		Body:    payload,
		Command: true,
	}
	return bot.Request{
		Conn:   c,
		Kind:   bot.Message,
		Msg:    m,
		Values: bot.ParseValues(r, payload),
	}
}
