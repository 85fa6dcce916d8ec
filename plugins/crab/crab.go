// © 2024 the CatBase Authors under the WTFPL. See AUTHORS for the list of authors.

// Package crab is a catch-the-crab chat game: crabs spawn in a channel
// and the first user to catch one is paid in coins and experience.
package crab

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/velour/crabbase/bot"
	"github.com/velour/crabbase/bot/msg"
	"github.com/velour/crabbase/config"
	"github.com/velour/crabbase/config/store"
	"github.com/velour/crabbase/connectors/discord"
)

type CrabPlugin struct {
	bot bot.Bot
	db  *sqlx.DB
	cfg *config.Config

	store    *Store
	registry *Registry
	snap     *snapshot
	rng      Rand
	table    []Creature

	// mu serializes account read-modify-write cycles
	mu sync.Mutex

	prefixMu sync.RWMutex
	prefixes map[string]string

	cancel context.CancelFunc
}

// New creates a CrabPlugin, restores saved spawns and starts the spawn
// scheduler
func New(b bot.Bot) *CrabPlugin {
	p := newPlugin(b, NewRand(time.Now().UnixNano()), time.Now)

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	interval := time.Duration(p.cfg.GetInt("crab.spawninterval", 180)) * time.Second
	if interval <= 0 {
		interval = 3 * time.Minute
	}
	go p.runScheduler(ctx, interval)

	return p
}

func newPlugin(b bot.Bot, rng Rand, now func() time.Time) *CrabPlugin {
	cfg := b.Config()
	st, err := NewStore(b.DB())
	if err != nil {
		log.Fatal().Err(err).Msg("could not create crab tables")
	}
	ttl := time.Duration(cfg.GetInt("crab.ttl", 600)) * time.Second

	p := &CrabPlugin{
		bot:      b,
		db:       b.DB(),
		cfg:      cfg,
		store:    st,
		rng:      rng,
		table:    Creatures,
		registry: NewRegistry(Creatures, ttl, rng, now),
		prefixes: map[string]string{},
	}

	if ns := cfg.Get("crab.snapshot", ""); ns != "" {
		kv, err := store.New(ns)
		if err != nil {
			log.Error().Err(err).Str("namespace", ns).Msg("spawn snapshots disabled")
		} else {
			p.snap = &snapshot{kv: kv}
			n := p.registry.Restore(p.snap.load())
			log.Info().Int("spawns", n).Msg("restored crab spawns")
		}
	}

	p.register()
	p.registerWeb()
	if d, ok := b.DefaultConnector().(*discord.Discord); ok {
		p.registerSlash(d)
	}
	return p
}

// Stop ends the spawn scheduler
func (p *CrabPlugin) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	if p.snap != nil {
		p.snap.kv.Close()
	}
}

var (
	setupRegex       = regexp.MustCompile(`(?i)^setup(?:\s+(?P<channel>\S+))?$`)
	forgetRegex      = regexp.MustCompile(`(?i)^(?:forget|reset)$`)
	forceSpawnRegex  = regexp.MustCompile(`(?i)^forcespawn(?:\s+(?P<type>.+))?$`)
	catchRegex       = regexp.MustCompile(`(?i)^catch$`)
	coinsRegex       = regexp.MustCompile(`(?i)^coins$`)
	profileRegex     = regexp.MustCompile(`(?i)^profile$`)
	crabsRegex       = regexp.MustCompile(`(?i)^crabs$`)
	inventoryRegex   = regexp.MustCompile(`(?i)^(?:inventory|inv)$`)
	shopRegex        = regexp.MustCompile(`(?i)^shop$`)
	buyRegex         = regexp.MustCompile(`(?i)^buy\s+(?P<item>.+)$`)
	leaderboardRegex = regexp.MustCompile(`(?i)^(?:leaderboard|lb)$`)
	prefixRegex      = regexp.MustCompile(`(?i)^prefix(?:\s+(?P<prefix>.*))?$`)
	keywordRegex     = regexp.MustCompile(`^\S+$`)
	buttonRegex      = regexp.MustCompile(`^` + buttonStem + `(?P<id>\S+)$`)
)

func (p *CrabPlugin) register() {
	ht := bot.HandlerTable{
		{Kind: bot.Message, IsCmd: true, Regex: setupRegex,
			HelpText: "setup [channel]: spawn crabs in this (or the given) channel",
			Handler:  p.inServer(p.isAdmin(p.setupCmd))},
		{Kind: bot.Message, IsCmd: true, Regex: forgetRegex,
			HelpText: "forget: wipe this server's crabs and accounts",
			Handler:  p.inServer(p.isAdmin(p.forgetCmd))},
		{Kind: bot.Message, IsCmd: true, Regex: forceSpawnRegex,
			HelpText: "forcespawn [crab]: spawn a crab right now",
			Handler:  p.inServer(p.isAdmin(p.forceSpawnCmd))},
		{Kind: bot.Message, IsCmd: true, Regex: catchRegex,
			HelpText: "catch: catch the crab in this channel",
			Handler:  p.inServer(p.catchCmd)},
		{Kind: bot.Message, IsCmd: true, Regex: coinsRegex,
			HelpText: "coins: check your balance",
			Handler:  p.inServer(p.coinsCmd)},
		{Kind: bot.Message, IsCmd: true, Regex: profileRegex,
			HelpText: "profile: your level, xp and rank",
			Handler:  p.inServer(p.profileCmd)},
		{Kind: bot.Message, IsCmd: true, Regex: crabsRegex,
			HelpText: "crabs: your crab collection",
			Handler:  p.inServer(p.crabsCmd)},
		{Kind: bot.Message, IsCmd: true, Regex: inventoryRegex,
			HelpText: "inventory: what you've bought",
			Handler:  p.inServer(p.inventoryCmd)},
		{Kind: bot.Message, IsCmd: true, Regex: shopRegex,
			HelpText: "shop: see what's for sale",
			Handler:  p.inServer(p.shopCmd)},
		{Kind: bot.Message, IsCmd: true, Regex: buyRegex,
			HelpText: "buy <item>: buy something from the shop",
			Handler:  p.inServer(p.buyCmd)},
		{Kind: bot.Message, IsCmd: true, Regex: leaderboardRegex,
			HelpText: "leaderboard: top crabbers on this server",
			Handler:  p.inServer(p.leaderboardCmd)},
		{Kind: bot.Message, IsCmd: true, Regex: prefixRegex,
			HelpText: "prefix <new>: change this server's command prefix",
			Handler:  p.inServer(p.isAdmin(p.prefixCmd))},
		{Kind: bot.Message, IsCmd: false, Regex: keywordRegex,
			Handler: p.keywordCmd},
		{Kind: bot.Button, IsCmd: false, Regex: buttonRegex,
			Handler: p.buttonCmd},
	}
	p.bot.RegisterTable(p, ht)
	p.bot.Register(p, bot.Help, p.help)
	p.bot.RegisterPrefix(p.prefix)
}

// reply answers the request in its channel. The request's message rides
// along so connectors can answer an interaction in place.
func (p *CrabPlugin) reply(r bot.Request, text string, extras ...any) {
	args := append([]any{r.Msg.Channel, text}, extras...)
	p.bot.Send(r.Conn, bot.Message, append(args, r.Msg)...)
}

func (p *CrabPlugin) replyErr(r bot.Request, err error) bool {
	p.reply(r, "❌ "+userMessage(err))
	return true
}

// userMessage turns an error into something fit for chat
func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoActiveSpawn):
		return "No crab to catch in this channel right now! Wait for one to spawn."
	case errors.Is(err, ErrAlreadyCaught):
		return "Too slow! That crab was already caught."
	case errors.Is(err, ErrInsufficientFunds):
		detail := strings.TrimSuffix(err.Error(), ": "+ErrInsufficientFunds.Error())
		return "You can't afford that. " + detail + "."
	case errors.Is(err, ErrUnknownItem):
		return "The shop doesn't sell that. Try `shop` to see the list."
	case errors.Is(err, ErrPermissionDenied):
		return "This command is for administrators only!"
	case errors.Is(err, ErrBadPrefix):
		return "A prefix must be 1 to 5 characters with no spaces."
	case errors.Is(err, ErrNotFound):
		return "I couldn't find that."
	}
	return "Something went wrong. Please try again later."
}

func (p *CrabPlugin) name(r bot.Request) string {
	if r.Msg.User == nil {
		return "someone"
	}
	return r.Msg.User.Name
}

func (p *CrabPlugin) inServer(rh bot.ResponseHandler) bot.ResponseHandler {
	return func(r bot.Request) bool {
		if r.Msg.Server == "" || r.Msg.User == nil {
			p.reply(r, "Use this command in a server!")
			return true
		}
		return rh(r)
	}
}

func (p *CrabPlugin) isAdmin(rh bot.ResponseHandler) bot.ResponseHandler {
	return func(r bot.Request) bool {
		if !r.Msg.User.Admin && !p.bot.CheckAdmin(r.Msg.User.ID) {
			log.Debug().Msgf("User %s is not an admin", r.Msg.User.Name)
			return p.replyErr(r, ErrPermissionDenied)
		}
		return rh(r)
	}
}

// prefix is the per-server command prefix source for the bot
func (p *CrabPlugin) prefix(server string) string {
	if server == "" {
		return ""
	}
	p.prefixMu.RLock()
	pre, ok := p.prefixes[server]
	p.prefixMu.RUnlock()
	if ok {
		return pre
	}
	cfg, err := p.store.GetServer(server)
	if err != nil {
		log.Error().Err(err).Str("server", server).Msg("could not load prefix")
		return ""
	}
	p.prefixMu.Lock()
	p.prefixes[server] = cfg.Prefix
	p.prefixMu.Unlock()
	return cfg.Prefix
}

func (p *CrabPlugin) setupCmd(r bot.Request) bool {
	channel := strings.Trim(r.Values["channel"], "<#>")
	if channel == "" {
		channel = r.Msg.Channel
	}
	cfg, err := p.store.GetServer(r.Msg.Server)
	if err != nil {
		log.Error().Err(err).Msg("setup")
		return p.replyErr(r, err)
	}
	cfg.SpawnChannel = channel
	cfg.Enabled = true
	if err := p.store.PutServer(cfg); err != nil {
		log.Error().Err(err).Msg("setup")
		return p.replyErr(r, err)
	}
	log.Info().Str("server", cfg.Server).Str("channel", channel).Msg("crab spawning enabled")
	p.reply(r, "", setupEmbed(channel, cfg.Prefix))
	return true
}

func (p *CrabPlugin) forgetCmd(r bot.Request) bool {
	server := r.Msg.Server
	for _, s := range p.registry.All() {
		if s.Server == server {
			p.snap.drop(s.ID)
		}
	}
	p.registry.Forget(server)
	p.mu.Lock()
	err := p.store.ResetServer(server)
	p.mu.Unlock()
	if err != nil {
		log.Error().Err(err).Str("server", server).Msg("forget")
		return p.replyErr(r, err)
	}
	log.Info().Str("server", server).Msg("crab data reset")
	p.reply(r, "🗑️ All crab data has been reset for this server! Crabs are disabled until someone runs `setup` again.")
	return true
}

func (p *CrabPlugin) forceSpawnCmd(r bot.Request) bool {
	var c *Creature
	if t := r.Values["type"]; t != "" {
		found, ok := FindCreature(p.table, t)
		if !ok {
			return p.replyErr(r, fmt.Errorf("creature %q: %w", t, ErrNotFound))
		}
		c = &found
	}
	_, ok, err := p.spawnIn(r.Conn, r.Msg.Server, r.Msg.Channel, c)
	if err != nil {
		return p.replyErr(r, err)
	}
	if !ok {
		p.reply(r, "⚠️ There is already an active crab in this channel! Catch it first.")
		return true
	}
	p.reply(r, "✅ A crab has been summoned.")
	return true
}

// spawnIn creates and announces a spawn. It reports false without error
// when the channel already has a crab waiting.
func (p *CrabPlugin) spawnIn(conn bot.Connector, server, channel string, c *Creature) (Spawn, bool, error) {
	var s Spawn
	var ok bool
	if c == nil {
		s, ok = p.registry.TrySpawn(server, channel)
	} else {
		s, ok = p.registry.ForceSpawn(server, channel, c)
	}
	if !ok {
		return Spawn{}, false, nil
	}
	fact := crabFacts[p.rng.Intn(len(crabFacts))]
	id, err := p.bot.Send(conn, bot.Message, channel, "", spawnEmbed(s, p.prefix(server), fact), catchButton(s, false))
	if err != nil {
		// nobody can see it, so nobody should be able to catch it
		p.registry.Remove(s.ID)
		return Spawn{}, false, fmt.Errorf("announcing spawn in %s: %w", channel, err)
	}
	p.registry.SetMessageID(s.ID, id)
	s.MessageID = id
	p.snap.save(s)
	log.Debug().Str("server", server).Str("channel", channel).Str("crab", s.Creature.Name).Msg("crab spawned")
	return s, true, nil
}

func (p *CrabPlugin) catchCmd(r bot.Request) bool {
	s, err := p.registry.AttemptCatch(r.Msg.Channel, r.Msg.User.ID)
	return p.finishCatch(r, s, err)
}

// keywordCmd lets a plain message equal to the magic word catch a crab.
// It stays quiet unless it wins, since the word also turns up in ordinary
// chat.
func (p *CrabPlugin) keywordCmd(r bot.Request) bool {
	keyword := p.cfg.Get("crab.keyword", "crab")
	if keyword == "" || !strings.EqualFold(strings.TrimSpace(r.Msg.Body), keyword) {
		return false
	}
	if r.Msg.Server == "" || r.Msg.User == nil {
		return false
	}
	s, err := p.registry.AttemptCatch(r.Msg.Channel, r.Msg.User.ID)
	if errors.Is(err, ErrNoActiveSpawn) || errors.Is(err, ErrAlreadyCaught) {
		return false
	}
	return p.finishCatch(r, s, err)
}

func (p *CrabPlugin) buttonCmd(r bot.Request) bool {
	if r.Msg.User == nil {
		return false
	}
	s, err := p.registry.AttemptCatchID(r.Values["id"], r.Msg.User.ID)
	return p.finishCatch(r, s, err)
}

// finishCatch pays out a won catch. The account is saved before anyone is
// told about it.
func (p *CrabPlugin) finishCatch(r bot.Request, s Spawn, err error) bool {
	if err != nil {
		return p.replyErr(r, err)
	}
	who := p.name(r)
	reward := ComputeReward(s, p.rng)
	acct, leveled, err := p.credit(s, r.Msg.User.ID, who, reward)
	if err != nil {
		log.Error().Err(err).Str("server", s.Server).Str("user", r.Msg.User.ID).Msg("could not save catch")
		p.reply(r, "❌ You caught it, but I couldn't record the catch. Sorry!")
		return true
	}
	p.snap.save(s)
	p.reply(r, "", catchEmbed(who, s, reward, acct, leveled))
	if s.MessageID != "" {
		p.bot.Send(r.Conn, bot.Edit, s.Channel, s.MessageID, "", caughtEmbed(s, who), catchButton(s, true))
	}
	log.Info().
		Str("server", s.Server).
		Str("user", r.Msg.User.ID).
		Str("crab", s.Creature.Name).
		Int("coins", reward.Coins).
		Msg("crab caught")
	return true
}

// credit applies a reward to the catcher's stored account
func (p *CrabPlugin) credit(s Spawn, userID, name string, reward Reward) (Account, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	acct, err := p.store.GetAccount(s.Server, userID)
	if err != nil {
		return acct, false, err
	}
	acct.Name = name
	updated, leveled := ApplyCatch(acct, reward, s.Creature.Name)
	if err := p.store.PutAccount(updated); err != nil {
		return acct, false, err
	}
	return updated, leveled, nil
}

func (p *CrabPlugin) account(r bot.Request) (Account, bool) {
	a, err := p.store.GetAccount(r.Msg.Server, r.Msg.User.ID)
	if err != nil {
		log.Error().Err(err).Msg("could not load account")
		p.replyErr(r, err)
		return a, false
	}
	return a, true
}

func (p *CrabPlugin) coinsCmd(r bot.Request) bool {
	if a, ok := p.account(r); ok {
		p.reply(r, "", coinsEmbed(p.name(r), a))
	}
	return true
}

func (p *CrabPlugin) profileCmd(r bot.Request) bool {
	a, ok := p.account(r)
	if !ok {
		return true
	}
	rank, err := p.store.Rank(a)
	if err != nil {
		log.Error().Err(err).Msg("could not rank account")
		return p.replyErr(r, err)
	}
	p.reply(r, "", profileEmbed(p.name(r), a, rank))
	return true
}

func (p *CrabPlugin) crabsCmd(r bot.Request) bool {
	if a, ok := p.account(r); ok {
		p.reply(r, "", collectionEmbed(p.name(r), a, p.table))
	}
	return true
}

func (p *CrabPlugin) inventoryCmd(r bot.Request) bool {
	if a, ok := p.account(r); ok {
		p.reply(r, "", inventoryEmbed(p.name(r), a))
	}
	return true
}

func (p *CrabPlugin) shopCmd(r bot.Request) bool {
	p.reply(r, "", shopEmbed(p.prefix(r.Msg.Server)))
	return true
}

func (p *CrabPlugin) buyCmd(r bot.Request) bool {
	p.mu.Lock()
	a, err := p.store.GetAccount(r.Msg.Server, r.Msg.User.ID)
	if err != nil {
		p.mu.Unlock()
		log.Error().Err(err).Msg("buy")
		return p.replyErr(r, err)
	}
	a.Name = p.name(r)
	updated, item, err := Purchase(a, r.Values["item"])
	if err != nil {
		p.mu.Unlock()
		return p.replyErr(r, err)
	}
	err = p.store.PutAccount(updated)
	p.mu.Unlock()
	if err != nil {
		log.Error().Err(err).Msg("buy")
		return p.replyErr(r, err)
	}
	p.reply(r, fmt.Sprintf("🛒 You bought %s %s for %d coins. You have %d coins left.",
		item.Emoji, item.Name, item.Price, updated.Coins))
	return true
}

func (p *CrabPlugin) leaderboardCmd(r bot.Request) bool {
	top, err := p.store.TopAccounts(r.Msg.Server, p.cfg.GetInt("crab.leaderboard.size", 10))
	if err != nil {
		log.Error().Err(err).Msg("leaderboard")
		return p.replyErr(r, err)
	}
	p.reply(r, "", leaderboardEmbed(top))
	return true
}

// validPrefix allows 1 to 5 runes and no whitespace
func validPrefix(pre string) error {
	n := utf8.RuneCountInString(pre)
	if n < 1 || n > 5 || strings.IndexFunc(pre, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%q: %w", pre, ErrBadPrefix)
	}
	return nil
}

func (p *CrabPlugin) prefixCmd(r bot.Request) bool {
	pre := strings.TrimSpace(r.Values["prefix"])
	cfg, err := p.store.GetServer(r.Msg.Server)
	if err != nil {
		log.Error().Err(err).Msg("prefix")
		return p.replyErr(r, err)
	}
	if pre == "" {
		p.reply(r, fmt.Sprintf("This server's prefix is `%s`.", cfg.Prefix))
		return true
	}
	if err := validPrefix(pre); err != nil {
		return p.replyErr(r, err)
	}
	cfg.Prefix = pre
	if err := p.store.PutServer(cfg); err != nil {
		log.Error().Err(err).Msg("prefix")
		return p.replyErr(r, err)
	}
	p.prefixMu.Lock()
	p.prefixes[cfg.Server] = pre
	p.prefixMu.Unlock()
	p.reply(r, fmt.Sprintf("✅ Prefix changed to `%s`.", pre))
	return true
}

// help responds to help requests. Every plugin must implement a help function.
func (p *CrabPlugin) help(c bot.Connector, kind bot.Kind, message msg.Message, args ...any) bool {
	pre := p.prefix(message.Server)
	if pre == "" {
		pre = p.cfg.Get("commandchar", "!")
	}
	p.bot.Send(c, bot.Message, message.Channel, "", helpEmbed(pre), message)
	return true
}
