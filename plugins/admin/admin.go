// © 2013 the CatBase Authors under the WTFPL license. See AUTHORS for the list of authors.

package admin

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/velour/crabbase/bot"
	"github.com/velour/crabbase/bot/msg"
	"github.com/velour/crabbase/config"
)

// AdminPlugin lets bot admins read and change config from chat.
type AdminPlugin struct {
	bot bot.Bot
	db  *sqlx.DB
	cfg *config.Config
}

// New creates a new AdminPlugin with the Plugin interface
func New(b bot.Bot) *AdminPlugin {
	p := &AdminPlugin{
		bot: b,
		db:  b.DB(),
		cfg: b.Config(),
	}

	b.RegisterRegexCmd(p, bot.Message, getPluginsRegex, p.isAdmin(p.getPluginsCmd))
	b.RegisterRegexCmd(p, bot.Message, unsetConfigRegex, p.isAdmin(p.guarded(p.unsetConfigCmd)))
	b.RegisterRegexCmd(p, bot.Message, setConfigRegex, p.isAdmin(p.guarded(p.setConfigCmd)))
	b.RegisterRegexCmd(p, bot.Message, pushConfigRegex, p.isAdmin(p.guarded(p.pushConfigCmd)))
	b.RegisterRegexCmd(p, bot.Message, setKeyConfigRegex, p.isAdmin(p.guarded(p.setKeyConfigCmd)))
	b.RegisterRegexCmd(p, bot.Message, getConfigRegex, p.isAdmin(p.guarded(p.getConfigCmd)))

	b.Register(p, bot.Help, p.help)

	return p
}

var forbiddenKeys = map[string]bool{
	"discordbottoken": true,
	"discord.guildid": true,
	"admins":          true,
}

var getPluginsRegex = regexp.MustCompile(`(?i)^list plugins$`)

var unsetConfigRegex = regexp.MustCompile(`(?i)^unset (?P<key>\S+)$`)
var setConfigRegex = regexp.MustCompile(`(?i)^set (?P<key>\S+) (?P<value>.*)$`)
var pushConfigRegex = regexp.MustCompile(`(?i)^push (?P<key>\S+) (?P<value>.*)$`)
var setKeyConfigRegex = regexp.MustCompile(`(?i)^setkey (?P<key>\S+) (?P<name>\S+) (?P<value>.*)$`)
var getConfigRegex = regexp.MustCompile(`(?i)^get (?P<key>\S+)$`)

func (p *AdminPlugin) isAdmin(rh bot.ResponseHandler) bot.ResponseHandler {
	return func(r bot.Request) bool {
		if r.Msg.User == nil || !(r.Msg.User.Admin || p.bot.CheckAdmin(r.Msg.User.ID)) {
			log.Debug().Msgf("User %v is not an admin", r.Msg.User)
			return false
		}
		return rh(r)
	}
}

func forbidden(key string) bool {
	return forbiddenKeys[strings.ToLower(key)]
}

func (p *AdminPlugin) getPluginsCmd(r bot.Request) bool {
	plugins := p.bot.GetPluginNames()
	p.bot.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("Plugins: %v", plugins))
	return true
}

// guarded refuses secret keys before rh ever sees them
func (p *AdminPlugin) guarded(rh bot.ResponseHandler) bot.ResponseHandler {
	return func(r bot.Request) bool {
		if forbidden(r.Values["key"]) {
			p.bot.Send(r.Conn, bot.Message, r.Msg.Channel, "You cannot access that key")
			return true
		}
		return rh(r)
	}
}

// numericKeys are game tunables that must parse before they are stored
var numericKeys = map[string]func(float64) bool{
	"crab.spawninterval":    func(v float64) bool { return v >= 1 },
	"crab.spawnchance":      func(v float64) bool { return v >= 0 && v <= 1 },
	"crab.ttl":              func(v float64) bool { return v >= 1 },
	"crab.leaderboard.size": func(v float64) bool { return v >= 1 && v <= 100 },
	"bot.httprate.requests": func(v float64) bool { return v >= 0 },
	"bot.httprate.seconds":  func(v float64) bool { return v >= 0 },
}

func checkValue(key, value string) error {
	ok, known := numericKeys[strings.ToLower(key)]
	if !known {
		return nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || !ok(v) {
		return fmt.Errorf("%q is not a valid value for %s", value, key)
	}
	return nil
}

func (p *AdminPlugin) unsetConfigCmd(r bot.Request) bool {
	key := r.Values["key"]
	if err := p.cfg.Unset(key); err != nil {
		p.bot.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("Unset error: %s", err))
		return true
	}
	p.bot.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("Unset %s", key))
	return true
}

func (p *AdminPlugin) setConfigCmd(r bot.Request) bool {
	key, value := r.Values["key"], r.Values["value"]
	if err := checkValue(key, value); err != nil {
		p.bot.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("Set error: %s", err))
		return true
	}
	if err := p.cfg.Set(key, value); err != nil {
		p.bot.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("Set error: %s", err))
		return true
	}
	log.Info().Str("key", key).Str("user", r.Msg.User.Name).Msg("config set")
	p.bot.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("Set %s", key))
	return true
}

func (p *AdminPlugin) pushConfigCmd(r bot.Request) bool {
	key := r.Values["key"]
	items := append(p.cfg.GetArray(key, []string{}), r.Values["value"])
	if err := p.cfg.SetArray(key, items); err != nil {
		p.bot.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("Set error: %s", err))
		return true
	}
	p.bot.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("%s now has %d entries", key, len(items)))
	return true
}

func (p *AdminPlugin) setKeyConfigCmd(r bot.Request) bool {
	key := r.Values["key"]
	items := p.cfg.GetMap(key, map[string]string{})
	items[r.Values["name"]] = r.Values["value"]
	if err := p.cfg.SetMap(key, items); err != nil {
		p.bot.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("Set error: %s", err))
		return true
	}
	p.bot.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("Set %s.%s", key, r.Values["name"]))
	return true
}

func (p *AdminPlugin) getConfigCmd(r bot.Request) bool {
	key := r.Values["key"]
	v := p.cfg.Get(key, "<unknown>")
	p.bot.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("%s: %s", key, v))
	return true
}

// Help responds to help requests. Every plugin must implement a help function.
func (p *AdminPlugin) help(conn bot.Connector, kind bot.Kind, m msg.Message, args ...any) bool {
	p.bot.Send(conn, bot.Message, m.Channel,
		"Admins can `get`, `set`, `unset`, `push` and `setkey` config values, or `list plugins`.")
	return true
}
