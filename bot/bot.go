// © 2013 the CatBase Authors under the WTFPL. See AUTHORS for the list of authors.

package bot

import (
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/velour/crabbase/bot/msg"
	"github.com/velour/crabbase/bot/stats"
	"github.com/velour/crabbase/bot/user"
	"github.com/velour/crabbase/bot/web"
	"github.com/velour/crabbase/config"
)

// bot type provides storage for bot-wide information, configs, and database connections
type bot struct {
	sync.RWMutex

	// Each plugin must be registered in our plugins handler. To come: a map so that this
	// will allow plugins to respond to specific kinds of events
	plugins        map[string]Plugin
	pluginOrdering []string

	// Represents the bot
	me user.User

	config *config.Config

	conn Connector

	callbacks CallbackMap
	helpText  map[string][]string
	prefixers []Prefixer

	stats *stats.Stats
	web   *web.Web
}

// New creates a bot for a given connection and set of handlers.
func New(config *config.Config, connector Connector) Bot {
	me := user.New(config.Get("nick", "crabbase"))

	st := stats.New()
	bot := &bot{
		config:         config,
		plugins:        make(map[string]Plugin),
		pluginOrdering: make([]string, 0),
		conn:           connector,
		me:             me,
		callbacks:      make(CallbackMap),
		helpText:       make(map[string][]string),
		stats:          st,
	}
	bot.web = web.New(config, st, bot.GetPluginNames)

	if connector != nil {
		connector.RegisterEvent(bot.Receive)
	}

	return bot
}

// ListenAndServe starts the bot's web interface. It blocks.
func (b *bot) ListenAndServe() {
	addr := b.config.Get("HttpAddr", "127.0.0.1:1337")
	b.web.ListenAndServe(addr)
}

// Config gets the configuration that the bot is using
func (b *bot) Config() *config.Config {
	return b.config
}

func (b *bot) DB() *sqlx.DB {
	return b.config.DB
}

func (b *bot) DefaultConnector() Connector {
	return b.conn
}

// pluginNameStem turns *crab.CrabPlugin into crab
func pluginNameStem(name string) string {
	return strings.Split(strings.TrimPrefix(name, "*"), ".")[0]
}

// PluginName returns the registry name of a plugin value
func PluginName(p Plugin) string {
	return reflect.TypeOf(p).String()
}

// AddPlugin adds a handler to the bot
func (b *bot) AddPlugin(h Plugin) {
	name := PluginName(h)
	b.Lock()
	defer b.Unlock()
	b.plugins[name] = h
	b.pluginOrdering = append(b.pluginOrdering, name)
}

// GetPluginNames returns the short names of the plugins in dispatch order
func (b *bot) GetPluginNames() []string {
	b.RLock()
	defer b.RUnlock()
	names := []string{}
	for _, name := range b.pluginOrdering {
		names = append(names, pluginNameStem(name))
	}
	return names
}

// CheckAdmin reports whether the ID is in the configured admin list
func (b *bot) CheckAdmin(ID string) bool {
	admins := b.Config().GetArray("Admins", []string{})
	for _, u := range admins {
		if ID == u {
			return true
		}
	}
	return false
}

// RegisterPrefix adds a source of per-server command prefixes
func (b *bot) RegisterPrefix(p Prefixer) {
	b.Lock()
	defer b.Unlock()
	b.prefixers = append(b.prefixers, p)
}

// RegisterWeb mounts a handler on the bot's web interface
func (b *bot) RegisterWeb(r http.Handler, root string) {
	b.web.RegisterWeb(r, root)
}

// RegisterWebName mounts a handler and adds it to the navigation list
func (b *bot) RegisterWebName(r http.Handler, root, name string) {
	b.web.RegisterWebName(r, root, name)
}

// Register a callback
// This function should be considered deprecated.
func (b *bot) Register(p Plugin, kind Kind, cb Callback) {
	r := regexp.MustCompile(`.*`)
	resp := func(r Request) bool {
		return cb(r.Conn, r.Kind, r.Msg, r.Args...)
	}
	b.RegisterRegex(p, kind, r, resp)
}

// RegisterTable registers multiple regex handlers at a time
func (b *bot) RegisterTable(p Plugin, handlers HandlerTable) {
	for _, h := range handlers {
		if h.IsCmd {
			b.RegisterRegexCmd(p, h.Kind, h.Regex, h.Handler)
		} else {
			b.RegisterRegex(p, h.Kind, h.Regex, h.Handler)
		}
		if h.HelpText != "" {
			name := PluginName(p)
			b.Lock()
			b.helpText[name] = append(b.helpText[name], h.HelpText)
			b.Unlock()
		}
	}
}

// RegisterRegex does what register does, but with a matcher
func (b *bot) RegisterRegex(p Plugin, kind Kind, r *regexp.Regexp, resp ResponseHandler) {
	t := PluginName(p)
	cb := func(conn Connector, k Kind, m msg.Message, args ...any) bool {
		if !r.MatchString(m.Body) {
			return false
		}
		return resp(Request{
			Conn:   conn,
			Kind:   k,
			Msg:    m,
			Values: ParseValues(r, m.Body),
			Args:   args,
		})
	}
	b.Lock()
	defer b.Unlock()
	if _, ok := b.callbacks[t]; !ok {
		b.callbacks[t] = make(map[Kind][]Callback)
	}
	b.callbacks[t][kind] = append(b.callbacks[t][kind], cb)
}

// RegisterRegexCmd is a shortcut to filter non-command messages from a registration
func (b *bot) RegisterRegexCmd(p Plugin, kind Kind, r *regexp.Regexp, resp ResponseHandler) {
	newResp := func(req Request) bool {
		if !req.Msg.Command {
			return false
		}
		return resp(req)
	}
	b.RegisterRegex(p, kind, r, newResp)
}

// Send a message to the connection
func (b *bot) Send(conn Connector, kind Kind, args ...any) (string, error) {
	if conn == nil {
		conn = b.conn
	}
	id, err := conn.Send(kind, args...)
	if err != nil {
		log.Error().Err(err).Stringer("kind", kind).Msg("send failed")
		return id, err
	}
	b.stats.MessagesSent.Add(1)
	return id, nil
}

// ParseValues returns the named capture groups of r in body
func ParseValues(r *regexp.Regexp, body string) RegexValues {
	out := RegexValues{}
	subs := r.FindStringSubmatch(body)
	if len(subs) == 0 {
		return out
	}
	for i, n := range r.SubexpNames() {
		if n == "" || i >= len(subs) {
			continue
		}
		out[n] = subs[i]
	}
	return out
}
