// © 2013 the CatBase Authors under the WTFPL. See AUTHORS for the list of authors.

package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/velour/crabbase/bot/msg"
)

// Receive is the connectors' entry point. It returns true when a plugin
// handled the event.
func (b *bot) Receive(conn Connector, kind Kind, m msg.Message, args ...any) bool {
	log.Debug().
		Stringer("kind", kind).
		Str("channel", m.Channel).
		Str("server", m.Server).
		Msgf("received: %s", m.Body)
	b.stats.MessagesRcv.Add(1)

	if m.Time.IsZero() {
		m.Time = time.Now()
	}

	if kind == Message {
		m = b.parseCommand(m)
		if m.Command && (m.Body == "help" || strings.HasPrefix(m.Body, "help ")) {
			b.checkHelp(conn, m, strings.Fields(strings.ToLower(m.Body)))
			return true
		}
	}

	b.RLock()
	ordering := append([]string{}, b.pluginOrdering...)
	b.RUnlock()
	for _, name := range ordering {
		if b.runCallback(conn, name, kind, m, args...) {
			return true
		}
	}
	return false
}

func (b *bot) runCallback(conn Connector, plugin string, evt Kind, message msg.Message, args ...any) bool {
	b.RLock()
	cbs := b.callbacks[plugin][evt]
	b.RUnlock()
	for _, cb := range cbs {
		if cb(conn, evt, message, args...) {
			return true
		}
	}
	return false
}

// prefixes lists the prefixes that mark a command in server. A server
// prefix replaces the global commandchar list rather than adding to it.
func (b *bot) prefixes(server string) []string {
	b.RLock()
	prefixers := b.prefixers
	b.RUnlock()
	if server != "" {
		for _, p := range prefixers {
			if pre := p(server); pre != "" {
				return []string{pre}
			}
		}
	}
	return b.config.GetArray("CommandChar", []string{"!"})
}

// parseCommand strips a command prefix or an address to the bot's nick
// from the body and marks the message as a command
func (b *bot) parseCommand(m msg.Message) msg.Message {
	body := strings.TrimSpace(m.Body)
	if m.IsIM {
		m.Command = true
	}
	for _, pre := range b.prefixes(m.Server) {
		if strings.HasPrefix(body, pre) {
			body = strings.TrimSpace(strings.TrimPrefix(body, pre))
			m.Command = true
			break
		}
	}
	nick := strings.ToLower(b.me.Name)
	lower := strings.ToLower(body)
	for _, sep := range []string{":", ","} {
		if nick != "" && strings.HasPrefix(lower, nick+sep) {
			body = strings.TrimSpace(body[len(nick)+1:])
			m.Command = true
			break
		}
	}
	m.Body = body
	return m
}

// checkHelp answers "help" with the first plugin help that responds, or
// the topic list when none does, and "help <plugin>" with that plugin's
// own help
func (b *bot) checkHelp(conn Connector, m msg.Message, parts []string) {
	if len(parts) == 1 {
		b.RLock()
		ordering := append([]string{}, b.pluginOrdering...)
		b.RUnlock()
		for _, name := range ordering {
			if b.runCallback(conn, name, Help, m, parts) {
				return
			}
		}
		topics := fmt.Sprintf("Help topics: about, %s", strings.Join(b.GetPluginNames(), ", "))
		b.Send(conn, Message, m.Channel, topics)
		return
	}
	if parts[1] == "about" {
		b.Send(conn, Message, m.Channel, fmt.Sprintf(
			"Hi, I'm %s. I'm written in Go and I hand out crabs.", b.me.Name))
		return
	}
	b.RLock()
	var target string
	for _, name := range b.pluginOrdering {
		if pluginNameStem(name) == parts[1] {
			target = name
		}
	}
	b.RUnlock()
	if target == "" {
		b.Send(conn, Message, m.Channel, fmt.Sprintf("I'm sorry, I don't know what %s is!", parts[1]))
		return
	}
	if b.runCallback(conn, target, Help, m, parts) {
		return
	}
	b.RLock()
	texts := b.helpText[target]
	b.RUnlock()
	if len(texts) == 0 {
		b.Send(conn, Message, m.Channel, fmt.Sprintf("%s has no help, sorry.", parts[1]))
		return
	}
	b.Send(conn, Message, m.Channel, strings.Join(texts, "\n"))
}
