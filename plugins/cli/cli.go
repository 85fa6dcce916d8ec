// © 2013 the CatBase Authors under the WTFPL. See AUTHORS for the list of authors.

package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/velour/crabbase/bot"
	"github.com/velour/crabbase/bot/msg"
	"github.com/velour/crabbase/bot/user"
)

// clickPrefix lets a terminal user press a button by its id
const clickPrefix = "/click "

// CliPlugin is a line based connector for local play and for tests.
// The zero value discards output and serves nothing.
type CliPlugin struct {
	in   io.Reader
	out  io.Writer
	user user.User

	event bot.Callback

	mu      sync.Mutex
	counter int
}

func New(in io.Reader, out io.Writer, userName string) *CliPlugin {
	return &CliPlugin{
		in:  in,
		out: out,
		user: user.User{
			ID:    userName,
			Name:  userName,
			Admin: true,
		},
	}
}

func (p *CliPlugin) RegisterEvent(cb bot.Callback) {
	p.event = cb
}

func (p *CliPlugin) Send(kind bot.Kind, args ...any) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := fmt.Sprintf("%d", p.counter)
	p.counter++
	if p.out == nil {
		return id, nil
	}
	var text string
	switch kind {
	case bot.Message, bot.Action:
		text = bot.Render(args[1].(string), args[2:]...)
	case bot.Edit:
		text = fmt.Sprintf("(edit %s) %s", args[1], bot.Render(args[2].(string), args[3:]...))
	default:
		return "", fmt.Errorf("unknown message type")
	}
	_, err := fmt.Fprintln(p.out, text)
	return id, err
}

// Serve reads lines until the input closes
func (p *CliPlugin) Serve() error {
	if p.in == nil {
		return nil
	}
	scanner := bufio.NewScanner(p.in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || p.event == nil {
			continue
		}
		kind := bot.Kind(bot.Message)
		if strings.HasPrefix(line, clickPrefix) {
			kind = bot.Button
			line = strings.TrimPrefix(line, clickPrefix)
		}
		u := p.user
		p.event(p, kind, msg.Message{
			User:    &u,
			Channel: "cli",
			Server:  "cli",
			Body:    line,
			Time:    time.Now(),
		})
	}
	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("cli input failed")
		return err
	}
	return nil
}

func (p *CliPlugin) Profile(name string) (user.User, error) {
	return user.User{ID: name, Name: name}, nil
}

func (p *CliPlugin) Close() error { return nil }
