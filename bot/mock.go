// © 2016 the CatBase Authors under the WTFPL license. See AUTHORS for the list of authors.

package bot

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/velour/crabbase/bot/msg"
	"github.com/velour/crabbase/config"
)

type MockBot struct {
	mock.Mock
	sync.Mutex
	db *sqlx.DB

	Cfg *config.Config

	Messages []string
	Actions  []string
	Extras   [][]any
	Edits    []string

	prefixers []Prefixer
}

func (mb *MockBot) Config() *config.Config                      { return mb.Cfg }
func (mb *MockBot) DB() *sqlx.DB                                { return mb.db }
func (mb *MockBot) DefaultConnector() Connector                 { return nil }
func (mb *MockBot) GetPluginNames() []string                    { return []string{} }
func (mb *MockBot) AddPlugin(f Plugin)                          {}
func (mb *MockBot) ListenAndServe()                             {}
func (mb *MockBot) RegisterWeb(_ http.Handler, _ string)        {}
func (mb *MockBot) RegisterWebName(_ http.Handler, _, _ string) {}

// Send records the rendered text of a message for later assertions
func (mb *MockBot) Send(c Connector, kind Kind, args ...any) (string, error) {
	mb.Lock()
	defer mb.Unlock()
	text := ""
	extras := []any{}
	for i, a := range args {
		if i == 0 {
			// channel
			continue
		}
		if s, ok := a.(string); ok && text == "" {
			text = s
			continue
		}
		extras = append(extras, a)
	}
	rendered := Render(text, extras...)
	switch kind {
	case Message:
		mb.Messages = append(mb.Messages, rendered)
		mb.Extras = append(mb.Extras, extras)
		return fmt.Sprintf("m-%d", len(mb.Messages)-1), nil
	case Action:
		mb.Actions = append(mb.Actions, rendered)
		return fmt.Sprintf("a-%d", len(mb.Actions)-1), nil
	case Edit:
		mb.Edits = append(mb.Edits, rendered)
		return "", nil
	}
	return "ERR", fmt.Errorf("message type unhandled")
}

func (mb *MockBot) Receive(c Connector, k Kind, m msg.Message, args ...any) bool {
	return false
}
func (mb *MockBot) Register(p Plugin, kind Kind, cb Callback)                              {}
func (mb *MockBot) RegisterTable(p Plugin, hs HandlerTable)                                {}
func (mb *MockBot) RegisterRegex(p Plugin, k Kind, r *regexp.Regexp, h ResponseHandler)    {}
func (mb *MockBot) RegisterRegexCmd(p Plugin, k Kind, r *regexp.Regexp, h ResponseHandler) {}

func (mb *MockBot) RegisterPrefix(p Prefixer) {
	mb.prefixers = append(mb.prefixers, p)
}

// Prefix asks the registered prefixers for a server's prefix
func (mb *MockBot) Prefix(server string) string {
	for _, p := range mb.prefixers {
		if pre := p(server); pre != "" {
			return pre
		}
	}
	return ""
}

func (mb *MockBot) CheckAdmin(nick string) bool {
	for _, a := range mb.Cfg.GetArray("admins", []string{}) {
		if strings.EqualFold(a, nick) {
			return true
		}
	}
	return false
}

// LastMessage is the most recent Message kind send, or ""
func (mb *MockBot) LastMessage() string {
	mb.Lock()
	defer mb.Unlock()
	if len(mb.Messages) == 0 {
		return ""
	}
	return mb.Messages[len(mb.Messages)-1]
}

func NewMockBot() *MockBot {
	cfg := config.ReadConfig(":memory:")
	b := MockBot{
		db:       cfg.DB,
		Cfg:      cfg,
		Messages: make([]string, 0),
		Actions:  make([]string, 0),
	}
	return &b
}
