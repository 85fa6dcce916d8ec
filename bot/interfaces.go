// © 2016 the CatBase Authors under the WTFPL license. See AUTHORS for the list of authors.

package bot

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/velour/crabbase/bot/msg"
	"github.com/velour/crabbase/bot/user"
	"github.com/velour/crabbase/config"
)

const (
	_ = iota

	// Message any standard chat
	Message
	// Action any /me action
	Action
	// Edit message ref'd new message to replace
	Edit
	// Event is a platform notification that is not a chat message
	Event
	// Help is used when the bot help system is triggered
	Help
	// SelfMessage triggers when the bot is sending a message
	SelfMessage
	// Button is a click on a message component; the body is the component id
	Button
)

type Kind int

func (k Kind) String() string {
	switch k {
	case Message:
		return "Message"
	case Action:
		return "Action"
	case Edit:
		return "Edit"
	case Event:
		return "Event"
	case Help:
		return "Help"
	case SelfMessage:
		return "SelfMessage"
	case Button:
		return "Button"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

type Callback func(Connector, Kind, msg.Message, ...any) bool
type ResponseHandler func(Request) bool
type CallbackMap map[string]map[Kind][]Callback

type Request struct {
	Conn   Connector
	Kind   Kind
	Msg    msg.Message
	Values RegexValues
	Args   []any
}

type RegexValues map[string]string

type HandlerSpec struct {
	Kind     Kind
	IsCmd    bool
	Regex    *regexp.Regexp
	HelpText string
	Handler  ResponseHandler
}
type HandlerTable []HandlerSpec

// Prefixer reports the command prefix a server has chosen, or "" for none
type Prefixer func(server string) string

// Bot interface serves to allow mocking of the actual bot
type Bot interface {
	// Config allows access to the bot's configuration system
	Config() *config.Config

	// DB gives access to the current database
	DB() *sqlx.DB

	// AddPlugin registers a new plugin handler
	AddPlugin(Plugin)

	// Send transmits a message to a Connector.
	// Kind is listed in the bot's enum, one of bot.Message/Action/Edit/etc
	// Usually, the first vararg should be a channel ID, but refer to the Connector for info
	Send(Connector, Kind, ...any) (string, error)

	// Receive is called by connectors; it dispatches to every registered handler
	Receive(Connector, Kind, msg.Message, ...any) bool

	// Register a plugin callback
	// Kind will be matched to the event for the callback
	Register(Plugin, Kind, Callback)

	// RegisterTable registers multiple regex handlers at a time
	RegisterTable(Plugin, HandlerTable)

	// RegisterRegex registers a callback for messages matching the regex
	RegisterRegex(Plugin, Kind, *regexp.Regexp, ResponseHandler)

	// RegisterRegexCmd is a shortcut to filter non-command messages from a registration
	RegisterRegexCmd(Plugin, Kind, *regexp.Regexp, ResponseHandler)

	// RegisterPrefix adds a per-server command prefix source
	RegisterPrefix(Prefixer)

	// RegisterWeb records a web endpoint for the UI
	RegisterWeb(http.Handler, string)

	// RegisterWebName records a web endpoint for the UI with a nav name
	RegisterWebName(http.Handler, string, string)

	// DefaultConnector returns the base connector, which may not be the only connector
	DefaultConnector() Connector

	// CheckAdmin returns true if the user ID is listed as an admin
	CheckAdmin(string) bool

	// GetPluginNames returns an ordered list of registered plugins
	GetPluginNames() []string

	// ListenAndServe runs the web interface until it fails
	ListenAndServe()
}

// Connector represents a server connection to a chat service
type Connector interface {
	// RegisterEvent creates a callback to watch Connector events
	RegisterEvent(Callback)

	// Send transmits a message on the connector
	Send(Kind, ...any) (string, error)

	// Serve starts a connector's connection routine
	Serve() error

	// Profile returns a user's information given an ID
	Profile(string) (user.User, error)

	// Close shuts the connection down
	Close() error
}

// Plugin interface used for compatibility with the Plugin interface
// Probably can disappear once RegisterWeb gets inverted
type Plugin any

// EmbedField is one name/value row of an Embed
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// Embed is a rich message. Connectors that cannot draw one get Text().
type Embed struct {
	Title       string
	Description string
	Color       int
	Thumbnail   string
	Footer      string
	Fields      []EmbedField
}

// Text renders the embed as plain lines
func (e Embed) Text() string {
	lines := []string{}
	if e.Title != "" {
		lines = append(lines, e.Title)
	}
	if e.Description != "" {
		lines = append(lines, e.Description)
	}
	for _, f := range e.Fields {
		lines = append(lines, fmt.Sprintf("%s: %s", f.Name, f.Value))
	}
	if e.Footer != "" {
		lines = append(lines, e.Footer)
	}
	return strings.Join(lines, "\n")
}

// ButtonSpec attaches a clickable component to a message.
// A click comes back through Receive as a Button kind with ID as the body.
type ButtonSpec struct {
	ID       string
	Label    string
	Emoji    string
	Disabled bool
}

// Render flattens a message body and its extras into text for connectors
// without rich formatting
func Render(body string, extras ...any) string {
	out := []string{}
	if body != "" {
		out = append(out, body)
	}
	for _, e := range extras {
		switch e := e.(type) {
		case Embed:
			out = append(out, e.Text())
		case ButtonSpec:
			out = append(out, fmt.Sprintf("[%s %s]", e.Emoji, e.Label))
		}
	}
	return strings.Join(out, "\n")
}
