// © 2013 the CatBase Authors under the WTFPL. See AUTHORS for the list of authors.

package msg

import (
	"time"

	"github.com/velour/crabbase/bot/user"
)

type Messages []Message

type Message struct {
	ID   string
	User *user.User
	// Channel is the ID of a channel
	Channel string
	// Server is the guild the channel belongs to, empty for direct messages
	Server string
	Body   string
	IsIM   bool
	// Raw is the connector's own representation of the event, if any
	Raw            any
	Command        bool
	Time           time.Time
	AdditionalData map[string]string
}
