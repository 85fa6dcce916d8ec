package admin

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/velour/crabbase/bot"
	"github.com/velour/crabbase/bot/msg"
	"github.com/velour/crabbase/bot/user"
	"github.com/velour/crabbase/plugins/cli"
)

func setup(t *testing.T) (*AdminPlugin, *bot.MockBot) {
	mb := bot.NewMockBot()
	a := New(mb)
	err := mb.Config().Set("admins", "tester")
	if err != nil {
		t.FailNow()
	}
	return a, mb
}

func makeMessage(payload string, r *regexp.Regexp) bot.Request {
	isCmd := strings.HasPrefix(payload, "!")
	if isCmd {
		payload = payload[1:]
	}
	c := cli.CliPlugin{}
	values := bot.ParseValues(r, payload)
	return bot.Request{
		Conn:   &c,
		Kind:   bot.Message,
		Values: values,
		Msg: msg.Message{
			User:    &user.User{ID: "tester", Name: "admin"},
			Channel: "test",
			Body:    payload,
			Command: isCmd,
		},
	}
}

func TestSet(t *testing.T) {
	a, mb := setup(t)
	expected := "test value"
	a.setConfigCmd(makeMessage("!set test.key "+expected, setConfigRegex))
	actual := mb.Config().Get("test.key", "ERR")
	assert.Equal(t, expected, actual)
}

func TestSetNeedsAdmin(t *testing.T) {
	a, mb := setup(t)
	req := makeMessage("!set crab.ttl 1", setConfigRegex)
	req.Msg.User.ID = "nobody"
	assert.False(t, a.isAdmin(a.setConfigCmd)(req))
	assert.Equal(t, 600, mb.Config().GetInt("crab.ttl", 600))
	assert.Empty(t, mb.Messages)
}

func TestGetValue(t *testing.T) {
	a, mb := setup(t)
	expected := "value"
	mb.Config().Set("test.key", "value")
	a.getConfigCmd(makeMessage("!get test.key", getConfigRegex))
	assert.Len(t, mb.Messages, 1)
	assert.Contains(t, mb.Messages[0], expected)
}

func TestGetEmpty(t *testing.T) {
	a, mb := setup(t)
	expected := "test.key: <unknown>"
	a.getConfigCmd(makeMessage("!get test.key", getConfigRegex))
	assert.Len(t, mb.Messages, 1)
	assert.Equal(t, expected, mb.Messages[0])
}

func TestGetForbidden(t *testing.T) {
	a, mb := setup(t)
	expected := "cannot access"
	a.guarded(a.getConfigCmd)(makeMessage("!get DISCORDBOTTOKEN", getConfigRegex))
	assert.Len(t, mb.Messages, 1)
	assert.Contains(t, mb.Messages[0], expected)
}

func TestPush(t *testing.T) {
	a, mb := setup(t)
	a.pushConfigCmd(makeMessage("!push commandchar ?", pushConfigRegex))
	a.pushConfigCmd(makeMessage("!push commandchar %", pushConfigRegex))
	assert.Equal(t, []string{"?", "%"}, mb.Config().GetArray("commandchar", nil))
}

func TestSetKey(t *testing.T) {
	a, mb := setup(t)
	a.setKeyConfigCmd(makeMessage("!setkey crab.names srv Crab Shack", setKeyConfigRegex))
	assert.Equal(t, map[string]string{"srv": "Crab Shack"}, mb.Config().GetMap("crab.names", nil))
}

func TestUnset(t *testing.T) {
	a, mb := setup(t)
	mb.Config().Set("test.key", "value")
	a.unsetConfigCmd(makeMessage("!unset test.key", unsetConfigRegex))
	assert.Equal(t, "gone", mb.Config().Get("test.key", "gone"))
}

func TestSetForbidden(t *testing.T) {
	a, mb := setup(t)
	a.guarded(a.setConfigCmd)(makeMessage("!set admins everyone", setConfigRegex))
	assert.Contains(t, mb.LastMessage(), "cannot access")
	assert.Equal(t, []string{"tester"}, mb.Config().GetArray("admins", nil))
}

func TestSetChecksCrabTuning(t *testing.T) {
	a, mb := setup(t)
	a.setConfigCmd(makeMessage("!set crab.spawnchance 1.5", setConfigRegex))
	assert.Contains(t, mb.LastMessage(), "not a valid value")
	assert.Equal(t, "unset", mb.Config().Get("crab.spawnchance", "unset"))

	a.setConfigCmd(makeMessage("!set crab.spawnchance lots", setConfigRegex))
	assert.Contains(t, mb.LastMessage(), "not a valid value")

	a.setConfigCmd(makeMessage("!set crab.spawnchance 0.25", setConfigRegex))
	assert.Equal(t, 0.25, mb.Config().GetFloat64("crab.spawnchance", 0))
	assert.Equal(t, "Set crab.spawnchance", mb.LastMessage())
}
