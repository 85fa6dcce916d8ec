package crab

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/velour/crabbase/bot"
	"github.com/velour/crabbase/bot/msg"
)

func TestCatchEndToEnd(t *testing.T) {
	rng := &seqRand{ints: []int{0, 99, 2}}
	p, mb, _ := makePlugin(t, rng)

	assert.True(t, p.forceSpawnCmd(makeRequest("forcespawn common", forceSpawnRegex, "admin", true)))
	assert.Contains(t, mb.Messages[0], "A wild Common Crab appeared!")
	assert.Contains(t, mb.Messages[0], "Catch Crab!")
	assert.Contains(t, mb.LastMessage(), "summoned")

	assert.True(t, p.catchCmd(makeRequest("catch", catchRegex, "alice", false)))
	assert.Contains(t, mb.LastMessage(), "alice caught a Common Crab!")
	assert.Contains(t, mb.LastMessage(), "Total Earned:** 105 coins")

	assert.True(t, p.catchCmd(makeRequest("catch", catchRegex, "bob", false)))
	assert.Contains(t, mb.LastMessage(), "already caught")

	alice, err := p.store.GetAccount("srv", "alice")
	assert.Nil(t, err)
	assert.Equal(t, 1, alice.TotalCaught)
	assert.Equal(t, 105, alice.Coins)
	assert.Equal(t, 3, alice.XP)
	assert.Equal(t, 1, alice.Collection["Common Crab"])

	bob, _ := p.store.GetAccount("srv", "bob")
	assert.Equal(t, 0, bob.TotalCaught)
	assert.Equal(t, 0, bob.Coins)

	assert.Len(t, mb.Edits, 1)
	assert.Contains(t, mb.Edits[0], "caught by alice")
}

func TestCatchWithNothingThere(t *testing.T) {
	p, mb, _ := makePlugin(t, &seqRand{})
	assert.True(t, p.catchCmd(makeRequest("catch", catchRegex, "alice", false)))
	assert.Contains(t, mb.LastMessage(), "No crab to catch")
}

func TestForceSpawnOnePerChannel(t *testing.T) {
	p, mb, _ := makePlugin(t, &seqRand{})
	p.forceSpawnCmd(makeRequest("forcespawn", forceSpawnRegex, "admin", true))
	p.forceSpawnCmd(makeRequest("forcespawn", forceSpawnRegex, "admin", true))
	assert.Contains(t, mb.LastMessage(), "already an active crab")
	assert.Len(t, p.registry.All(), 1)
}

func TestForceSpawnUnknownCrab(t *testing.T) {
	p, mb, _ := makePlugin(t, &seqRand{})
	p.forceSpawnCmd(makeRequest("forcespawn lobster", forceSpawnRegex, "admin", true))
	assert.Contains(t, mb.LastMessage(), "couldn't find")
	assert.Empty(t, p.registry.All())
}

func TestAdminCommandsNeedAdmin(t *testing.T) {
	p, mb, _ := makePlugin(t, &seqRand{})
	setup := p.inServer(p.isAdmin(p.setupCmd))
	assert.True(t, setup(makeRequest("setup", setupRegex, "pleb", false)))
	assert.Contains(t, mb.LastMessage(), "administrators only")
	cfg, _ := p.store.GetServer("srv")
	assert.False(t, cfg.Enabled)

	mb.Cfg.SetArray("admins", []string{"boss"})
	assert.True(t, setup(makeRequest("setup", setupRegex, "boss", false)))
	cfg, _ = p.store.GetServer("srv")
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "test", cfg.SpawnChannel)
	assert.Contains(t, mb.LastMessage(), "Setup Complete")
}

func TestSetupWithChannel(t *testing.T) {
	p, _, _ := makePlugin(t, &seqRand{})
	p.setupCmd(makeRequest("setup <#12345>", setupRegex, "admin", true))
	cfg, _ := p.store.GetServer("srv")
	assert.Equal(t, "12345", cfg.SpawnChannel)
}

func TestNeedsServer(t *testing.T) {
	p, mb, _ := makePlugin(t, &seqRand{})
	r := makeRequest("coins", coinsRegex, "alice", false)
	r.Msg.Server = ""
	assert.True(t, p.inServer(p.coinsCmd)(r))
	assert.Contains(t, mb.LastMessage(), "in a server")
}

func TestForgetCommand(t *testing.T) {
	p, mb, _ := makePlugin(t, &seqRand{})
	p.setupCmd(makeRequest("setup", setupRegex, "admin", true))
	p.forceSpawnCmd(makeRequest("forcespawn", forceSpawnRegex, "admin", true))
	p.catchCmd(makeRequest("catch", catchRegex, "alice", false))

	assert.True(t, p.forgetCmd(makeRequest("forget", forgetRegex, "admin", true)))
	assert.Contains(t, mb.LastMessage(), "reset")
	assert.Empty(t, p.registry.All())
	alice, _ := p.store.GetAccount("srv", "alice")
	assert.Equal(t, 0, alice.TotalCaught)
	cfg, _ := p.store.GetServer("srv")
	assert.False(t, cfg.Enabled)
}

func TestPrefix(t *testing.T) {
	p, mb, _ := makePlugin(t, &seqRand{})
	assert.Equal(t, "!", mb.Prefix("srv"))

	p.prefixCmd(makeRequest("prefix waytoolong", prefixRegex, "admin", true))
	assert.Contains(t, mb.LastMessage(), "1 to 5 characters")

	p.prefixCmd(makeRequest("prefix 🦀🦀", prefixRegex, "admin", true))
	assert.Contains(t, mb.LastMessage(), "Prefix changed")
	assert.Equal(t, "🦀🦀", mb.Prefix("srv"))
	cfg, _ := p.store.GetServer("srv")
	assert.Equal(t, "🦀🦀", cfg.Prefix)

	p.prefixCmd(makeRequest("prefix", prefixRegex, "admin", true))
	assert.Contains(t, mb.LastMessage(), "`🦀🦀`")
}

func TestValidPrefix(t *testing.T) {
	assert.Nil(t, validPrefix("!"))
	assert.Nil(t, validPrefix("crab>"))
	assert.ErrorIs(t, validPrefix(""), ErrBadPrefix)
	assert.ErrorIs(t, validPrefix("crabby"), ErrBadPrefix)
	assert.ErrorIs(t, validPrefix("a b"), ErrBadPrefix)
}

func TestBuy(t *testing.T) {
	p, mb, _ := makePlugin(t, &seqRand{})
	a := NewAccount("srv", "alice")
	a.Coins = 40
	p.store.PutAccount(a)

	p.buyCmd(makeRequest("buy net", buyRegex, "alice", false))
	assert.Contains(t, mb.LastMessage(), "can't afford")
	a, _ = p.store.GetAccount("srv", "alice")
	assert.Equal(t, 40, a.Coins)
	assert.Empty(t, a.Inventory)

	p.buyCmd(makeRequest("buy submarine", buyRegex, "alice", false))
	assert.Contains(t, mb.LastMessage(), "doesn't sell")

	a.Coins = 60
	p.store.PutAccount(a)
	p.buyCmd(makeRequest("buy net", buyRegex, "alice", false))
	assert.Contains(t, mb.LastMessage(), "You bought")
	a, _ = p.store.GetAccount("srv", "alice")
	assert.Equal(t, 10, a.Coins)
	assert.Equal(t, 1, a.Inventory["net"])

	p.inventoryCmd(makeRequest("inventory", inventoryRegex, "alice", false))
	assert.Contains(t, mb.LastMessage(), "Crab Net: x1")
}

func TestKeyword(t *testing.T) {
	p, mb, _ := makePlugin(t, &seqRand{})
	r := makeRequest("crab", keywordRegex, "alice", false)
	r.Msg.Command = false
	assert.False(t, p.keywordCmd(r))
	assert.Empty(t, mb.Messages)

	p.forceSpawnCmd(makeRequest("forcespawn", forceSpawnRegex, "admin", true))
	other := makeRequest("lobster", keywordRegex, "alice", false)
	assert.False(t, p.keywordCmd(other))
	assert.True(t, p.keywordCmd(r))
	assert.Contains(t, mb.LastMessage(), "alice caught")

	// a crab that is already gone gets no reply to chat
	sent := len(mb.Messages)
	bob := makeRequest("crab", keywordRegex, "bob", false)
	bob.Msg.Command = false
	assert.False(t, p.keywordCmd(bob))
	assert.Len(t, mb.Messages, sent)

	mb.Cfg.Set("crab.keyword", "pinch")
	p.forceSpawnCmd(makeRequest("forcespawn", forceSpawnRegex, "admin", true))
	assert.False(t, p.keywordCmd(r))
	r.Msg.Body = "PINCH"
	assert.True(t, p.keywordCmd(r))
}

func TestButton(t *testing.T) {
	p, mb, _ := makePlugin(t, &seqRand{})
	p.forceSpawnCmd(makeRequest("forcespawn", forceSpawnRegex, "admin", true))
	s := p.registry.All()[0]

	body := buttonStem + s.ID
	r := makeRequest(body, buttonRegex, "alice", false)
	r.Kind = bot.Button
	assert.True(t, p.buttonCmd(r))
	assert.Contains(t, mb.LastMessage(), "alice caught")

	r = makeRequest(body, buttonRegex, "bob", false)
	r.Kind = bot.Button
	assert.True(t, p.buttonCmd(r))
	assert.Contains(t, mb.LastMessage(), "already caught")
}

func TestLevelUpNotice(t *testing.T) {
	p, mb, _ := makePlugin(t, &seqRand{ints: []int{0, 0, 0, 4}})
	a := NewAccount("srv", "alice")
	a.XP = 96
	p.store.PutAccount(a)
	p.forceSpawnCmd(makeRequest("forcespawn common", forceSpawnRegex, "admin", true))
	p.catchCmd(makeRequest("catch", catchRegex, "alice", false))
	assert.Contains(t, mb.LastMessage(), "Level up! You're now level 2!")
	a, _ = p.store.GetAccount("srv", "alice")
	assert.Equal(t, 2, a.Level)
	assert.Equal(t, 0, a.XP)
}

func TestReadCommands(t *testing.T) {
	p, mb, _ := makePlugin(t, &seqRand{})
	a := NewAccount("srv", "alice")
	a.Coins = 77
	a.TotalCaught = 3
	a.Collection["Galaxy Crab"] = 3
	p.store.PutAccount(a)
	b := NewAccount("srv", "bob")
	b.TotalCaught = 5
	b.Name = "bobby"
	p.store.PutAccount(b)

	p.coinsCmd(makeRequest("coins", coinsRegex, "alice", false))
	assert.Contains(t, mb.LastMessage(), "You have **77** coins.")

	p.profileCmd(makeRequest("profile", profileRegex, "alice", false))
	assert.Contains(t, mb.LastMessage(), "📈 Rank: #2")
	assert.Contains(t, mb.LastMessage(), "⭐ XP: 0/100")

	p.crabsCmd(makeRequest("crabs", crabsRegex, "alice", false))
	assert.Contains(t, mb.LastMessage(), "🌌 Galaxy Crab: 3")

	p.shopCmd(makeRequest("shop", shopRegex, "alice", false))
	assert.Contains(t, mb.LastMessage(), "Golden Claw Trophy")

	p.leaderboardCmd(makeRequest("leaderboard", leaderboardRegex, "alice", false))
	lb := mb.LastMessage()
	assert.True(t, strings.Index(lb, "bobby") < strings.Index(lb, "alice"), lb)
}

func TestHelp(t *testing.T) {
	p, mb, _ := makePlugin(t, &seqRand{})
	m := msg.Message{Channel: "test", Server: "srv"}
	assert.True(t, p.help(nil, bot.Help, m))
	assert.Contains(t, mb.LastMessage(), "Crab Bot Commands")
}

func TestTick(t *testing.T) {
	rng := &seqRand{floats: []float64{0.9, 0.5, 0.1}}
	p, mb, _ := makePlugin(t, rng)
	p.store.PutServer(ServerConfig{Server: "srv", SpawnChannel: "spawns", Enabled: true, Prefix: "!"})

	p.tick()
	assert.Empty(t, p.registry.All())

	p.tick()
	all := p.registry.All()
	assert.Len(t, all, 1)
	assert.Equal(t, "spawns", all[0].Channel)
	assert.NotEmpty(t, all[0].MessageID)
	assert.Len(t, mb.Messages, 1)

	p.tick()
	assert.Len(t, p.registry.All(), 1)
	assert.Len(t, mb.Messages, 1)
}

func TestTickIsolatesServers(t *testing.T) {
	rng := &seqRand{floats: []float64{0, 0}}
	p, _, _ := makePlugin(t, rng)
	p.store.PutServer(ServerConfig{Server: "a", SpawnChannel: "ca", Enabled: true, Prefix: "!"})
	p.store.PutServer(ServerConfig{Server: "b", SpawnChannel: "cb", Enabled: true, Prefix: "!"})
	// an empty table makes Pick index out of range
	p.registry.picker = newPicker(nil)

	assert.NotPanics(t, p.tick)
	assert.Empty(t, p.registry.All())
}

func TestSweepMarksEscaped(t *testing.T) {
	p, mb, clock := makePlugin(t, &seqRand{})
	p.forceSpawnCmd(makeRequest("forcespawn", forceSpawnRegex, "admin", true))
	clock.Advance(11 * time.Minute)
	p.sweep(clock.Now())
	assert.Empty(t, p.registry.All())
	assert.Len(t, mb.Edits, 1)
	assert.Contains(t, mb.Edits[0], "scuttled away")
}
