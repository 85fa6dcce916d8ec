package crab

import (
	"fmt"
	"sort"
	"strings"

	"github.com/velour/crabbase/bot"
)

const (
	colorOK    = 0x00FF00
	colorInfo  = 0x7289DA
	colorGold  = 0xFFD700
	buttonStem = "crab_catch:"
)

var crabFacts = []string{
	"Crabs have 10 legs and walk sideways!",
	"There are over 4,500 species of crabs worldwide.",
	"The Japanese spider crab has the largest leg span of any arthropod.",
	"Crabs can regenerate lost limbs during molting.",
	"Some crabs can live up to 100 years!",
	"Crabs communicate by drumming or waving their claws.",
	"The coconut crab is the largest land-living arthropod.",
}

func catchButton(s Spawn, disabled bool) bot.ButtonSpec {
	label := "Catch Crab!"
	if disabled {
		label = "Caught"
	}
	return bot.ButtonSpec{
		ID:       buttonStem + s.ID,
		Label:    label,
		Emoji:    "🎣",
		Disabled: disabled,
	}
}

func spawnEmbed(s Spawn, prefix, fact string) bot.Embed {
	return bot.Embed{
		Title: fmt.Sprintf("%s A wild %s appeared!", s.Creature.Emoji, s.Creature.Name),
		Description: fmt.Sprintf("**Rarity:** %s\n**Value:** %d coins\nQuick, press the button or type `%scatch`!",
			s.Creature.Rarity, s.Creature.Value, prefix),
		Color:  s.Creature.Color,
		Footer: fact,
	}
}

func caughtEmbed(s Spawn, who string) bot.Embed {
	return bot.Embed{
		Title:       fmt.Sprintf("%s %s was caught by %s", s.Creature.Emoji, s.Creature.Name, who),
		Description: "Better luck next time!",
		Color:       s.Creature.Color,
	}
}

func escapedEmbed(s Spawn) bot.Embed {
	return bot.Embed{
		Title:       fmt.Sprintf("%s The %s scuttled away...", s.Creature.Emoji, s.Creature.Name),
		Description: "Nobody caught it in time.",
		Color:       s.Creature.Color,
	}
}

func catchEmbed(who string, s Spawn, r Reward, a Account, leveled bool) bot.Embed {
	footer := fmt.Sprintf("New balance: %d coins", a.Coins)
	if leveled {
		footer += fmt.Sprintf(" 🎉 Level up! You're now level %d!", a.Level)
	}
	return bot.Embed{
		Title: fmt.Sprintf("🎣 %s caught a %s! %s", who, s.Creature.Name, s.Creature.Emoji),
		Description: fmt.Sprintf("**Rarity:** %s\n**Base Value:** %d coins\n**Bonus:** %d coins\n**Total Earned:** %d coins!",
			s.Creature.Rarity, s.Creature.Value, r.Bonus, r.Coins),
		Color: s.Creature.Color,
		Fields: []bot.EmbedField{
			{Name: "⭐ XP", Value: fmt.Sprintf("+%d", r.XP), Inline: true},
			{Name: "🦀 Total Crabs", Value: fmt.Sprint(a.TotalCaught), Inline: true},
		},
		Footer: footer,
	}
}

func coinsEmbed(who string, a Account) bot.Embed {
	return bot.Embed{
		Title:       fmt.Sprintf("💰 %s's Coins", who),
		Description: fmt.Sprintf("You have **%d** coins.", a.Coins),
		Color:       colorGold,
	}
}

func profileEmbed(who string, a Account, rank int) bot.Embed {
	return bot.Embed{
		Title: fmt.Sprintf("🦀 %s's Crab Profile", who),
		Color: colorInfo,
		Fields: []bot.EmbedField{
			{Name: "💰 Coins", Value: fmt.Sprint(a.Coins), Inline: true},
			{Name: "🎣 Crabs Caught", Value: fmt.Sprint(a.TotalCaught), Inline: true},
			{Name: "🏆 Level", Value: fmt.Sprint(a.Level), Inline: true},
			{Name: "⭐ XP", Value: fmt.Sprintf("%d/%d", a.XP, a.XPNeeded()), Inline: true},
			{Name: "📈 Rank", Value: fmt.Sprintf("#%d", rank), Inline: true},
		},
	}
}

func collectionEmbed(who string, a Account, table []Creature) bot.Embed {
	e := bot.Embed{
		Title: fmt.Sprintf("🦀 %s's Crab Collection", who),
		Color: colorInfo,
	}
	for _, c := range table {
		e.Fields = append(e.Fields, bot.EmbedField{
			Name:   fmt.Sprintf("%s %s", c.Emoji, c.Name),
			Value:  fmt.Sprint(a.Collection[c.Name]),
			Inline: true,
		})
	}
	if a.TotalCaught == 0 {
		e.Description = "No crabs yet. Go catch some!"
	}
	return e
}

func inventoryEmbed(who string, a Account) bot.Embed {
	e := bot.Embed{
		Title: fmt.Sprintf("🎒 %s's Inventory", who),
		Color: colorInfo,
	}
	ids := []string{}
	for id, n := range a.Inventory {
		if n > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		name := id
		if it, ok := FindItem(id); ok {
			name = it.Emoji + " " + it.Name
		}
		e.Fields = append(e.Fields, bot.EmbedField{Name: name, Value: fmt.Sprintf("x%d", a.Inventory[id]), Inline: true})
	}
	if len(ids) == 0 {
		e.Description = "Your inventory is empty. Check out the shop!"
	}
	return e
}

func shopEmbed(prefix string) bot.Embed {
	e := bot.Embed{
		Title:       "🛒 Crab Shop",
		Description: fmt.Sprintf("Buy with `%sbuy <item>`", prefix),
		Color:       colorGold,
	}
	for _, it := range ShopItems {
		e.Fields = append(e.Fields, bot.EmbedField{
			Name:  fmt.Sprintf("%s %s (`%s`)", it.Emoji, it.Name, it.ID),
			Value: fmt.Sprintf("%d coins. %s", it.Price, it.Description),
		})
	}
	return e
}

func leaderboardEmbed(accounts []Account) bot.Embed {
	e := bot.Embed{
		Title: "🏆 Crab Leaderboard",
		Color: colorGold,
	}
	if len(accounts) == 0 {
		e.Description = "Nobody has caught a crab yet."
		return e
	}
	lines := []string{}
	for i, a := range accounts {
		name := a.Name
		if name == "" {
			name = a.User
		}
		lines = append(lines, fmt.Sprintf("**%d.** %s: %d crabs", i+1, name, a.TotalCaught))
	}
	e.Description = strings.Join(lines, "\n")
	return e
}

func setupEmbed(channel, prefix string) bot.Embed {
	return bot.Embed{
		Title:       "🦀 Crab Bot Setup Complete!",
		Description: "Crabs will start appearing soon!",
		Color:       colorOK,
		Fields: []bot.EmbedField{
			{Name: "Spawn Channel", Value: fmt.Sprintf("<#%s>", channel), Inline: true},
			{Name: "Status", Value: "🟢 Enabled", Inline: true},
			{Name: "Prefix", Value: fmt.Sprintf("`%s`", prefix), Inline: true},
		},
	}
}

func helpEmbed(prefix string) bot.Embed {
	return bot.Embed{
		Title:       "🦀 Crab Bot Commands",
		Description: fmt.Sprintf("Use `%s` before a command, or the slash command of the same name.", prefix),
		Color:       colorInfo,
		Fields: []bot.EmbedField{
			{Name: "🎣 Crab Commands", Value: "catch, coins, profile, crabs, inventory, shop, buy <item>, leaderboard"},
			{Name: "🛠️ Admin Commands", Value: "setup [channel], forget, forcespawn [crab], prefix <new>"},
		},
	}
}
