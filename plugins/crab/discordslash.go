package crab

import (
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/velour/crabbase/connectors/discord"
)

var adminPerms int64 = discordgo.PermissionAdministrator

// slashCommands mirror the text commands; the connector turns each call
// into a command message of the same name
func (p *CrabPlugin) slashCommands() []discordgo.ApplicationCommand {
	crabChoices := []*discordgo.ApplicationCommandOptionChoice{}
	for _, c := range p.table {
		crabChoices = append(crabChoices, &discordgo.ApplicationCommandOptionChoice{Name: c.Name, Value: c.Name})
	}
	itemChoices := []*discordgo.ApplicationCommandOptionChoice{}
	for _, it := range ShopItems {
		itemChoices = append(itemChoices, &discordgo.ApplicationCommandOptionChoice{Name: it.Name, Value: it.ID})
	}
	return []discordgo.ApplicationCommand{
		{
			Name:                     "setup",
			Description:              "Set up crab spawning in a channel",
			DefaultMemberPermissions: &adminPerms,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         "channel",
					Description:  "Channel where crabs will appear",
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				},
			},
		},
		{Name: "forget", Description: "Reset all crab data for this server", DefaultMemberPermissions: &adminPerms},
		{
			Name:                     "forcespawn",
			Description:              "Spawn a crab right now",
			DefaultMemberPermissions: &adminPerms,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "crab",
					Description: "Which crab to spawn",
					Choices:     crabChoices,
				},
			},
		},
		{Name: "catch", Description: "Catch the crab in this channel"},
		{Name: "coins", Description: "Check your crab coins"},
		{Name: "profile", Description: "Check your crab profile"},
		{Name: "crabs", Description: "See your crab collection"},
		{Name: "inventory", Description: "See what you've bought"},
		{Name: "shop", Description: "Browse the crab shop"},
		{
			Name:        "buy",
			Description: "Buy something from the crab shop",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "item",
					Description: "What to buy",
					Required:    true,
					Choices:     itemChoices,
				},
			},
		},
		{Name: "leaderboard", Description: "Top crabbers on this server"},
		{
			Name:                     "prefix",
			Description:              "Change the command prefix",
			DefaultMemberPermissions: &adminPerms,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "prefix",
					Description: "1 to 5 characters",
					Required:    true,
				},
			},
		},
		{Name: "help", Description: "Show crab commands"},
	}
}

func (p *CrabPlugin) registerSlash(d *discord.Discord) {
	for _, cmd := range p.slashCommands() {
		if err := d.RegisterSlashCmd(cmd); err != nil {
			log.Error().Err(err).Str("command", cmd.Name).Msg("could not register slash command")
		}
	}
}
