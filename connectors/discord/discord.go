package discord

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/velour/crabbase/bot"
	"github.com/velour/crabbase/bot/msg"
	"github.com/velour/crabbase/bot/user"
	"github.com/velour/crabbase/config"
)

type Discord struct {
	config *config.Config
	client *discordgo.Session

	event bot.Callback

	mu        sync.Mutex
	slashCmds []*discordgo.ApplicationCommand
	// answered tracks deferred interactions that already got their reply
	answered map[string]bool
	open     bool
}

func New(config *config.Config) *Discord {
	client, err := discordgo.New("Bot " + config.Get("DISCORDBOTTOKEN", ""))
	if err != nil {
		log.Fatal().Err(err).Msg("Could not connect to Discord")
	}
	d := &Discord{
		config:   config,
		client:   client,
		answered: map[string]bool{},
	}
	return d
}

func (d *Discord) RegisterEvent(callback bot.Callback) {
	d.event = callback
}

// RegisterSlashCmd adds an application command. Commands registered before
// Serve are installed in one bulk overwrite; later ones are created directly.
// Invocations arrive through the event callback as command messages whose
// body is the command name followed by its option values.
func (d *Discord) RegisterSlashCmd(c discordgo.ApplicationCommand) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slashCmds = append(d.slashCmds, &c)
	if !d.open {
		return nil
	}
	guildID := d.config.Get("discord.guildid", "")
	_, err := d.client.ApplicationCommandCreate(d.client.State.User.ID, guildID, &c)
	return err
}

func (d *Discord) Send(kind bot.Kind, args ...any) (string, error) {
	switch kind {
	case bot.Message:
		return d.sendMessage(args[0].(string), args[1].(string), false, args[2:]...)
	case bot.Action:
		return d.sendMessage(args[0].(string), args[1].(string), true, args[2:]...)
	case bot.Edit:
		return d.editMessage(args[0].(string), args[1].(string), args[2].(string), args[3:]...)
	default:
		log.Error().Msgf("discord.Send: unknown kind, %+v", kind)
		return "", errors.New("unknown message type")
	}
}

// payload is a message body converted to discordgo shapes
type payload struct {
	content     string
	embeds      []*discordgo.MessageEmbed
	components  []discordgo.MessageComponent
	interaction *discordgo.Interaction
}

func convertEmbed(e bot.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	if e.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	if e.Thumbnail != "" {
		out.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.Thumbnail}
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return out
}

func buildPayload(message string, args ...any) payload {
	p := payload{content: message}
	buttons := []discordgo.MessageComponent{}
	for _, arg := range args {
		switch a := arg.(type) {
		case bot.Embed:
			p.embeds = append(p.embeds, convertEmbed(a))
		case bot.ButtonSpec:
			b := discordgo.Button{
				Label:    a.Label,
				Style:    discordgo.SuccessButton,
				CustomID: a.ID,
				Disabled: a.Disabled,
			}
			if a.Emoji != "" {
				b.Emoji = &discordgo.ComponentEmoji{Name: a.Emoji}
			}
			buttons = append(buttons, b)
		case msg.Message:
			if i, ok := a.Raw.(*discordgo.Interaction); ok {
				p.interaction = i
			}
		}
	}
	if len(buttons) > 0 {
		p.components = []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: buttons},
		}
	}
	return p
}

func (d *Discord) sendMessage(channel, message string, meMessage bool, args ...any) (string, error) {
	if meMessage && !strings.HasPrefix(message, "_") && !strings.HasSuffix(message, "_") {
		message = "_" + message + "_"
	}

	p := buildPayload(message, args...)

	log.Debug().
		Str("channel", channel).
		Str("content", p.content).
		Int("embeds", len(p.embeds)).
		Msg("sending message")

	if p.interaction != nil {
		return d.replyInteraction(p)
	}

	st, err := d.client.ChannelMessageSendComplex(channel, &discordgo.MessageSend{
		Content:    p.content,
		Embeds:     p.embeds,
		Components: p.components,
	})
	if err != nil {
		log.Error().Err(err).Msg("Error sending message")
		return "", err
	}

	return st.ID, err
}

// replyInteraction fills in the deferred response the first time and posts
// follow-ups after that
func (d *Discord) replyInteraction(p payload) (string, error) {
	d.mu.Lock()
	first := !d.answered[p.interaction.ID]
	d.answered[p.interaction.ID] = true
	d.mu.Unlock()

	if first {
		edit := &discordgo.WebhookEdit{}
		if p.content != "" {
			edit.Content = &p.content
		}
		if len(p.embeds) > 0 {
			edit.Embeds = &p.embeds
		}
		if len(p.components) > 0 {
			edit.Components = &p.components
		}
		st, err := d.client.InteractionResponseEdit(p.interaction, edit)
		if err != nil {
			log.Error().Err(err).Msg("could not edit interaction response")
			return "", err
		}
		return st.ID, nil
	}

	st, err := d.client.FollowupMessageCreate(p.interaction, true, &discordgo.WebhookParams{
		Content:    p.content,
		Embeds:     p.embeds,
		Components: p.components,
	})
	if err != nil {
		log.Error().Err(err).Msg("could not send follow-up")
		return "", err
	}
	return st.ID, nil
}

func (d *Discord) editMessage(channel, id, message string, args ...any) (string, error) {
	p := buildPayload(message, args...)
	edit := discordgo.NewMessageEdit(channel, id)
	if p.content != "" {
		edit.SetContent(p.content)
	}
	if len(p.embeds) > 0 {
		edit.SetEmbeds(p.embeds)
	}
	// an empty row list clears old buttons
	edit.Components = &p.components
	st, err := d.client.ChannelMessageEditComplex(edit)
	if err != nil {
		log.Error().Err(err).Msg("could not edit message")
		return "", err
	}
	return st.ID, nil
}

func (d *Discord) Profile(id string) (user.User, error) {
	u, err := d.client.User(id)
	if err != nil {
		log.Error().Err(err).Msg("Error getting user")
		return user.User{}, err
	}
	return *d.convertUser(u, false), nil
}

func (d *Discord) convertUser(u *discordgo.User, admin bool) *user.User {
	name := u.GlobalName
	if name == "" {
		name = u.Username
	}
	return &user.User{
		ID:    u.ID,
		Name:  name,
		Admin: admin,
	}
}

func (d *Discord) Serve() error {
	log.Debug().Msg("starting discord serve function")

	d.client.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent)

	d.client.AddHandler(d.messageCreate)
	d.client.AddHandler(d.interactionCreate)
	d.client.AddHandler(d.guildCreate)
	d.client.AddHandler(d.guildDelete)

	err := backoff.Retry(d.client.Open, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5))
	if err != nil {
		log.Debug().Err(err).Msg("error opening client")
		return err
	}

	log.Debug().Msg("discord connection open")

	d.mu.Lock()
	d.open = true
	cmds := append([]*discordgo.ApplicationCommand{}, d.slashCmds...)
	d.mu.Unlock()

	if len(cmds) > 0 {
		guildID := d.config.Get("discord.guildid", "")
		if _, err := d.client.ApplicationCommandBulkOverwrite(d.client.State.User.ID, guildID, cmds); err != nil {
			log.Error().Err(err).Msg("could not register slash commands")
			return err
		}
		log.Info().Int("commands", len(cmds)).Msg("slash commands registered")
	}

	return nil
}

func (d *Discord) Close() error {
	return d.client.Close()
}

// isAdmin reads the author's permissions from the member roles carried on
// the message and the cached guild, asking the API only when the cache
// can't answer
func (d *Discord) isAdmin(m *discordgo.Message) bool {
	perms, err := d.client.State.MessagePermissions(m)
	if err != nil {
		log.Debug().Err(err).Msg("permissions not in state")
		perms, err = d.client.UserChannelPermissions(m.Author.ID, m.ChannelID)
		if err != nil {
			log.Debug().Err(err).Msg("could not read permissions")
			return false
		}
	}
	return perms&discordgo.PermissionAdministrator != 0
}

func (d *Discord) messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID || m.Author.Bot {
		return
	}

	msg := msg.Message{
		ID:      m.ID,
		User:    d.convertUser(m.Author, d.isAdmin(m.Message)),
		Channel: m.ChannelID,
		Server:  m.GuildID,
		Body:    m.Content,
		IsIM:    m.GuildID == "",
		Raw:     m.Message,
		Time:    m.Timestamp,
	}

	log.Debug().Interface("msg", msg).Msg("message received")

	if d.event != nil {
		d.event(d, bot.Message, msg)
	}
}

func (d *Discord) interactionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var kind bot.Kind
	var body string
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		parts := []string{data.Name}
		for _, o := range data.Options {
			parts = append(parts, fmt.Sprint(o.Value))
		}
		kind, body = bot.Message, strings.Join(parts, " ")
	case discordgo.InteractionMessageComponent:
		kind, body = bot.Button, i.MessageComponentData().CustomID
	default:
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		log.Error().Err(err).Msg("could not defer interaction")
		return
	}

	var u *user.User
	if i.Member != nil {
		u = d.convertUser(i.Member.User, i.Member.Permissions&discordgo.PermissionAdministrator != 0)
	} else if i.User != nil {
		u = d.convertUser(i.User, false)
	} else {
		return
	}

	m := msg.Message{
		ID:      i.ID,
		User:    u,
		Channel: i.ChannelID,
		Server:  i.GuildID,
		Body:    body,
		IsIM:    i.GuildID == "",
		Raw:     i.Interaction,
		Command: true,
		Time:    time.Now(),
	}

	handled := d.event != nil && d.event(d, kind, m)

	d.mu.Lock()
	answered := d.answered[i.ID]
	delete(d.answered, i.ID)
	d.mu.Unlock()

	if !handled && !answered {
		content := "I don't know what to do with that."
		if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content}); err != nil {
			log.Error().Err(err).Msg("could not answer interaction")
		}
	} else if !answered {
		// the handler replied somewhere else, so drop the "thinking" placeholder
		if err := s.InteractionResponseDelete(i.Interaction); err != nil {
			log.Debug().Err(err).Msg("could not delete deferred response")
		}
	}
}

func (d *Discord) guildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	d.updatePresence(s)
}

func (d *Discord) guildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	d.updatePresence(s)
}

func (d *Discord) updatePresence(s *discordgo.Session) {
	status := fmt.Sprintf("crabbing in %d servers", len(s.State.Guilds))
	if err := s.UpdateGameStatus(0, status); err != nil {
		log.Debug().Err(err).Msg("could not update status")
	}
}
