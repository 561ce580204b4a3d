// Package proposals implements the slash commands members use to open
// mutation polls: add, delete, rename, and change, each for emoji and
// stickers, plus show-config. A command validates its input, posts the
// poll message with the two vote reactions, and writes the poll record;
// every failure is reported to the proposer before any record exists.
package proposals

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/emotegov/emotegov/assets"
	"github.com/emotegov/emotegov/config"
	"github.com/emotegov/emotegov/poll"
	"github.com/emotegov/emotegov/pollmsg"
)

const (
	optionURL         = "url"
	optionName        = "name"
	optionEmojiName   = "emoji-name"
	optionStickerName = "sticker-name"
	optionNewName     = "new-name"

	showConfigName = "show-config"

	handleTimeout = time.Minute
)

var commandKinds = map[string]poll.Kind{
	"add-emoji":      poll.AddEmoji,
	"delete-emoji":   poll.DeleteEmoji,
	"rename-emoji":   poll.RenameEmoji,
	"change-emoji":   poll.ChangeEmoji,
	"add-sticker":    poll.AddSticker,
	"delete-sticker": poll.DeleteSticker,
	"rename-sticker": poll.RenameSticker,
	"change-sticker": poll.ChangeSticker,
}

// Session is the slice of the gateway session the proposal commands
// need; *discordgo.Session satisfies it directly.
type Session interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseDelete(interaction *discordgo.Interaction, options ...discordgo.RequestOption) error
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
}

type Handler struct {
	cfg   *config.Config
	store poll.Store
	col   assets.Collection
	log   *logrus.Entry
}

func New(cfg *config.Config, store poll.Store, col assets.Collection, log *logrus.Entry) *Handler {
	return &Handler{cfg: cfg, store: store, col: col, log: log}
}

// Commands returns the application command definitions to register.
func (h *Handler) Commands() []*discordgo.ApplicationCommand {
	cmds := []*discordgo.ApplicationCommand{
		{
			Name:        "add-emoji",
			Description: "Make a poll to add an emoji to the server",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption(optionURL, "URL of image to be made into an emoji"),
				stringOption(optionName, "name of emoji"),
			},
		},
		{
			Name:        "delete-emoji",
			Description: "Make a poll to delete an emoji from the server",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption(optionEmojiName, "emoji name, WITHOUT the colons"),
			},
		},
		{
			Name:        "rename-emoji",
			Description: "Make a poll to rename an emoji on the server",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption(optionEmojiName, "emoji name, WITHOUT the colons"),
				stringOption(optionNewName, "new name for the emoji"),
			},
		},
		{
			Name:        "change-emoji",
			Description: "Make a poll to replace an emoji's image, keeping its name",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption(optionEmojiName, "emoji name, WITHOUT the colons"),
				stringOption(optionURL, "URL of the replacement image"),
			},
		},
		{
			Name:        "add-sticker",
			Description: "Make a poll to add a sticker to the server",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption(optionURL, "URL of image to be made into a sticker"),
				stringOption(optionName, "name of sticker"),
			},
		},
		{
			Name:        "delete-sticker",
			Description: "Make a poll to delete a sticker from the server",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption(optionStickerName, "sticker name, EXACTLY as it appears in the sticker list"),
			},
		},
		{
			Name:        "rename-sticker",
			Description: "Make a poll to rename a sticker on the server",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption(optionStickerName, "sticker name, EXACTLY as it appears in the sticker list"),
				stringOption(optionNewName, "new name for the sticker"),
			},
		},
		{
			Name:        "change-sticker",
			Description: "Make a poll to replace a sticker's image, keeping its name",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption(optionStickerName, "sticker name, EXACTLY as it appears in the sticker list"),
				stringOption(optionURL, "URL of the replacement image"),
			},
		},
		{
			Name:        showConfigName,
			Description: "Show the current configuration of the bot",
		},
	}
	return cmds
}

func stringOption(name, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: description,
		Required:    true,
	}
}

// Handle dispatches one command interaction.
func (h *Handler) Handle(s Session, i *discordgo.InteractionCreate) error {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	name := i.ApplicationCommandData().Name
	if name == showConfigName {
		return h.showConfig(s, i)
	}
	kind, ok := commandKinds[name]
	if !ok {
		return errors.Errorf("unknown command %q", name)
	}
	return h.propose(ctx, s, i, kind)
}

// proposal is one command invocation's validated input.
type proposal struct {
	name    string
	newName string
	url     string
}

func (h *Handler) propose(ctx context.Context, s Session, i *discordgo.InteractionCreate, kind poll.Kind) error {
	if !h.cfg.ChannelAllowed(i.GuildID, i.ChannelID) {
		mentions := make([]string, 0, len(h.cfg.AllowedChannels[i.GuildID]))
		for _, id := range h.cfg.AllowedChannels[i.GuildID] {
			mentions = append(mentions, "<#"+id+">")
		}
		return h.ephemeral(s, i,
			"This channel is not allowed to be used for polls. Please use one of the following channels: "+
				strings.Join(mentions, " "))
	}

	p := commandProposal(i.ApplicationCommandData())
	if msg := h.validate(kind, p); msg != "" {
		return h.ephemeral(s, i, msg)
	}

	if msg, err := h.checkExisting(ctx, i.GuildID, kind, p); err != nil {
		return errors.Wrap(err, "listing existing assets")
	} else if msg != "" {
		return h.ephemeral(s, i, msg)
	}

	creatorID := interactionUserID(i)
	open, err := h.store.CountOpenByCreator(i.GuildID, creatorID)
	if err != nil {
		return errors.Wrap(err, "counting open polls")
	}
	if open >= h.cfg.PollsPerUserLimit {
		return h.ephemeral(s, i, fmt.Sprintf(
			"You already have %d open polls on this server; wait for one to close before starting another.", open))
	}

	msg, err := s.ChannelMessageSendEmbed(i.ChannelID, pollmsg.Embed(kind, p.name, p.newName, p.url))
	if err != nil {
		return errors.Wrap(err, "posting poll message")
	}

	if err := h.finishPoll(s, i, kind, msg, creatorID); err != nil {
		// The poll message exists but is not a functioning poll; take it
		// down so the channel is not left with a dead vote.
		if derr := s.ChannelMessageDelete(i.ChannelID, msg.ID); derr != nil {
			h.log.WithError(derr).Warn("removing broken poll message")
		}
		return err
	}

	closes := humanize.RelTime(time.Now().Add(h.cfg.PollDuration), time.Now(), "", "")
	if err := h.respond(s, i, fmt.Sprintf("Poll started! It closes in %s.", closes), false); err != nil {
		return err
	}
	// The confirmation is only useful for a moment; the poll embed above
	// it is the durable artifact.
	if d := h.cfg.DeleteNoticesAfter; d > 0 {
		interaction := i.Interaction
		time.AfterFunc(d, func() {
			if err := s.InteractionResponseDelete(interaction); err != nil {
				h.log.WithError(err).Debug("deleting poll confirmation")
			}
		})
	}
	return nil
}

func (h *Handler) finishPoll(s Session, i *discordgo.InteractionCreate, kind poll.Kind, msg *discordgo.Message, creatorID string) error {
	if err := s.MessageReactionAdd(i.ChannelID, msg.ID, h.cfg.YesEmoji); err != nil {
		return errors.Wrap(err, "seeding yes reaction")
	}
	if err := s.MessageReactionAdd(i.ChannelID, msg.ID, h.cfg.NoEmoji); err != nil {
		return errors.Wrap(err, "seeding no reaction")
	}

	r := poll.Record{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		MessageID: msg.ID,
		Kind:      kind,
		CreatorID: creatorID,
	}
	return errors.Wrap(h.store.Create(r), "saving poll record")
}

// validate checks name and URL syntax plus the protected-name list. It
// returns the user-facing rejection, or "" when the proposal is fine.
func (h *Handler) validate(kind poll.Kind, p proposal) string {
	if kind.Sticker() {
		if !ValidStickerName(p.name) {
			return "Sticker name must be 2-30 characters and cannot contain `:`"
		}
	} else if !ValidEmojiName(p.name) {
		return "Emoji name must be 2-32 alphanumeric characters and underscores only"
	}

	if h.cfg.Protected(p.name) {
		return fmt.Sprintf(":%s: is protected and cannot be the subject of a poll", p.name)
	}

	if kind.NeedsNewName() {
		if kind.Sticker() {
			if !ValidStickerName(p.newName) {
				return "New sticker name must be 2-30 characters and cannot contain `:`"
			}
		} else if !ValidEmojiName(p.newName) {
			return "New emoji name must be 2-32 alphanumeric characters and underscores only"
		}
		if p.newName == p.name {
			return "The new name is the same as the current one"
		}
		if h.cfg.Protected(p.newName) {
			return fmt.Sprintf(":%s: is protected and cannot be used as a new name", p.newName)
		}
	}

	if kind.NeedsImage() {
		if kind.Sticker() {
			if !ValidStickerImageURL(p.url) {
				return "Invalid image URL, sticker url must end in png or apng"
			}
		} else if !ValidEmojiImageURL(p.url) {
			return "Invalid image URL, emoji url must end in png, jpg, jpeg, or gif"
		}
	}

	return ""
}

// checkExisting compares the proposal against the live asset collection:
// an added name must be free, any other subject must exist, and a rename
// target must be free.
func (h *Handler) checkExisting(ctx context.Context, guildID string, kind poll.Kind, p proposal) (string, error) {
	target := "Emoji"
	names := map[string]bool{}

	if kind.Sticker() {
		target = "Sticker"
		stickers, err := h.col.Stickers(ctx, guildID)
		if err != nil {
			return "", err
		}
		for _, st := range stickers {
			names[st.Name] = true
		}
	} else {
		emojis, err := h.col.Emojis(ctx, guildID)
		if err != nil {
			return "", err
		}
		for _, e := range emojis {
			names[e.Name] = true
		}
	}

	switch {
	case kind == poll.AddEmoji || kind == poll.AddSticker:
		if names[p.name] {
			return fmt.Sprintf("%s name already exists on this server", target), nil
		}
	case !names[p.name]:
		return fmt.Sprintf("%s does not exist on this server", target), nil
	case kind.NeedsNewName() && names[p.newName]:
		return fmt.Sprintf("%s name :%s: is already taken on this server", target, p.newName), nil
	}
	return "", nil
}

func (h *Handler) showConfig(s Session, i *discordgo.InteractionCreate) error {
	return h.respond(s, i, "```yaml\n"+h.cfg.Render()+"\n```", false)
}

func (h *Handler) ephemeral(s Session, i *discordgo.InteractionCreate, content string) error {
	return h.respond(s, i, content, true)
}

func (h *Handler) respond(s Session, i *discordgo.InteractionCreate, content string, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

func commandProposal(data discordgo.ApplicationCommandInteractionData) proposal {
	var p proposal
	for _, opt := range data.Options {
		switch opt.Name {
		case optionName, optionEmojiName, optionStickerName:
			p.name = opt.StringValue()
		case optionNewName:
			p.newName = opt.StringValue()
		case optionURL:
			p.url = opt.StringValue()
		}
	}
	return p
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
