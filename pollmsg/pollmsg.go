// Package pollmsg defines the poll message format. The poll embed is the
// only place the proposed asset name, target name, and image URL live:
// the durable record stores IDs only, and the scheduler reads everything
// else back out of the message when the poll closes.
package pollmsg

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/emotegov/emotegov/poll"
)

const (
	fieldName    = "Name"
	fieldNewName = "New name"
)

// Proposal is the data recovered from a poll message at close time.
type Proposal struct {
	Name     string
	NewName  string
	ImageURL string
}

// Embed builds the poll embed for a proposal. imageURL may be empty for
// kinds that do not show an image.
func Embed(kind poll.Kind, name, newName, imageURL string) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("POLL: %s :%s:", strings.ToUpper(kind.Pretty()), name),
		Description: description(kind),
		Fields: []*discordgo.MessageEmbedField{
			{Name: fieldName, Value: name, Inline: true},
		},
	}
	if newName != "" {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name: fieldNewName, Value: newName, Inline: true,
		})
	}
	if imageURL != "" {
		e.Image = &discordgo.MessageEmbedImage{URL: imageURL}
	}
	return e
}

// Parse recovers the proposal from a poll message posted by Embed.
func Parse(msg *discordgo.Message) (Proposal, error) {
	if len(msg.Embeds) == 0 {
		return Proposal{}, errors.New("poll message has no embed")
	}
	e := msg.Embeds[0]

	var p Proposal
	for _, f := range e.Fields {
		switch f.Name {
		case fieldName:
			p.Name = f.Value
		case fieldNewName:
			p.NewName = f.Value
		}
	}
	if p.Name == "" {
		return Proposal{}, errors.New("poll embed is missing the asset name")
	}
	if e.Image != nil {
		p.ImageURL = e.Image.URL
	}
	return p, nil
}

func description(kind poll.Kind) string {
	target := "emoji"
	if kind.Sticker() {
		target = "sticker"
	}
	switch kind {
	case poll.AddEmoji, poll.AddSticker:
		return fmt.Sprintf("Should we add this %s? (full size version shown below)", target)
	case poll.DeleteEmoji, poll.DeleteSticker:
		return fmt.Sprintf("Should we delete this %s?", target)
	case poll.RenameEmoji, poll.RenameSticker:
		return fmt.Sprintf("Should we rename this %s?", target)
	case poll.ChangeEmoji, poll.ChangeSticker:
		return fmt.Sprintf("Should we change this %s's image? (new version shown below)", target)
	}
	return ""
}
