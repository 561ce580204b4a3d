package pollmsg

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emotegov/emotegov/poll"
)

func TestEmbedParseRoundTrip(t *testing.T) {
	e := Embed(poll.AddEmoji, "foo", "", "https://example.com/foo.png")
	msg := &discordgo.Message{Embeds: []*discordgo.MessageEmbed{e}}

	p, err := Parse(msg)
	require.NoError(t, err)
	assert.Equal(t, "foo", p.Name)
	assert.Empty(t, p.NewName)
	assert.Equal(t, "https://example.com/foo.png", p.ImageURL)
}

func TestEmbedCarriesNewName(t *testing.T) {
	e := Embed(poll.RenameSticker, "old", "new", "")
	msg := &discordgo.Message{Embeds: []*discordgo.MessageEmbed{e}}

	p, err := Parse(msg)
	require.NoError(t, err)
	assert.Equal(t, "old", p.Name)
	assert.Equal(t, "new", p.NewName)
	assert.Empty(t, p.ImageURL)
}

func TestParseRejectsForeignMessages(t *testing.T) {
	_, err := Parse(&discordgo.Message{})
	assert.Error(t, err)

	_, err = Parse(&discordgo.Message{Embeds: []*discordgo.MessageEmbed{
		{Title: "unrelated embed"},
	}})
	assert.Error(t, err)
}

func TestEmbedTitleNamesTheKind(t *testing.T) {
	e := Embed(poll.DeleteEmoji, "foo", "", "")
	assert.Contains(t, e.Title, "DELETE EMOJI")
	assert.Contains(t, e.Title, ":foo:")
}
