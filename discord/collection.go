// Package discord adapts the discordgo session to the asset Collection
// interface. Emoji endpoints are native to discordgo; guild sticker
// endpoints are not, so those go through the session's rate-limited
// request plumbing directly.
package discord

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/emotegov/emotegov/assets"
)

// stickerTag is the mandatory "related emoji" attribute on sticker
// creation; the platform requires one but does nothing visible with it.
const stickerTag = "🤖"

type Collection struct {
	s *discordgo.Session
}

var _ assets.Collection = (*Collection)(nil)

func NewCollection(s *discordgo.Session) *Collection {
	return &Collection{s: s}
}

func (c *Collection) Emojis(ctx context.Context, guildID string) ([]assets.Emoji, error) {
	list, err := c.s.GuildEmojis(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	out := make([]assets.Emoji, 0, len(list))
	for _, e := range list {
		out = append(out, assets.Emoji{ID: e.ID, Name: e.Name, Animated: e.Animated})
	}
	return out, nil
}

func (c *Collection) CreateEmoji(ctx context.Context, guildID, name string, image []byte) (assets.Emoji, error) {
	e, err := c.s.GuildEmojiCreate(guildID, &discordgo.EmojiParams{
		Name:  name,
		Image: dataURI(image),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return assets.Emoji{}, err
	}
	return assets.Emoji{ID: e.ID, Name: e.Name, Animated: e.Animated}, nil
}

func (c *Collection) DeleteEmoji(ctx context.Context, guildID, emojiID string) error {
	return c.s.GuildEmojiDelete(guildID, emojiID, discordgo.WithContext(ctx))
}

func (c *Collection) RenameEmoji(ctx context.Context, guildID, emojiID, newName string) (assets.Emoji, error) {
	e, err := c.s.GuildEmojiEdit(guildID, emojiID, &discordgo.EmojiParams{Name: newName}, discordgo.WithContext(ctx))
	if err != nil {
		return assets.Emoji{}, err
	}
	return assets.Emoji{ID: e.ID, Name: e.Name, Animated: e.Animated}, nil
}

func (c *Collection) Stickers(ctx context.Context, guildID string) ([]assets.Sticker, error) {
	body, err := c.s.RequestWithBucketID(http.MethodGet, stickersEndpoint(guildID), nil,
		stickersEndpoint(guildID), discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	var list []*discordgo.Sticker
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, errors.Wrap(err, "decoding sticker list")
	}
	out := make([]assets.Sticker, 0, len(list))
	for _, s := range list {
		out = append(out, assets.Sticker{ID: s.ID, Name: s.Name})
	}
	return out, nil
}

func (c *Collection) CreateSticker(ctx context.Context, guildID, name, description, fileName string, file []byte) (assets.Sticker, error) {
	contentType, body, err := stickerUploadBody(name, description, fileName, file)
	if err != nil {
		return assets.Sticker{}, err
	}

	endpoint := stickersEndpoint(guildID)
	resp, err := c.s.RequestWithLockedBucket(http.MethodPost, endpoint, contentType, body,
		c.s.Ratelimiter.LockBucket(endpoint), 0, discordgo.WithContext(ctx))
	if err != nil {
		return assets.Sticker{}, err
	}
	var s discordgo.Sticker
	if err := json.Unmarshal(resp, &s); err != nil {
		return assets.Sticker{}, errors.Wrap(err, "decoding created sticker")
	}
	return assets.Sticker{ID: s.ID, Name: s.Name}, nil
}

func (c *Collection) DeleteSticker(ctx context.Context, guildID, stickerID string) error {
	_, err := c.s.RequestWithBucketID(http.MethodDelete, stickersEndpoint(guildID)+"/"+stickerID, nil,
		stickersEndpoint(guildID), discordgo.WithContext(ctx))
	return err
}

func (c *Collection) RenameSticker(ctx context.Context, guildID, stickerID, newName string) (assets.Sticker, error) {
	payload := struct {
		Name string `json:"name"`
	}{Name: newName}
	body, err := c.s.RequestWithBucketID(http.MethodPatch, stickersEndpoint(guildID)+"/"+stickerID, payload,
		stickersEndpoint(guildID), discordgo.WithContext(ctx))
	if err != nil {
		return assets.Sticker{}, err
	}
	var s discordgo.Sticker
	if err := json.Unmarshal(body, &s); err != nil {
		return assets.Sticker{}, errors.Wrap(err, "decoding renamed sticker")
	}
	return assets.Sticker{ID: s.ID, Name: s.Name}, nil
}

func stickersEndpoint(guildID string) string {
	return discordgo.EndpointGuild(guildID) + "/stickers"
}

func dataURI(image []byte) string {
	return "data:" + http.DetectContentType(image) + ";base64," + base64.StdEncoding.EncodeToString(image)
}
