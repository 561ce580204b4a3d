// Package assets covers the guild's custom emoji and sticker set: the
// Collection interface over the platform's asset endpoints, the image
// normalizer that makes uploads fit the platform ceilings, and the
// applier that carries out a passed poll's mutation.
package assets

import (
	"context"
	"fmt"
)

// Emoji is one custom emoji as reported by the platform. The platform is
// the source of truth; this is never cached.
type Emoji struct {
	ID       string
	Name     string
	Animated bool
}

// MessageFormat returns the form that renders the emoji in a message.
func (e Emoji) MessageFormat() string {
	if e.Animated {
		return fmt.Sprintf("<a:%s:%s>", e.Name, e.ID)
	}
	return fmt.Sprintf("<:%s:%s>", e.Name, e.ID)
}

// Sticker is one custom sticker as reported by the platform.
type Sticker struct {
	ID   string
	Name string
}

// Collection is the guild asset collection. Every call goes straight to
// the platform; capacity ceilings are the platform's to enforce.
type Collection interface {
	Emojis(ctx context.Context, guildID string) ([]Emoji, error)
	Stickers(ctx context.Context, guildID string) ([]Sticker, error)

	CreateEmoji(ctx context.Context, guildID, name string, image []byte) (Emoji, error)
	CreateSticker(ctx context.Context, guildID, name, description, fileName string, file []byte) (Sticker, error)

	DeleteEmoji(ctx context.Context, guildID, emojiID string) error
	DeleteSticker(ctx context.Context, guildID, stickerID string) error

	RenameEmoji(ctx context.Context, guildID, emojiID, newName string) (Emoji, error)
	RenameSticker(ctx context.Context, guildID, stickerID, newName string) (Sticker, error)
}
