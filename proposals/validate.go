package proposals

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

var emojiNameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{2,32}$`)

// ValidEmojiName reports whether name is acceptable as a custom emoji
// name: 2 to 32 alphanumeric characters or underscores.
func ValidEmojiName(name string) bool {
	return emojiNameRe.MatchString(name)
}

// ValidStickerName reports whether name is acceptable as a sticker name.
// Sticker names are freer than emoji names, but a colon would break the
// :name: notation used everywhere in poll messages.
func ValidStickerName(name string) bool {
	if len(name) < 2 || len(name) > 30 {
		return false
	}
	return !strings.Contains(name, ":")
}

var (
	emojiImageExts   = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true}
	stickerImageExts = map[string]bool{".png": true, ".apng": true}
)

// ValidEmojiImageURL reports whether raw is an http(s) URL whose path
// ends in an image format emoji uploads accept.
func ValidEmojiImageURL(raw string) bool {
	return validImageURL(raw, emojiImageExts)
}

// ValidStickerImageURL reports whether raw is an http(s) URL whose path
// ends in an image format sticker uploads accept.
func ValidStickerImageURL(raw string) bool {
	return validImageURL(raw, stickerImageExts)
}

func validImageURL(raw string, exts map[string]bool) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return exts[strings.ToLower(path.Ext(u.Path))]
}
