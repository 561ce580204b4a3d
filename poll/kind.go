package poll

import "github.com/pkg/errors"

// Kind is the closed set of mutations a poll can propose.
type Kind int

const (
	AddEmoji Kind = iota
	DeleteEmoji
	RenameEmoji
	ChangeEmoji
	AddSticker
	DeleteSticker
	RenameSticker
	ChangeSticker
)

var kindTokens = map[Kind]string{
	AddEmoji:      "addemoji",
	DeleteEmoji:   "deleteemoji",
	RenameEmoji:   "renameemoji",
	ChangeEmoji:   "changeemoji",
	AddSticker:    "addsticker",
	DeleteSticker: "deletesticker",
	RenameSticker: "renamesticker",
	ChangeSticker: "changesticker",
}

var kindPretty = map[Kind]string{
	AddEmoji:      "add emoji",
	DeleteEmoji:   "delete emoji",
	RenameEmoji:   "rename emoji",
	ChangeEmoji:   "change emoji",
	AddSticker:    "add sticker",
	DeleteSticker: "delete sticker",
	RenameSticker: "rename sticker",
	ChangeSticker: "change sticker",
}

// String returns the stable token used in record filenames.
func (k Kind) String() string {
	return kindTokens[k]
}

// Pretty returns the human form used in announcements.
func (k Kind) Pretty() string {
	return kindPretty[k]
}

// Sticker reports whether the kind targets a sticker rather than an emoji.
func (k Kind) Sticker() bool {
	switch k {
	case AddSticker, DeleteSticker, RenameSticker, ChangeSticker:
		return true
	}
	return false
}

// NeedsImage reports whether applying the kind requires a normalized image.
func (k Kind) NeedsImage() bool {
	switch k {
	case AddEmoji, ChangeEmoji, AddSticker, ChangeSticker:
		return true
	}
	return false
}

// NeedsNewName reports whether the kind carries a second, target name.
func (k Kind) NeedsNewName() bool {
	return k == RenameEmoji || k == RenameSticker
}

// ParseKind maps a record-file token back to its Kind.
func ParseKind(token string) (Kind, error) {
	for k, t := range kindTokens {
		if t == token {
			return k, nil
		}
	}
	return 0, errors.Errorf("unknown poll kind %q", token)
}
