package assets

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/emotegov/emotegov/poll"
)

// Status classifies the outcome of applying a passed poll.
type Status int

const (
	// Applied outcomes.
	Created Status = iota
	Deleted
	Renamed
	Changed

	// NotFound is a normal, reportable outcome: the asset was removed
	// out-of-band between proposal and close.
	NotFound

	// PartialFailure means a change deleted the old asset but failed to
	// create its replacement; the asset may now be missing entirely.
	PartialFailure
)

// Mutation is one passed poll's requested change, recovered from the
// poll message by the scheduler.
type Mutation struct {
	Kind    poll.Kind
	GuildID string
	Name    string
	NewName string

	// ArtifactPath points at the normalized image for kinds that need
	// one. The scheduler owns the file.
	ArtifactPath string
}

// Result carries enough data for the caller to format the announcement.
// When the returned error is non-nil the Status is still meaningful:
// PartialFailure in the broken-change case, otherwise the zero value.
type Result struct {
	Status  Status
	Name    string
	NewName string
	Emoji   *Emoji
	Sticker *Sticker
}

const stickerDescription = "sticker added by poll"

// Applier performs the idempotent-once mutation for a closed, passed
// poll against the guild asset collection.
type Applier struct {
	col Collection
}

func NewApplier(col Collection) *Applier {
	return &Applier{col: col}
}

// Apply dispatches on the mutation kind. Lookups are by current name,
// case-sensitive, against the live collection.
func (a *Applier) Apply(ctx context.Context, m Mutation) (Result, error) {
	switch m.Kind {
	case poll.AddEmoji, poll.AddSticker:
		return a.add(ctx, m)
	case poll.DeleteEmoji, poll.DeleteSticker:
		return a.delete(ctx, m)
	case poll.RenameEmoji, poll.RenameSticker:
		return a.rename(ctx, m)
	case poll.ChangeEmoji, poll.ChangeSticker:
		return a.change(ctx, m)
	}
	return Result{}, errors.Errorf("unhandled poll kind %v", m.Kind)
}

func (a *Applier) add(ctx context.Context, m Mutation) (Result, error) {
	file, err := os.ReadFile(m.ArtifactPath)
	if err != nil {
		return Result{}, errors.Wrap(err, "reading normalized image")
	}

	res := Result{Status: Created, Name: m.Name}
	if m.Kind.Sticker() {
		s, err := a.col.CreateSticker(ctx, m.GuildID, m.Name, stickerDescription, stickerFileName(m.ArtifactPath), file)
		if err != nil {
			return Result{}, errors.Wrap(err, "creating sticker")
		}
		res.Sticker = &s
	} else {
		e, err := a.col.CreateEmoji(ctx, m.GuildID, m.Name, file)
		if err != nil {
			return Result{}, errors.Wrap(err, "creating emoji")
		}
		res.Emoji = &e
	}
	return res, nil
}

func (a *Applier) delete(ctx context.Context, m Mutation) (Result, error) {
	res := Result{Status: Deleted, Name: m.Name}
	if m.Kind.Sticker() {
		s, ok, err := a.findSticker(ctx, m.GuildID, m.Name)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{Status: NotFound, Name: m.Name}, nil
		}
		if err := a.col.DeleteSticker(ctx, m.GuildID, s.ID); err != nil {
			return Result{}, errors.Wrap(err, "deleting sticker")
		}
		res.Sticker = &s
	} else {
		e, ok, err := a.findEmoji(ctx, m.GuildID, m.Name)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{Status: NotFound, Name: m.Name}, nil
		}
		if err := a.col.DeleteEmoji(ctx, m.GuildID, e.ID); err != nil {
			return Result{}, errors.Wrap(err, "deleting emoji")
		}
		res.Emoji = &e
	}
	return res, nil
}

func (a *Applier) rename(ctx context.Context, m Mutation) (Result, error) {
	res := Result{Status: Renamed, Name: m.Name, NewName: m.NewName}
	if m.Kind.Sticker() {
		s, ok, err := a.findSticker(ctx, m.GuildID, m.Name)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{Status: NotFound, Name: m.Name}, nil
		}
		renamed, err := a.col.RenameSticker(ctx, m.GuildID, s.ID, m.NewName)
		if err != nil {
			return Result{}, errors.Wrap(err, "renaming sticker")
		}
		res.Sticker = &renamed
	} else {
		e, ok, err := a.findEmoji(ctx, m.GuildID, m.Name)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{Status: NotFound, Name: m.Name}, nil
		}
		renamed, err := a.col.RenameEmoji(ctx, m.GuildID, e.ID, m.NewName)
		if err != nil {
			return Result{}, errors.Wrap(err, "renaming emoji")
		}
		res.Emoji = &renamed
	}
	return res, nil
}

// change is delete-then-create with no platform-level atomicity. If the
// creation fails after the deletion succeeded, the caller must warn that
// the asset is now gone, so that case gets its own status.
func (a *Applier) change(ctx context.Context, m Mutation) (Result, error) {
	file, err := os.ReadFile(m.ArtifactPath)
	if err != nil {
		return Result{}, errors.Wrap(err, "reading normalized image")
	}

	res := Result{Status: Changed, Name: m.Name}
	if m.Kind.Sticker() {
		s, ok, err := a.findSticker(ctx, m.GuildID, m.Name)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{Status: NotFound, Name: m.Name}, nil
		}
		if err := a.col.DeleteSticker(ctx, m.GuildID, s.ID); err != nil {
			return Result{}, errors.Wrap(err, "deleting old sticker")
		}
		created, err := a.col.CreateSticker(ctx, m.GuildID, m.Name, stickerDescription, stickerFileName(m.ArtifactPath), file)
		if err != nil {
			return Result{Status: PartialFailure, Name: m.Name}, errors.Wrap(err, "recreating sticker after deletion")
		}
		res.Sticker = &created
	} else {
		e, ok, err := a.findEmoji(ctx, m.GuildID, m.Name)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{Status: NotFound, Name: m.Name}, nil
		}
		if err := a.col.DeleteEmoji(ctx, m.GuildID, e.ID); err != nil {
			return Result{}, errors.Wrap(err, "deleting old emoji")
		}
		created, err := a.col.CreateEmoji(ctx, m.GuildID, m.Name, file)
		if err != nil {
			return Result{Status: PartialFailure, Name: m.Name}, errors.Wrap(err, "recreating emoji after deletion")
		}
		res.Emoji = &created
	}
	return res, nil
}

func (a *Applier) findEmoji(ctx context.Context, guildID, name string) (Emoji, bool, error) {
	emojis, err := a.col.Emojis(ctx, guildID)
	if err != nil {
		return Emoji{}, false, errors.Wrap(err, "listing emojis")
	}
	for _, e := range emojis {
		if e.Name == name {
			return e, true, nil
		}
	}
	return Emoji{}, false, nil
}

func (a *Applier) findSticker(ctx context.Context, guildID, name string) (Sticker, bool, error) {
	stickers, err := a.col.Stickers(ctx, guildID)
	if err != nil {
		return Sticker{}, false, errors.Wrap(err, "listing stickers")
	}
	for _, s := range stickers {
		if s.Name == name {
			return s, true, nil
		}
	}
	return Sticker{}, false, nil
}

func stickerFileName(artifactPath string) string {
	return "sticker" + filepath.Ext(artifactPath)
}
