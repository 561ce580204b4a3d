package assets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emotegov/emotegov/poll"
)

type fakeCollection struct {
	emojis   []Emoji
	stickers []Sticker

	createEmojiCalls   int
	createStickerCalls int
	deletedEmojiIDs    []string
	deletedStickerIDs  []string
	renamedEmoji       map[string]string
	renamedSticker     map[string]string

	failCreate error
}

func (f *fakeCollection) Emojis(_ context.Context, _ string) ([]Emoji, error) {
	return f.emojis, nil
}

func (f *fakeCollection) Stickers(_ context.Context, _ string) ([]Sticker, error) {
	return f.stickers, nil
}

func (f *fakeCollection) CreateEmoji(_ context.Context, _, name string, image []byte) (Emoji, error) {
	f.createEmojiCalls++
	if f.failCreate != nil {
		return Emoji{}, f.failCreate
	}
	return Emoji{ID: "new", Name: name}, nil
}

func (f *fakeCollection) CreateSticker(_ context.Context, _, name, _, _ string, _ []byte) (Sticker, error) {
	f.createStickerCalls++
	if f.failCreate != nil {
		return Sticker{}, f.failCreate
	}
	return Sticker{ID: "new", Name: name}, nil
}

func (f *fakeCollection) DeleteEmoji(_ context.Context, _, emojiID string) error {
	f.deletedEmojiIDs = append(f.deletedEmojiIDs, emojiID)
	return nil
}

func (f *fakeCollection) DeleteSticker(_ context.Context, _, stickerID string) error {
	f.deletedStickerIDs = append(f.deletedStickerIDs, stickerID)
	return nil
}

func (f *fakeCollection) RenameEmoji(_ context.Context, _, emojiID, newName string) (Emoji, error) {
	if f.renamedEmoji == nil {
		f.renamedEmoji = map[string]string{}
	}
	f.renamedEmoji[emojiID] = newName
	return Emoji{ID: emojiID, Name: newName}, nil
}

func (f *fakeCollection) RenameSticker(_ context.Context, _, stickerID, newName string) (Sticker, error) {
	if f.renamedSticker == nil {
		f.renamedSticker = map[string]string{}
	}
	f.renamedSticker[stickerID] = newName
	return Sticker{ID: stickerID, Name: newName}, nil
}

func writeArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "artifact.png")
	require.NoError(t, os.WriteFile(path, []byte("imagebytes"), 0o644))
	return path
}

func TestApplyAddEmoji(t *testing.T) {
	col := &fakeCollection{}
	a := NewApplier(col)

	res, err := a.Apply(context.Background(), Mutation{
		Kind: poll.AddEmoji, GuildID: "g", Name: "foo", ArtifactPath: writeArtifact(t),
	})
	require.NoError(t, err)
	assert.Equal(t, Created, res.Status)
	assert.Equal(t, 1, col.createEmojiCalls)
	require.NotNil(t, res.Emoji)
	assert.Equal(t, "foo", res.Emoji.Name)
}

func TestApplyAddStickerUsesArtifactExtension(t *testing.T) {
	col := &fakeCollection{}
	a := NewApplier(col)

	res, err := a.Apply(context.Background(), Mutation{
		Kind: poll.AddSticker, GuildID: "g", Name: "foo", ArtifactPath: writeArtifact(t),
	})
	require.NoError(t, err)
	assert.Equal(t, Created, res.Status)
	assert.Equal(t, 1, col.createStickerCalls)
	require.NotNil(t, res.Sticker)
}

func TestApplyAddMissingArtifact(t *testing.T) {
	a := NewApplier(&fakeCollection{})

	_, err := a.Apply(context.Background(), Mutation{
		Kind: poll.AddEmoji, GuildID: "g", Name: "foo",
		ArtifactPath: filepath.Join(t.TempDir(), "missing.png"),
	})
	assert.Error(t, err)
}

func TestApplyDeleteEmoji(t *testing.T) {
	col := &fakeCollection{emojis: []Emoji{{ID: "1", Name: "foo"}, {ID: "2", Name: "bar"}}}
	a := NewApplier(col)

	res, err := a.Apply(context.Background(), Mutation{Kind: poll.DeleteEmoji, GuildID: "g", Name: "bar"})
	require.NoError(t, err)
	assert.Equal(t, Deleted, res.Status)
	assert.Equal(t, []string{"2"}, col.deletedEmojiIDs)
}

func TestApplyDeleteNotFound(t *testing.T) {
	// The asset vanishing between proposal and close is a normal outcome,
	// not an error, and no delete call may be made.
	col := &fakeCollection{emojis: []Emoji{{ID: "1", Name: "foo"}}}
	a := NewApplier(col)

	res, err := a.Apply(context.Background(), Mutation{Kind: poll.DeleteEmoji, GuildID: "g", Name: "gone"})
	require.NoError(t, err)
	assert.Equal(t, NotFound, res.Status)
	assert.Empty(t, col.deletedEmojiIDs)
}

func TestApplyDeleteStickerLookupIsCaseSensitive(t *testing.T) {
	col := &fakeCollection{stickers: []Sticker{{ID: "1", Name: "Foo"}}}
	a := NewApplier(col)

	res, err := a.Apply(context.Background(), Mutation{Kind: poll.DeleteSticker, GuildID: "g", Name: "foo"})
	require.NoError(t, err)
	assert.Equal(t, NotFound, res.Status)
}

func TestApplyRenameEmoji(t *testing.T) {
	col := &fakeCollection{emojis: []Emoji{{ID: "1", Name: "old"}}}
	a := NewApplier(col)

	res, err := a.Apply(context.Background(), Mutation{
		Kind: poll.RenameEmoji, GuildID: "g", Name: "old", NewName: "new",
	})
	require.NoError(t, err)
	assert.Equal(t, Renamed, res.Status)
	assert.Equal(t, "old", res.Name)
	assert.Equal(t, "new", res.NewName)
	assert.Equal(t, map[string]string{"1": "new"}, col.renamedEmoji)
}

func TestApplyChangeEmoji(t *testing.T) {
	col := &fakeCollection{emojis: []Emoji{{ID: "1", Name: "foo"}}}
	a := NewApplier(col)

	res, err := a.Apply(context.Background(), Mutation{
		Kind: poll.ChangeEmoji, GuildID: "g", Name: "foo", ArtifactPath: writeArtifact(t),
	})
	require.NoError(t, err)
	assert.Equal(t, Changed, res.Status)
	assert.Equal(t, []string{"1"}, col.deletedEmojiIDs)
	assert.Equal(t, 1, col.createEmojiCalls)
}

func TestApplyChangePartialFailure(t *testing.T) {
	// Creation failing after the old asset was deleted must be reported
	// distinctly: the asset may now be missing entirely.
	col := &fakeCollection{
		emojis:     []Emoji{{ID: "1", Name: "foo"}},
		failCreate: errors.New("upload rejected"),
	}
	a := NewApplier(col)

	res, err := a.Apply(context.Background(), Mutation{
		Kind: poll.ChangeEmoji, GuildID: "g", Name: "foo", ArtifactPath: writeArtifact(t),
	})
	require.Error(t, err)
	assert.Equal(t, PartialFailure, res.Status)
	assert.Equal(t, []string{"1"}, col.deletedEmojiIDs)
}

func TestEmojiMessageFormat(t *testing.T) {
	assert.Equal(t, "<:foo:1>", Emoji{ID: "1", Name: "foo"}.MessageFormat())
	assert.Equal(t, "<a:foo:1>", Emoji{ID: "1", Name: "foo", Animated: true}.MessageFormat())
}
