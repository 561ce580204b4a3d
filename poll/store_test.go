package poll

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FSStore {
	t.Helper()
	s, err := NewFSStore(filepath.Join(t.TempDir(), "active_polls"))
	require.NoError(t, err)
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)

	r := Record{
		GuildID:   "100",
		ChannelID: "200",
		MessageID: "300",
		Kind:      AddEmoji,
		CreatorID: "400",
	}
	require.NoError(t, s.Create(r))

	open, err := s.ListOpen()
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, r, open[0])

	require.NoError(t, s.Remove(r))
	open, err = s.ListOpen()
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestStoreRemoveAbsentRecord(t *testing.T) {
	s := newTestStore(t)

	r := Record{GuildID: "1", ChannelID: "2", MessageID: "3", Kind: DeleteSticker}
	assert.NoError(t, s.Remove(r))

	// Removing twice must also be a no-op.
	require.NoError(t, s.Create(r))
	require.NoError(t, s.Remove(r))
	assert.NoError(t, s.Remove(r))
}

func TestStoreDuplicateKeyRejected(t *testing.T) {
	s := newTestStore(t)

	r := Record{GuildID: "1", ChannelID: "2", MessageID: "3", Kind: RenameEmoji}
	require.NoError(t, s.Create(r))
	assert.ErrorIs(t, s.Create(r), ErrExists)
}

func TestStoreConcurrentCreateSameChannel(t *testing.T) {
	s := newTestStore(t)

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Create(Record{
				GuildID:   "1",
				ChannelID: "2",
				MessageID: string(rune('a' + i)),
				Kind:      AddSticker,
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	open, err := s.ListOpen()
	require.NoError(t, err)
	assert.Len(t, open, 10)
}

func TestStoreSurvivesReopen(t *testing.T) {
	root := filepath.Join(t.TempDir(), "active_polls")
	s, err := NewFSStore(root)
	require.NoError(t, err)

	r := Record{GuildID: "g", ChannelID: "c", MessageID: "m", Kind: ChangeEmoji, CreatorID: "u"}
	require.NoError(t, s.Create(r))

	reopened, err := NewFSStore(root)
	require.NoError(t, err)
	open, err := reopened.ListOpen()
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, r, open[0])
}

func TestStoreToleratesEmptyRecordBody(t *testing.T) {
	s := newTestStore(t)

	dir := filepath.Join(s.root, "g", "c")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "m_deleteemoji"), nil, 0o644))

	open, err := s.ListOpen()
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, DeleteEmoji, open[0].Kind)
	assert.Empty(t, open[0].CreatorID)
}

func TestStoreSkipsForeignEntries(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Create(Record{GuildID: "g", ChannelID: "c", MessageID: "m", Kind: AddEmoji}))
	dir := filepath.Join(s.root, "g", "c")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "m_bogustype"), nil, 0o644))

	open, err := s.ListOpen()
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestStoreCountOpenByCreator(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Create(Record{GuildID: "g", ChannelID: "c", MessageID: "1", Kind: AddEmoji, CreatorID: "u"}))
	require.NoError(t, s.Create(Record{GuildID: "g", ChannelID: "c2", MessageID: "2", Kind: AddSticker, CreatorID: "u"}))
	require.NoError(t, s.Create(Record{GuildID: "g", ChannelID: "c", MessageID: "3", Kind: AddEmoji, CreatorID: "other"}))
	require.NoError(t, s.Create(Record{GuildID: "g2", ChannelID: "c", MessageID: "4", Kind: AddEmoji, CreatorID: "u"}))

	n, err := s.CountOpenByCreator("g", "u")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestKindTokenRoundTrip(t *testing.T) {
	for _, k := range []Kind{
		AddEmoji, DeleteEmoji, RenameEmoji, ChangeEmoji,
		AddSticker, DeleteSticker, RenameSticker, ChangeSticker,
	} {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	_, err := ParseKind("explodeemoji")
	assert.Error(t, err)
}
