package poll

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ErrExists is returned by Create when a record with the same
// (guild, channel, message) key is already present.
var ErrExists = errors.New("poll record already exists")

// Store is the single bridge between the proposal commands and the
// scheduler loop. Implementations must survive process restarts.
type Store interface {
	Create(r Record) error
	ListOpen() ([]Record, error)
	Remove(r Record) error
	CountOpenByCreator(guildID, creatorID string) (int, error)
}

// FSStore keeps one file per open poll under
// <root>/<guildID>/<channelID>/<messageID>_<kind>, so the full set of
// open polls can be rebuilt by plain directory listing. The file body is
// a small JSON document carrying the creator ID for quota checks.
type FSStore struct {
	root string
}

var _ Store = (*FSStore)(nil)

func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating poll store root")
	}
	return &FSStore{root: root}, nil
}

// Create writes the record, creating the guild and channel partitions as
// needed. Racing creations of the same partition are not errors; racing
// creations of the same record key are.
func (s *FSStore) Create(r Record) error {
	dir := filepath.Join(s.root, r.GuildID, r.ChannelID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating poll partition")
	}

	f, err := os.OpenFile(s.recordPath(r), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return ErrExists
		}
		return errors.Wrap(err, "creating poll record")
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(r); err != nil {
		return errors.Wrap(err, "writing poll record")
	}
	return nil
}

// ListOpen enumerates every record currently on disk. Entries that do not
// parse as records are skipped rather than failing the listing.
func (s *FSStore) ListOpen() ([]Record, error) {
	var records []Record

	guilds, err := os.ReadDir(s.root)
	if err != nil {
		return nil, errors.Wrap(err, "listing poll store")
	}
	for _, g := range guilds {
		if !g.IsDir() {
			continue
		}
		channels, err := os.ReadDir(filepath.Join(s.root, g.Name()))
		if err != nil {
			return nil, errors.Wrap(err, "listing guild partition")
		}
		for _, c := range channels {
			if !c.IsDir() {
				continue
			}
			entries, err := os.ReadDir(filepath.Join(s.root, g.Name(), c.Name()))
			if err != nil {
				return nil, errors.Wrap(err, "listing channel partition")
			}
			for _, e := range entries {
				if e.IsDir() {
					continue
				}
				r, ok := s.readRecord(g.Name(), c.Name(), e.Name())
				if !ok {
					continue
				}
				records = append(records, r)
			}
		}
	}
	return records, nil
}

// Remove deletes the record. A record that is already gone, for example
// because a concurrent scheduler pass removed it first, is a no-op.
func (s *FSStore) Remove(r Record) error {
	err := os.Remove(s.recordPath(r))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "removing poll record")
	}
	return nil
}

// CountOpenByCreator counts the creator's open polls in one guild, for
// enforcing the per-user limit at proposal time.
func (s *FSStore) CountOpenByCreator(guildID, creatorID string) (int, error) {
	records, err := s.ListOpen()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range records {
		if r.GuildID == guildID && r.CreatorID == creatorID {
			n++
		}
	}
	return n, nil
}

func (s *FSStore) recordPath(r Record) string {
	return filepath.Join(s.root, r.GuildID, r.ChannelID, r.MessageID+"_"+r.Kind.String())
}

func (s *FSStore) readRecord(guildID, channelID, name string) (Record, bool) {
	messageID, token, found := strings.Cut(name, "_")
	if !found || messageID == "" {
		return Record{}, false
	}
	kind, err := ParseKind(token)
	if err != nil {
		return Record{}, false
	}

	r := Record{
		GuildID:   guildID,
		ChannelID: channelID,
		MessageID: messageID,
		Kind:      kind,
	}

	// Body may be empty for records written by older revisions; the
	// creator is then simply unknown and never counted against a quota.
	data, err := os.ReadFile(filepath.Join(s.root, guildID, channelID, name))
	if err == nil && len(data) > 0 {
		_ = json.Unmarshal(data, &r)
	}
	return r, true
}
