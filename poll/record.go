package poll

import "fmt"

// Record is the durable unit of state for one open poll. The referenced
// message carries everything else (asset name, image URL, creation time),
// so the record never caches any of it.
type Record struct {
	GuildID   string `json:"-"`
	ChannelID string `json:"-"`
	MessageID string `json:"-"`
	Kind      Kind   `json:"-"`
	CreatorID string `json:"creator_id"`
}

// Key identifies a record uniquely within a store.
func (r Record) Key() string {
	return fmt.Sprintf("%s/%s/%s_%s", r.GuildID, r.ChannelID, r.MessageID, r.Kind)
}

func (r Record) String() string {
	return r.Key()
}
