// Package config loads and validates the bot configuration once at
// startup. The result is immutable afterwards. The bot token is
// deliberately not part of this file: its rendered contents are shown to
// anyone on the server by the show-config command.
package config

import (
	"os"
	"time"

	"github.com/karrick/tparse/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the full validated configuration surface.
type Config struct {
	// Fraction of weighted votes that must be yes for a poll to pass.
	PassThreshold float64
	// How long a poll stays open, measured from its message timestamp.
	PollDuration time.Duration
	// How often the scheduler scans for closable polls.
	CheckInterval time.Duration
	// Reaction glyphs seeded on every poll message.
	YesEmoji string
	NoEmoji  string
	// Minimum weighted participation for a poll to be valid at all.
	MinimumVotes float64

	// Privileged voters and the multiplicative weight of their votes.
	PrivilegedUserIDs    []string
	PrivilegedVoteWeight float64

	// Channels where proposal commands are accepted, per guild.
	AllowedChannels map[string][]string
	// Asset names the bot refuses to touch.
	ProtectedNames []string
	// UTC hours at which the open-poll digest is posted.
	DigestHours []int
	// Maximum simultaneously open polls per user per guild.
	PollsPerUserLimit int

	// Platform ceilings for normalized images.
	MaxPixelArea int
	MaxByteSize  int64

	// How long non-ephemeral notices stay up before self-deleting.
	DeleteNoticesAfter time.Duration
	// Whether passed polls are applied automatically.
	AutoApply bool
	// Directory holding the open-poll records.
	StateDir string

	raw []byte
}

// fileConfig is the YAML shape; durations are human strings.
type fileConfig struct {
	PassThreshold        *float64            `yaml:"pass_threshold"`
	PollDuration         string              `yaml:"poll_duration"`
	CheckInterval        string              `yaml:"check_interval"`
	YesEmoji             string              `yaml:"yes_emoji"`
	NoEmoji              string              `yaml:"no_emoji"`
	MinimumVotes         *float64            `yaml:"minimum_votes"`
	PrivilegedUserIDs    []string            `yaml:"privileged_user_ids"`
	PrivilegedVoteWeight *float64            `yaml:"privileged_vote_weight"`
	AllowedChannels      map[string][]string `yaml:"allowed_channels"`
	ProtectedNames       []string            `yaml:"protected_names"`
	DigestHours          []int               `yaml:"digest_hours"`
	PollsPerUserLimit    *int                `yaml:"polls_per_user_limit"`
	MaxPixelArea         *int                `yaml:"max_pixel_area"`
	MaxByteSize          *int64              `yaml:"max_byte_size"`
	DeleteNoticesAfter   string              `yaml:"delete_notices_after"`
	AutoApply            *bool               `yaml:"auto_apply"`
	StateDir             string              `yaml:"state_dir"`
}

// Default returns the configuration used when no file is given. The
// image ceilings are set by the platform; be careful raising them.
func Default() *Config {
	return &Config{
		PassThreshold:        2.0 / 3.0,
		PollDuration:         24 * time.Hour,
		CheckInterval:        10 * time.Minute,
		YesEmoji:             "✅",
		NoEmoji:              "❌",
		MinimumVotes:         1,
		PrivilegedVoteWeight: 1,
		PollsPerUserLimit:    2,
		MaxPixelArea:         320 * 320,
		MaxByteSize:          256000,
		DeleteNoticesAfter:   5 * time.Second,
		AutoApply:            true,
		StateDir:             "active_polls",
	}
}

// Load reads and validates the YAML file at path. An empty path yields
// the defaults. Any problem here is fatal to startup by design.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}
	cfg.raw = raw

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}
	if err := cfg.apply(fc); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) apply(fc fileConfig) error {
	if fc.PassThreshold != nil {
		c.PassThreshold = *fc.PassThreshold
	}
	if fc.MinimumVotes != nil {
		c.MinimumVotes = *fc.MinimumVotes
	}
	if fc.PrivilegedVoteWeight != nil {
		c.PrivilegedVoteWeight = *fc.PrivilegedVoteWeight
	}
	if fc.PollsPerUserLimit != nil {
		c.PollsPerUserLimit = *fc.PollsPerUserLimit
	}
	if fc.MaxPixelArea != nil {
		c.MaxPixelArea = *fc.MaxPixelArea
	}
	if fc.MaxByteSize != nil {
		c.MaxByteSize = *fc.MaxByteSize
	}
	if fc.AutoApply != nil {
		c.AutoApply = *fc.AutoApply
	}
	if fc.YesEmoji != "" {
		c.YesEmoji = fc.YesEmoji
	}
	if fc.NoEmoji != "" {
		c.NoEmoji = fc.NoEmoji
	}
	if fc.StateDir != "" {
		c.StateDir = fc.StateDir
	}
	c.PrivilegedUserIDs = fc.PrivilegedUserIDs
	c.AllowedChannels = fc.AllowedChannels
	c.ProtectedNames = fc.ProtectedNames
	c.DigestHours = fc.DigestHours

	for _, d := range []struct {
		value string
		dst   *time.Duration
		name  string
	}{
		{fc.PollDuration, &c.PollDuration, "poll_duration"},
		{fc.CheckInterval, &c.CheckInterval, "check_interval"},
		{fc.DeleteNoticesAfter, &c.DeleteNoticesAfter, "delete_notices_after"},
	} {
		if d.value == "" {
			continue
		}
		parsed, err := tparse.AbsoluteDuration(time.Now(), d.value)
		if err != nil {
			return errors.Wrapf(err, "parsing %s", d.name)
		}
		*d.dst = parsed
	}
	return nil
}

func (c *Config) validate() error {
	if c.PassThreshold <= 0 || c.PassThreshold > 1 {
		return errors.Errorf("pass_threshold must be in (0, 1], got %v", c.PassThreshold)
	}
	if c.PollDuration <= 0 {
		return errors.New("poll_duration must be positive")
	}
	if c.CheckInterval <= 0 {
		return errors.New("check_interval must be positive")
	}
	if c.MinimumVotes < 0 {
		return errors.New("minimum_votes must not be negative")
	}
	if c.PrivilegedVoteWeight < 0 {
		return errors.New("privileged_vote_weight must not be negative")
	}
	if c.PollsPerUserLimit < 1 {
		return errors.New("polls_per_user_limit must be at least 1")
	}
	if c.MaxPixelArea <= 0 || c.MaxByteSize <= 0 {
		return errors.New("image ceilings must be positive")
	}
	for _, h := range c.DigestHours {
		if h < 0 || h > 23 {
			return errors.Errorf("digest hour %d out of range", h)
		}
	}
	return nil
}

// Privileged returns the privileged user set as a lookup map.
func (c *Config) Privileged() map[string]bool {
	m := make(map[string]bool, len(c.PrivilegedUserIDs))
	for _, id := range c.PrivilegedUserIDs {
		m[id] = true
	}
	return m
}

// ChannelAllowed reports whether proposals are accepted in the channel.
// A guild with no configured channels accepts proposals nowhere.
func (c *Config) ChannelAllowed(guildID, channelID string) bool {
	for _, id := range c.AllowedChannels[guildID] {
		if id == channelID {
			return true
		}
	}
	return false
}

// Protected reports whether the asset name is off-limits to polls.
func (c *Config) Protected(name string) bool {
	for _, n := range c.ProtectedNames {
		if n == name {
			return true
		}
	}
	return false
}

// Render returns the configuration as shown by the show-config command:
// the raw file when one was loaded, the defaults marshaled otherwise.
func (c *Config) Render() string {
	if len(c.raw) > 0 {
		return string(c.raw)
	}
	out, err := yaml.Marshal(map[string]interface{}{
		"pass_threshold":         c.PassThreshold,
		"poll_duration":          c.PollDuration.String(),
		"check_interval":         c.CheckInterval.String(),
		"yes_emoji":              c.YesEmoji,
		"no_emoji":               c.NoEmoji,
		"minimum_votes":          c.MinimumVotes,
		"privileged_user_ids":    c.PrivilegedUserIDs,
		"privileged_vote_weight": c.PrivilegedVoteWeight,
		"allowed_channels":       c.AllowedChannels,
		"protected_names":        c.ProtectedNames,
		"digest_hours":           c.DigestHours,
		"polls_per_user_limit":   c.PollsPerUserLimit,
		"max_pixel_area":         c.MaxPixelArea,
		"max_byte_size":          c.MaxByteSize,
		"delete_notices_after":   c.DeleteNoticesAfter.String(),
		"auto_apply":             c.AutoApply,
		"state_dir":              c.StateDir,
	})
	if err != nil {
		return ""
	}
	return string(out)
}
