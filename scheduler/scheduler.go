// Package scheduler runs the poll lifecycle loop: it periodically scans
// the record store, closes polls older than the configured duration,
// tallies and evaluates their votes, applies passing mutations, and
// posts the outcome back to the poll's channel.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/emotegov/emotegov/assets"
	"github.com/emotegov/emotegov/poll"
	"github.com/emotegov/emotegov/pollmsg"
)

const reactionPageSize = 100

// Session is the slice of the discordgo session the scheduler needs;
// *discordgo.Session satisfies it directly.
type Session interface {
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactions(channelID, messageID, emojiID string, limit int, beforeID, afterID string, options ...discordgo.RequestOption) ([]*discordgo.User, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendReply(channelID, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
}

// Config is the scheduler's slice of the bot configuration.
type Config struct {
	PollDuration  time.Duration
	CheckInterval time.Duration
	PassThreshold float64
	MinimumVotes  float64
	YesEmoji      string
	NoEmoji       string
	DigestHours   []int
	AutoApply     bool

	// RecordTimeout bounds all external calls for one record, so a hung
	// platform call cannot stall closure of the other polls.
	RecordTimeout time.Duration
}

type Scheduler struct {
	session    Session
	store      poll.Store
	applier    *assets.Applier
	normalizer *assets.Normalizer
	tally      poll.TallyConfig
	cfg        Config
	clock      clockwork.Clock
	log        *logrus.Entry

	lastDigest time.Time
}

func New(session Session, store poll.Store, applier *assets.Applier, normalizer *assets.Normalizer,
	tally poll.TallyConfig, cfg Config, clock clockwork.Clock, log *logrus.Entry) *Scheduler {
	if cfg.RecordTimeout <= 0 {
		cfg.RecordTimeout = 2 * time.Minute
	}
	return &Scheduler{
		session:    session,
		store:      store,
		applier:    applier,
		normalizer: normalizer,
		tally:      tally,
		cfg:        cfg,
		clock:      clock,
		log:        log,
	}
}

// Run loops until ctx is cancelled. A record being processed when the
// cancellation arrives is finished before Run returns.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.WithField("interval", s.cfg.CheckInterval).Info("poll scheduler started")
	ticker := s.clock.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("poll scheduler stopped")
			return
		case <-ticker.Chan():
			s.tick(ctx)
		}
	}
}

// tick is one full scheduler pass. Errors are isolated per record: one
// failing poll never blocks the others.
func (s *Scheduler) tick(ctx context.Context) {
	records, err := s.store.ListOpen()
	if err != nil {
		s.log.WithError(err).Error("listing open polls")
		return
	}

	for _, r := range records {
		if ctx.Err() != nil {
			return
		}
		if err := s.process(ctx, r); err != nil {
			s.log.WithError(err).WithField("poll", r.Key()).Warn("processing poll")
		}
	}

	s.maybePostDigest(ctx)
}

func (s *Scheduler) process(ctx context.Context, r poll.Record) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RecordTimeout)
	defer cancel()

	msg, err := s.session.ChannelMessage(r.ChannelID, r.MessageID, discordgo.WithContext(ctx))
	if err != nil {
		if isGone(err) {
			// Message or channel deleted out-of-band; nobody is left to
			// notify, so just drop the record.
			s.log.WithField("poll", r.Key()).Info("poll message gone, removing record")
			return s.store.Remove(r)
		}
		return errors.Wrap(err, "fetching poll message")
	}

	// Age is always recomputed from the live message timestamp, never
	// cached in the record.
	if s.clock.Since(msg.Timestamp) < s.cfg.PollDuration {
		return nil
	}
	return s.close(ctx, r, msg)
}

func (s *Scheduler) close(ctx context.Context, r poll.Record, msg *discordgo.Message) error {
	prop, err := pollmsg.Parse(msg)
	if err != nil {
		// The message no longer looks like a poll; it can never close
		// normally, so remove the record rather than retrying forever.
		s.log.WithError(err).WithField("poll", r.Key()).Warn("unreadable poll message, removing record")
		return s.store.Remove(r)
	}

	yesVoters, err := s.collectVoters(ctx, r, s.cfg.YesEmoji)
	if err != nil {
		return errors.Wrap(err, "collecting yes voters")
	}
	noVoters, err := s.collectVoters(ctx, r, s.cfg.NoEmoji)
	if err != nil {
		return errors.Wrap(err, "collecting no voters")
	}

	yes, no := s.tally.Tally(yesVoters, noVoters)
	outcome := poll.Evaluate(yes, no, s.cfg.MinimumVotes, s.cfg.PassThreshold)

	// The verdict is in: from here the poll closes exactly once, no
	// matter what the announcements or the mutation do.
	defer func() {
		if err := s.store.Remove(r); err != nil {
			s.log.WithError(err).WithField("poll", r.Key()).Error("removing closed poll record")
		}
	}()

	s.announce(ctx, msg, closeAnnouncement(r.Kind, prop, outcome))

	if outcome.Passed && s.cfg.AutoApply {
		s.applyAndAnnounce(ctx, r, msg, prop)
	}
	return nil
}

// collectVoters pages through the reaction's voter list; a page boundary
// must never drop or repeat a voter.
func (s *Scheduler) collectVoters(ctx context.Context, r poll.Record, emoji string) ([]poll.Voter, error) {
	var voters []poll.Voter
	after := ""
	for {
		users, err := s.session.MessageReactions(r.ChannelID, r.MessageID, emoji,
			reactionPageSize, "", after, discordgo.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			voters = append(voters, poll.Voter{
				ID:         u.ID,
				TenureDays: s.tenureDays(ctx, r.GuildID, u.ID),
			})
		}
		if len(users) < reactionPageSize {
			return voters, nil
		}
		after = users[len(users)-1].ID
	}
}

// tenureDays looks up how long the voter has been boosting. Only called
// for real when a tenure bonus policy is configured; an unknown member
// simply gets no bonus.
func (s *Scheduler) tenureDays(ctx context.Context, guildID, userID string) float64 {
	if s.tally.Bonus == nil {
		return 0
	}
	m, err := s.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil || m.PremiumSince == nil {
		return 0
	}
	return s.clock.Since(*m.PremiumSince).Hours() / 24
}

func (s *Scheduler) applyAndAnnounce(ctx context.Context, r poll.Record, msg *discordgo.Message, prop pollmsg.Proposal) {
	mut := assets.Mutation{
		Kind:    r.Kind,
		GuildID: r.GuildID,
		Name:    prop.Name,
		NewName: prop.NewName,
	}

	if r.Kind.NeedsImage() {
		path, err := s.normalizer.Normalize(ctx, prop.ImageURL)
		if err != nil {
			s.announce(ctx, msg, fmt.Sprintf("Failed to %s: %v", r.Kind.Pretty(), err))
			return
		}
		defer os.Remove(path)
		mut.ArtifactPath = path
	}

	res, err := s.applier.Apply(ctx, mut)
	s.announce(ctx, msg, applyAnnouncement(r.Kind, res, err))
}

func (s *Scheduler) announce(ctx context.Context, msg *discordgo.Message, content string) {
	_, err := s.session.ChannelMessageSendReply(msg.ChannelID, content, msg.Reference(), discordgo.WithContext(ctx))
	if err != nil {
		s.log.WithError(err).WithField("channel", msg.ChannelID).Warn("posting announcement")
	}
}

// isGone reports whether the platform says the message or its channel no
// longer exists.
func isGone(err error) bool {
	var rerr *discordgo.RESTError
	if !errors.As(err, &rerr) {
		return false
	}
	if rerr.Message != nil {
		switch rerr.Message.Code {
		case discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeUnknownMessage:
			return true
		}
	}
	return rerr.Response != nil && rerr.Response.StatusCode == 404
}
