package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/emotegov/emotegov/pollmsg"
)

// Platform hard limit on message length; digests are split, never
// truncated.
const maxMessageLen = 2000

const digestHeader = "Here's an update on currently active polls:\n"

// maybePostDigest posts the open-poll digest when a configured UTC hour
// is reached, at most once per wall-clock hour.
func (s *Scheduler) maybePostDigest(ctx context.Context) {
	if len(s.cfg.DigestHours) == 0 {
		return
	}
	now := s.clock.Now().UTC()
	if !digestHour(s.cfg.DigestHours, now.Hour()) {
		return
	}
	hour := now.Truncate(time.Hour)
	if hour.Equal(s.lastDigest) {
		return
	}
	s.lastDigest = hour
	s.postDigest(ctx)
}

func (s *Scheduler) postDigest(ctx context.Context) {
	records, err := s.store.ListOpen()
	if err != nil {
		s.log.WithError(err).Error("listing open polls for digest")
		return
	}

	lines := make(map[string][]string)
	for _, r := range records {
		msg, err := s.session.ChannelMessage(r.ChannelID, r.MessageID, discordgo.WithContext(ctx))
		if err != nil {
			continue
		}
		prop, err := pollmsg.Parse(msg)
		if err != nil {
			continue
		}
		lines[r.ChannelID] = append(lines[r.ChannelID], fmt.Sprintf(
			"> https://discord.com/channels/%s/%s/%s %s `%s`\n",
			r.GuildID, r.ChannelID, r.MessageID, r.Kind.Pretty(), prop.Name,
		))
	}

	for channelID, ls := range lines {
		s.sendChunked(ctx, channelID, ls)
	}
}

// sendChunked sends the digest in as many messages as the length ceiling
// requires.
func (s *Scheduler) sendChunked(ctx context.Context, channelID string, lines []string) {
	message := digestHeader
	for _, line := range lines {
		if len(message)+len(line) > maxMessageLen {
			s.send(ctx, channelID, message)
			message = ""
		}
		message += line
	}
	if message != "" && message != digestHeader {
		s.send(ctx, channelID, message)
	}
}

func (s *Scheduler) send(ctx context.Context, channelID, content string) {
	if _, err := s.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx)); err != nil {
		s.log.WithError(err).WithField("channel", channelID).Warn("posting digest")
	}
}

func digestHour(hours []int, hour int) bool {
	for _, h := range hours {
		if h == hour {
			return true
		}
	}
	return false
}
