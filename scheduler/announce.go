package scheduler

import (
	"fmt"

	"github.com/emotegov/emotegov/assets"
	"github.com/emotegov/emotegov/poll"
	"github.com/emotegov/emotegov/pollmsg"
)

func closeAnnouncement(kind poll.Kind, prop pollmsg.Proposal, outcome poll.Outcome) string {
	verdict := "**passed**"
	if !outcome.Passed {
		verdict = fmt.Sprintf("**failed** (%s)", outcome.Reason)
	}
	return fmt.Sprintf("Poll closed (%s :%s:): %s. %s", kind.Pretty(), prop.Name, verdict, outcome.Explanation)
}

// applyAnnouncement turns an ApplyResult into the follow-up message. The
// applier reports data only; all user-facing wording lives here.
func applyAnnouncement(kind poll.Kind, res assets.Result, err error) string {
	target := "Emoji"
	if kind.Sticker() {
		target = "Sticker"
	}

	switch res.Status {
	case assets.PartialFailure:
		return fmt.Sprintf(
			"WARNING: changing :%s: broke partway: the old %s was deleted but the replacement could not be created (%v). The %s may now be missing entirely.",
			res.Name, target, err, target,
		)
	case assets.NotFound:
		return fmt.Sprintf("Failed to %s: :%s: was not found on this server, it may have been removed already.", kind.Pretty(), res.Name)
	}
	if err != nil {
		return fmt.Sprintf("Failed to %s: %v", kind.Pretty(), err)
	}

	switch res.Status {
	case assets.Created:
		if res.Emoji != nil {
			return fmt.Sprintf("%s added: %s", target, res.Emoji.MessageFormat())
		}
		return fmt.Sprintf("%s added: :%s:", target, res.Name)
	case assets.Deleted:
		return fmt.Sprintf("%s deleted: :%s:", target, res.Name)
	case assets.Renamed:
		return fmt.Sprintf("%s renamed: `:%s: -> :%s:`", target, res.Name, res.NewName)
	case assets.Changed:
		if res.Emoji != nil {
			return fmt.Sprintf("%s changed: %s", target, res.Emoji.MessageFormat())
		}
		return fmt.Sprintf("%s changed: :%s:", target, res.Name)
	}
	return fmt.Sprintf("Unexpected result applying %s for :%s:", kind.Pretty(), res.Name)
}
