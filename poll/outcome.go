package poll

import "fmt"

// Failure reasons reported by Evaluate.
const (
	ReasonInsufficientParticipation = "insufficient participation"
	ReasonBelowThreshold            = "below threshold"
)

// Outcome is the verdict on a closed poll plus the text announced to the
// channel.
type Outcome struct {
	Passed      bool
	Reason      string // empty when Passed
	Yes, No     float64
	Explanation string
}

// Evaluate applies the participation and threshold rules to a tally.
// Fewer than minimumVotes total fails regardless of ratio, since raw
// reaction counts are trivially manipulable by a single voter. The
// threshold comparison is non-strict: an exact tie with the threshold
// passes.
func Evaluate(yes, no, minimumVotes, threshold float64) Outcome {
	o := Outcome{Yes: yes, No: no}
	total := yes + no

	if total < minimumVotes {
		o.Reason = ReasonInsufficientParticipation
		o.Explanation = fmt.Sprintf(
			"%g yes / %g no: only %g of the %g votes needed for a valid poll",
			yes, no, total, minimumVotes,
		)
		return o
	}

	ratio := 0.0
	if total > 0 {
		ratio = yes / total
	}
	o.Explanation = fmt.Sprintf(
		"%g yes / %g no: %.2f%% in favour, %.2f%% needed",
		yes, no, ratio*100, threshold*100,
	)
	if ratio >= threshold {
		o.Passed = true
	} else {
		o.Reason = ReasonBelowThreshold
	}
	return o
}
