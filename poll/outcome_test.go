package poll

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateThresholdBoundary(t *testing.T) {
	// 2/3 >= 2/3 is an exact tie with the threshold and must pass.
	o := Evaluate(2, 1, 1, 2.0/3.0)
	assert.True(t, o.Passed)
	assert.Empty(t, o.Reason)
	assert.Contains(t, o.Explanation, "66.67%")
}

func TestEvaluateBelowThreshold(t *testing.T) {
	o := Evaluate(1, 2, 1, 2.0/3.0)
	assert.False(t, o.Passed)
	assert.Equal(t, ReasonBelowThreshold, o.Reason)
	assert.Contains(t, o.Explanation, "33.33%")
}

func TestEvaluateInsufficientParticipation(t *testing.T) {
	// A lopsided ratio does not matter when too few votes were cast.
	o := Evaluate(4, 0, 5, 0.5)
	assert.False(t, o.Passed)
	assert.Equal(t, ReasonInsufficientParticipation, o.Reason)

	o = Evaluate(0, 0, 1, 0.5)
	assert.False(t, o.Passed)
	assert.Equal(t, ReasonInsufficientParticipation, o.Reason)
}

func TestEvaluateZeroVotesZeroMinimum(t *testing.T) {
	o := Evaluate(0, 0, 0, 0.5)
	assert.False(t, o.Passed)
	assert.Equal(t, ReasonBelowThreshold, o.Reason)
}

func TestEvaluateExplanationCarriesCounts(t *testing.T) {
	o := Evaluate(3, 1, 1, 2.0/3.0)
	assert.True(t, o.Passed)
	assert.Contains(t, o.Explanation, "3 yes / 1 no")
	assert.Contains(t, o.Explanation, "75.00%")
}

func TestEvaluateWeightedCounts(t *testing.T) {
	o := Evaluate(2.5, 1, 1, 0.5)
	assert.True(t, o.Passed)
	assert.Contains(t, o.Explanation, "2.5 yes / 1 no")
}
