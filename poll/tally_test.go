package poll

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTallyExcludesBotSeedReactions(t *testing.T) {
	c := TallyConfig{SelfID: "bot", PrivilegedWeight: 1}

	yes, no := c.Tally(
		[]Voter{{ID: "bot"}, {ID: "A"}, {ID: "B"}},
		[]Voter{{ID: "bot"}, {ID: "C"}},
	)
	assert.Equal(t, 2.0, yes)
	assert.Equal(t, 1.0, no)
}

func TestTallyBothSidesCountIndependently(t *testing.T) {
	c := TallyConfig{SelfID: "bot", PrivilegedWeight: 1}

	// Raw reaction semantics: a user on both reactions counts on both.
	yes, no := c.Tally([]Voter{{ID: "A"}}, []Voter{{ID: "A"}})
	assert.Equal(t, 1.0, yes)
	assert.Equal(t, 1.0, no)
}

func TestTallyPrivilegedWeightIsMultiplicative(t *testing.T) {
	c := TallyConfig{
		SelfID:           "bot",
		Privileged:       map[string]bool{"P": true},
		PrivilegedWeight: 2,
	}

	// Privileged voter alone on yes, one plain voter on no: 1*2 vs 1.
	yes, no := c.Tally([]Voter{{ID: "P"}}, []Voter{{ID: "C"}})
	assert.Equal(t, 2.0, yes)
	assert.Equal(t, 1.0, no)
}

func TestWeightModes(t *testing.T) {
	assert.Equal(t, 2.0, MultiplicativeWeight(1, 2))
	assert.Equal(t, 3.0, AdditiveWeight(1, 2))
}

func TestTallyTenureBonusIsAdditive(t *testing.T) {
	c := TallyConfig{
		SelfID:           "bot",
		Privileged:       map[string]bool{"P": true},
		PrivilegedWeight: 2,
		Bonus: func(days float64) float64 {
			return days / 30
		},
	}

	yes, no := c.Tally(
		[]Voter{{ID: "P", TenureDays: 30}},
		[]Voter{{ID: "C", TenureDays: 60}},
	)
	assert.Equal(t, 3.0, yes) // 1*2 + 30/30
	assert.Equal(t, 3.0, no)  // 1 + 60/30
}

func TestTallyDefaultBonusIsZero(t *testing.T) {
	assert.Equal(t, 0.0, NoTenureBonus(365))

	c := TallyConfig{SelfID: "bot", PrivilegedWeight: 1, Bonus: NoTenureBonus}
	yes, no := c.Tally([]Voter{{ID: "A", TenureDays: 365}}, nil)
	assert.Equal(t, 1.0, yes)
	assert.Equal(t, 0.0, no)
}
