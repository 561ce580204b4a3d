package poll

// Voter is one user found on a poll reaction, along with how long they
// have held boosted status, in days, when known.
type Voter struct {
	ID         string
	TenureDays float64
}

// WeightFunc scales a voter's base weight by the configured privileged
// weight. Historical revisions of this bot disagreed on the mode, so both
// are defined here as named functions; PrivilegedScale below is the one
// in effect.
type WeightFunc func(base, weight float64) float64

// MultiplicativeWeight returns base * weight, so weight 1 is neutral.
func MultiplicativeWeight(base, weight float64) float64 {
	return base * weight
}

// AdditiveWeight returns base + weight, so weight 0 is neutral.
func AdditiveWeight(base, weight float64) float64 {
	return base + weight
}

// PrivilegedScale is the single weighting mode the tally uses:
// multiplicative, matching the documented meaning of the weight setting.
var PrivilegedScale WeightFunc = MultiplicativeWeight

// TenureBonus maps days of boosted status to an additive weight bonus.
type TenureBonus func(days float64) float64

// NoTenureBonus is the default policy: boosting grants no extra weight.
func NoTenureBonus(float64) float64 {
	return 0
}

// TallyConfig carries everything needed to weigh one poll's voters.
type TallyConfig struct {
	// SelfID is the bot's own user ID; its seed reactions never count.
	SelfID string

	Privileged       map[string]bool
	PrivilegedWeight float64

	// Bonus may be nil, which behaves like NoTenureBonus.
	Bonus TenureBonus
}

// Tally computes the weighted yes/no counts for one poll. A user present
// on both reactions counts on both sides; that is raw reaction-count
// semantics and is deliberate.
func (c TallyConfig) Tally(yesVoters, noVoters []Voter) (yes, no float64) {
	for _, v := range yesVoters {
		yes += c.weight(v)
	}
	for _, v := range noVoters {
		no += c.weight(v)
	}
	return yes, no
}

func (c TallyConfig) weight(v Voter) float64 {
	if v.ID == c.SelfID {
		return 0
	}
	w := 1.0
	if c.Privileged[v.ID] {
		w = PrivilegedScale(w, c.PrivilegedWeight)
	}
	if c.Bonus != nil {
		w += c.Bonus(v.TenureDays)
	}
	return w
}
