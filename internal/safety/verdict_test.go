package safety

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"token-safety-oracle/internal/domain"
)

func TestSynthesize_Clamps(t *testing.T) {
	tests := []struct {
		name      string
		score     int
		risk      int
		wantScore int
		wantRisk  int
	}{
		{"below range", -40, 140, 0, 100},
		{"above range", 130, -10, 100, 0},
		{"inside range", 55, 45, 55, 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Synthesize(Tally{Score: tt.score, Risk: tt.risk}, healthy(), Subject{})

			assert.Equal(t, tt.wantScore, res.SafetyScore)
			assert.Equal(t, tt.wantRisk, res.RugPullRisk)
		})
	}
}

func TestRecommend_Tiers(t *testing.T) {
	tests := []struct {
		score int
		tier  string
	}{
		{100, domain.TierSafe},
		{80, domain.TierSafe},
		{79, domain.TierModerate},
		{60, domain.TierModerate},
		{59, domain.TierRisky},
		{40, domain.TierRisky},
		{39, domain.TierDangerous},
		{0, domain.TierDangerous},
	}

	for _, tt := range tests {
		tier, text := Recommend(tt.score)
		assert.Equal(t, tt.tier, tier, "score %d", tt.score)
		assert.Contains(t, text, tt.tier)
	}
}

func TestSynthesize_SafeFollowsScore(t *testing.T) {
	for score := -10; score <= 110; score++ {
		res := Synthesize(Tally{Score: score}, healthy(), Subject{})
		assert.Equal(t, res.SafetyScore >= 60, res.Safe, "score %d", score)
	}
}

func TestSynthesize_HeuristicHoneypot(t *testing.T) {
	sig := domain.TokenSignals{
		HolderCount:    10,
		HolderCountSet: true,
		LiquidityUSD:   300,
		AgeMinutes:     3,
	}
	tally := Tally{Score: 70, Risk: 30, Checks: domain.Checks{}}

	res := Synthesize(tally, sig, Subject{})

	assert.True(t, res.IsHoneypot)
	assert.Equal(t, 20, res.SafetyScore)
	assert.Equal(t, 80, res.RugPullRisk)
	assert.Equal(t, domain.CheckFail, res.Checks[domain.CheckHoneypot].Status)
}

func TestSynthesize_HeuristicOverwritesPassRow(t *testing.T) {
	sig := domain.TokenSignals{HolderCountSet: true, LiquidityUSD: 100, AgeMinutes: 1}
	checks := domain.Checks{}
	checks.Set(domain.CheckHoneypot, domain.CheckPass, "", "not_confirmed")

	res := Synthesize(Tally{Score: 50, Checks: checks}, sig, Subject{})

	assert.Equal(t, domain.CheckFail, res.Checks[domain.CheckHoneypot].Status)
	assert.Equal(t, domain.CheckPass, checks[domain.CheckHoneypot].Status, "tally checks must not be mutated")
}

func TestSynthesize_HeuristicNeedsKnownHolders(t *testing.T) {
	sig := domain.TokenSignals{LiquidityUSD: 0, AgeMinutes: 0} // holder count never reported

	res := Synthesize(Tally{Score: 50, Risk: 50}, sig, Subject{})

	assert.False(t, res.IsHoneypot)
	assert.Equal(t, domain.CheckPass, res.Checks[domain.CheckHoneypot].Status)
}

func TestSynthesize_HeuristicBoundaries(t *testing.T) {
	base := domain.TokenSignals{HolderCount: 49, HolderCountSet: true, LiquidityUSD: 500, AgeMinutes: 4.9}

	assert.True(t, Synthesize(Tally{}, base, Subject{}).IsHoneypot)

	s := base
	s.LiquidityUSD = 500.01
	assert.False(t, Synthesize(Tally{}, s, Subject{}).IsHoneypot)

	s = base
	s.AgeMinutes = 5
	assert.False(t, Synthesize(Tally{}, s, Subject{}).IsHoneypot)

	s = base
	s.HolderCount = 50
	assert.False(t, Synthesize(Tally{}, s, Subject{}).IsHoneypot)
}

func TestSynthesize_ConfirmedHoneypotNotReverted(t *testing.T) {
	tally := Tally{Score: 10, Risk: 90, Honeypot: true, HoneypotConfirmed: true, Checks: domain.Checks{}}

	res := Synthesize(tally, healthy(), Subject{})

	assert.True(t, res.IsHoneypot)
	assert.Equal(t, 10, res.SafetyScore)
}

func TestSynthesize_Subject(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	sig := healthy()
	sig.Provenance = domain.ProvenanceLive

	res := Synthesize(Tally{Score: 100}, sig, Subject{Chain: "base", TokenAddress: "0xabc", CreatedAt: at})

	assert.Equal(t, "base", res.Chain)
	assert.Equal(t, "0xabc", res.TokenAddress)
	assert.Equal(t, at, res.CreatedAt)
	assert.Equal(t, domain.ProvenanceLive, res.Provenance)
}
