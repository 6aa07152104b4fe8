package safety

import (
	"time"

	"token-safety-oracle/internal/domain"
)

// Heuristic honeypot thresholds.
const (
	HeuristicMaxLiquidityUSD = 500.0
	HeuristicMaxAgeMinutes   = 5.0
	HeuristicMaxHolders      = 50

	// UnknownHolderCount stands in for a holder count no source reported,
	// so missing data alone cannot trip the heuristic.
	UnknownHolderCount = 1_000_000

	HeuristicHoneypotMaxScore = 20
	HeuristicHoneypotMinRisk  = 80
)

// Recommendation texts by tier.
var recommendations = map[string]string{
	domain.TierSafe:      "SAFE - Low risk, recommended for trading",
	domain.TierModerate:  "MODERATE - Some risks, trade with caution",
	domain.TierRisky:     "RISKY - High risk, not recommended",
	domain.TierDangerous: "DANGEROUS - Very high risk, avoid trading",
}

// Subject identifies the token a verdict is about.
type Subject struct {
	Chain        string
	TokenAddress string
	CreatedAt    time.Time
}

// Synthesize clamps the tally, applies the heuristic honeypot override and
// builds the final result. The tally's checks are copied, not shared.
func Synthesize(t Tally, sig domain.TokenSignals, subj Subject) domain.SafetyResult {
	checks := t.Checks.Clone()
	if checks == nil {
		checks = make(domain.Checks)
	}

	score := clamp(t.Score)
	risk := clamp(t.Risk)
	honeypot := t.Honeypot

	if !t.HoneypotConfirmed && looksLikeHoneypot(sig) {
		honeypot = true
		score = min(score, HeuristicHoneypotMaxScore)
		risk = max(risk, HeuristicHoneypotMinRisk)
		if prev, ok := checks[domain.CheckHoneypot]; !ok || prev.Status == domain.CheckPass {
			checks.Set(domain.CheckHoneypot, domain.CheckFail, "Likely honeypot", sig.Honeypot.String())
		}
	}
	if _, ok := checks[domain.CheckHoneypot]; !ok {
		checks.Set(domain.CheckHoneypot, domain.CheckPass, "", sig.Honeypot.String())
	}

	tier, text := Recommend(score)
	return domain.SafetyResult{
		Safe:           score >= domain.SafeScoreThreshold,
		SafetyScore:    score,
		RugPullRisk:    risk,
		IsHoneypot:     honeypot,
		Tier:           tier,
		Recommendation: text,
		Checks:         checks,
		Chain:          subj.Chain,
		TokenAddress:   subj.TokenAddress,
		Provenance:     sig.Provenance,
		CreatedAt:      subj.CreatedAt,
	}
}

// looksLikeHoneypot is the fallback for tokens the security provider did not flag:
// dust liquidity, minutes old and almost no holders.
func looksLikeHoneypot(sig domain.TokenSignals) bool {
	holders := UnknownHolderCount
	if sig.HolderCountSet {
		holders = sig.HolderCount
	}
	return sig.LiquidityUSD <= HeuristicMaxLiquidityUSD &&
		sig.AgeMinutes < HeuristicMaxAgeMinutes &&
		holders < HeuristicMaxHolders
}

// Recommend maps a clamped score to its tier and recommendation text.
func Recommend(score int) (tier, text string) {
	switch {
	case score >= 80:
		tier = domain.TierSafe
	case score >= domain.SafeScoreThreshold:
		tier = domain.TierModerate
	case score >= 40:
		tier = domain.TierRisky
	default:
		tier = domain.TierDangerous
	}
	return tier, recommendations[tier]
}

func clamp(v int) int {
	return min(max(v, 0), 100)
}
