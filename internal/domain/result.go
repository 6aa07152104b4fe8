package domain

import "time"

// Provenance tags where the scored signals came from.
type Provenance string

const (
	ProvenanceLive     Provenance = "live"
	ProvenanceMetadata Provenance = "metadata"
)

// Recommendation tiers.
const (
	TierSafe      = "SAFE"
	TierModerate  = "MODERATE"
	TierRisky     = "RISKY"
	TierDangerous = "DANGEROUS"
)

// SafeScoreThreshold is the minimum score for a token to be reported safe.
const SafeScoreThreshold = 60

// SafetyResult is the terminal verdict for one token. Treat as immutable.
type SafetyResult struct {
	Safe           bool       // SafetyScore >= SafeScoreThreshold
	SafetyScore    int        // [0,100]
	RugPullRisk    int        // [0,100]
	IsHoneypot     bool       // confirmed or inferred honeypot
	Tier           string     // SAFE | MODERATE | RISKY | DANGEROUS
	Recommendation string     // tier with its descriptive suffix
	Checks         Checks     // per-rule verdicts
	Chain          string     // chain key
	TokenAddress   string     // token address, lower-cased on EVM chains
	Provenance     Provenance // live | metadata
	CreatedAt      time.Time  // computation time
}

// Clone returns a copy that does not share the checks mapping.
func (r SafetyResult) Clone() SafetyResult {
	r.Checks = r.Checks.Clone()
	return r
}
