package domain

// HoneypotState is the security provider's honeypot verdict.
type HoneypotState int

const (
	HoneypotUnknown      HoneypotState = iota // provider silent or absent
	HoneypotNotConfirmed                      // provider reports not a honeypot
	HoneypotConfirmed                         // provider reports a honeypot
)

// String returns the string representation of HoneypotState.
func (s HoneypotState) String() string {
	switch s {
	case HoneypotConfirmed:
		return "confirmed"
	case HoneypotNotConfirmed:
		return "not_confirmed"
	default:
		return "unknown"
	}
}

// TokenSignals is the normalized input to the rule engine.
// Zero value means "no data": all checks trend toward failing.
type TokenSignals struct {
	HolderCount     int           // distinct holders, >= 0
	HolderCountSet  bool          // whether any source reported a holder count
	LiquidityUSD    float64       // pool liquidity in USD, >= 0
	AgeMinutes      float64       // minutes since pool creation, >= 0
	Volume24h       *float64      // 24h volume in USD (nullable)
	Name            string        // lower-cased token name
	Verified        bool          // contract source verified (EVM)
	Mintable        bool          // supply can still be minted
	OwnerRenounced  bool          // ownership / mint authority renounced
	BuyTaxPct       float64       // buy tax percentage (EVM)
	SellTaxPct      float64       // sell tax percentage (EVM)
	Honeypot        HoneypotState // provider honeypot verdict
	HasSecurityData bool          // a security payload was merged
	Provenance      Provenance    // live | metadata
}
