package safety

import (
	"strings"

	"token-safety-oracle/internal/chain"
	"token-safety-oracle/internal/domain"
)

// Rule thresholds.
const (
	StartScore = 100
	StartRisk  = 0

	MinHoldersSolana     = 100
	MinHoldersEVMFail    = 50
	MinHoldersEVMWarning = 100

	MinLiquidityFailUSD    = 1_000.0
	MinLiquidityWarningUSD = 10_000.0

	MinAgeFailMinutes    = 2.0
	MinAgeWarningMinutes = 30.0

	MinVolume24hUSD = 100.0

	MaxSellTaxFailPct = 50.0
	MaxTaxWarningPct  = 10.0

	// Confirmed honeypots are capped here regardless of other signals.
	ConfirmedHoneypotMaxScore = 10
	ConfirmedHoneypotMinRisk  = 90
)

// ScamKeywords are matched as lower-case substrings of the token name.
var ScamKeywords = []string{"test", "fake", "scam", "rug", "honeypot", "xxx", "pump"}

// Tally is the running state of one rule pass.
type Tally struct {
	Score             int
	Risk              int
	Honeypot          bool
	HoneypotConfirmed bool
	Checks            domain.Checks
}

// penalize moves score down and risk up by the same amount.
func (t *Tally) penalize(points int) {
	t.Score -= points
	t.Risk += points
}

type rule struct {
	evmOnly bool
	apply   func(sig domain.TokenSignals, family chain.Family, t *Tally)
}

// checklist is the fixed evaluation order. Rules never read each other's rows.
var checklist = []rule{
	{apply: checkHolders},
	{apply: checkLiquidity},
	{apply: checkAge},
	{apply: checkVolume},
	{evmOnly: true, apply: checkVerification},
	{apply: checkMint},
	{apply: checkOwnership},
	{evmOnly: true, apply: checkTax},
	{evmOnly: true, apply: checkHoneypot},
	{apply: checkName},
}

// RunRules runs the checklist for a chain family and returns the
// unclamped accumulators with one row per executed check.
func RunRules(sig domain.TokenSignals, family chain.Family) Tally {
	t := Tally{
		Score:  StartScore,
		Risk:   StartRisk,
		Checks: make(domain.Checks),
	}
	for _, r := range checklist {
		if r.evmOnly && family != chain.FamilyEVM {
			continue
		}
		r.apply(sig, family, &t)
	}
	return t
}

func checkHolders(sig domain.TokenSignals, family chain.Family, t *Tally) {
	n := sig.HolderCount
	if family == chain.FamilyEVM {
		switch {
		case n < MinHoldersEVMFail:
			t.penalize(20)
			t.Checks.Set(domain.CheckHolderDistribution, domain.CheckFail, "Too few holders", n)
		case n < MinHoldersEVMWarning:
			t.penalize(10)
			t.Checks.Set(domain.CheckHolderDistribution, domain.CheckWarning, "Low holder count", n)
		default:
			t.Checks.Set(domain.CheckHolderDistribution, domain.CheckPass, "", n)
		}
		return
	}

	if n < MinHoldersSolana {
		t.penalize(20)
		t.Checks.Set(domain.CheckHolderDistribution, domain.CheckFail, "Too few holders", n)
		return
	}
	t.Checks.Set(domain.CheckHolderDistribution, domain.CheckPass, "", n)
}

func checkLiquidity(sig domain.TokenSignals, _ chain.Family, t *Tally) {
	liq := sig.LiquidityUSD
	switch {
	case liq < MinLiquidityFailUSD:
		t.penalize(30)
		t.Checks.Set(domain.CheckLiquidity, domain.CheckFail, "Very low liquidity", liq)
	case liq < MinLiquidityWarningUSD:
		t.penalize(15)
		t.Checks.Set(domain.CheckLiquidity, domain.CheckWarning, "Low liquidity", liq)
	default:
		t.Checks.Set(domain.CheckLiquidity, domain.CheckPass, "", liq)
	}
}

func checkAge(sig domain.TokenSignals, _ chain.Family, t *Tally) {
	age := sig.AgeMinutes
	switch {
	case age < MinAgeFailMinutes:
		t.penalize(25)
		t.Checks.Set(domain.CheckAge, domain.CheckFail, "Very new token (high risk)", age)
	case age < MinAgeWarningMinutes:
		t.penalize(10)
		t.Checks.Set(domain.CheckAge, domain.CheckWarning, "New token", age)
	default:
		t.Checks.Set(domain.CheckAge, domain.CheckPass, "", age)
	}
}

// checkVolume only runs when a volume figure is known.
func checkVolume(sig domain.TokenSignals, _ chain.Family, t *Tally) {
	if sig.Volume24h == nil {
		return
	}
	vol := *sig.Volume24h
	if vol < MinVolume24hUSD {
		t.penalize(10)
		t.Checks.Set(domain.CheckVolume, domain.CheckWarning, "Very low 24h volume", vol)
		return
	}
	t.Checks.Set(domain.CheckVolume, domain.CheckPass, "", vol)
}

func checkVerification(sig domain.TokenSignals, _ chain.Family, t *Tally) {
	if !sig.Verified {
		t.penalize(15)
		t.Checks.Set(domain.CheckVerification, domain.CheckFail, "Contract not verified", false)
		return
	}
	t.Checks.Set(domain.CheckVerification, domain.CheckPass, "", true)
}

func checkMint(sig domain.TokenSignals, _ chain.Family, t *Tally) {
	if sig.Mintable {
		t.penalize(10)
		t.Checks.Set(domain.CheckMint, domain.CheckWarning, "Mint function exists", true)
		return
	}
	t.Checks.Set(domain.CheckMint, domain.CheckPass, "", false)
}

func checkOwnership(sig domain.TokenSignals, _ chain.Family, t *Tally) {
	if !sig.OwnerRenounced {
		t.penalize(5)
		t.Checks.Set(domain.CheckOwnership, domain.CheckWarning, "Ownership not renounced", false)
		return
	}
	t.Checks.Set(domain.CheckOwnership, domain.CheckPass, "", true)
}

func checkTax(sig domain.TokenSignals, _ chain.Family, t *Tally) {
	taxes := map[string]float64{"buy_tax": sig.BuyTaxPct, "sell_tax": sig.SellTaxPct}
	switch {
	case sig.SellTaxPct > MaxSellTaxFailPct:
		t.penalize(30)
		t.Checks.Set(domain.CheckTax, domain.CheckFail, "Extreme sell tax", taxes)
	case sig.SellTaxPct > MaxTaxWarningPct || sig.BuyTaxPct > MaxTaxWarningPct:
		t.penalize(10)
		t.Checks.Set(domain.CheckTax, domain.CheckWarning, "High buy or sell tax", taxes)
	default:
		t.Checks.Set(domain.CheckTax, domain.CheckPass, "", taxes)
	}
}

// checkHoneypot applies the security provider verdict when one was merged.
func checkHoneypot(sig domain.TokenSignals, _ chain.Family, t *Tally) {
	if !sig.HasSecurityData {
		return
	}
	if sig.Honeypot == domain.HoneypotConfirmed {
		t.Honeypot = true
		t.HoneypotConfirmed = true
		t.Score = min(t.Score, ConfirmedHoneypotMaxScore)
		t.Risk = max(t.Risk, ConfirmedHoneypotMinRisk)
		t.Checks.Set(domain.CheckHoneypot, domain.CheckFail, "Honeypot confirmed by security scan", sig.Honeypot.String())
		return
	}
	t.Checks.Set(domain.CheckHoneypot, domain.CheckPass, "", sig.Honeypot.String())
}

func checkName(sig domain.TokenSignals, _ chain.Family, t *Tally) {
	if HasScamKeyword(sig.Name) {
		t.penalize(30)
		t.Checks.Set(domain.CheckName, domain.CheckFail, "Suspicious name", sig.Name)
		return
	}
	t.Checks.Set(domain.CheckName, domain.CheckPass, "", sig.Name)
}

// HasScamKeyword reports whether name contains any scam keyword, ignoring case.
func HasScamKeyword(name string) bool {
	name = strings.ToLower(name)
	for _, kw := range ScamKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}
