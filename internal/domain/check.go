package domain

// CheckStatus is the verdict of a single rule.
type CheckStatus string

const (
	CheckPass    CheckStatus = "PASS"
	CheckWarning CheckStatus = "WARNING"
	CheckFail    CheckStatus = "FAIL"
)

// Check names. Each rule writes exactly one row under its name.
const (
	CheckHolderDistribution = "holder_distribution"
	CheckLiquidity          = "liquidity_check"
	CheckAge                = "age_check"
	CheckVolume             = "volume_check"
	CheckVerification       = "verification_check"
	CheckMint               = "mint_check"
	CheckOwnership          = "ownership_check"
	CheckTax                = "tax_check"
	CheckHoneypot           = "honeypot_check"
	CheckName               = "name_check"
)

// CheckOutcome is one rule verdict with the observed value for auditing.
type CheckOutcome struct {
	Status CheckStatus
	Detail string
	Value  interface{}
}

// Checks maps check name to outcome. A later write for the same name wins.
type Checks map[string]CheckOutcome

// Set records an outcome, replacing any earlier outcome with the same name.
func (c Checks) Set(name string, status CheckStatus, detail string, value interface{}) {
	c[name] = CheckOutcome{Status: status, Detail: detail, Value: value}
}

// Clone returns a shallow copy of the mapping.
func (c Checks) Clone() Checks {
	if c == nil {
		return nil
	}
	out := make(Checks, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
