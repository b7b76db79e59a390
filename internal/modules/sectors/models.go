package sectors

// CheckStatus is the severity of a single concentration-rule check.
type CheckStatus string

const (
	StatusOK            CheckStatus = "OK"
	StatusAdvisory      CheckStatus = "ADVISORY"
	StatusSoftWarning   CheckStatus = "SOFT_WARNING"
	StatusHardViolation CheckStatus = "HARD_VIOLATION"
)

// Check is the outcome of one concentration rule.
type Check struct {
	Rule    int         `json:"rule"`
	Status  CheckStatus `json:"status"`
	Value   float64     `json:"value"`
	Sector  string      `json:"sector,omitempty"`
	Members []string    `json:"members,omitempty"`
	Message string      `json:"message"`
}

// Report aggregates all rule checks for one holdings set.
type Report struct {
	Checks         []Check            `json:"checks"`
	HardViolations int                `json:"hard_violations"`
	SoftWarnings   int                `json:"soft_warnings"`
	Advisories     int                `json:"advisories"`
	OverallScore   float64            `json:"overall_score"`
	SectorWeights  map[string]float64 `json:"sector_weights"`
}

// Compliant reports whether the holdings pass with no hard violations and no
// soft warnings.
func (r *Report) Compliant() bool {
	return r.HardViolations == 0 && r.SoftWarnings == 0
}

// TargetAdjustment is the per-sector reweighting goal derived from a failing
// check. Delta is target minus current: negative means the sector should
// shrink.
type TargetAdjustment struct {
	Current  float64     `json:"current"`
	Target   float64     `json:"target"`
	Delta    float64     `json:"delta"`
	Priority CheckStatus `json:"priority"`
}

// Lookup resolves a ticker to its sector, "Unknown" when the ticker is not
// covered.
type Lookup interface {
	Sector(ticker string) string
}

// Pools lists the tickers available in a sector, used when the adjuster has
// to open positions in an unrepresented sector.
type Pools interface {
	TickersBySector(sector string) []string
}

// LookupFunc adapts a plain function to the Lookup interface.
type LookupFunc func(ticker string) string

// Sector implements Lookup.
func (f LookupFunc) Sector(ticker string) string { return f(ticker) }
