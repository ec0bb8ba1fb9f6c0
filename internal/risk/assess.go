package risk

import (
	"sort"

	"agridash/internal/types"
)

// Band thresholds for the qualitative label, on the [0,1] composite scale.
const (
	bandMediumFloor = 0.33
	bandHighFloor   = 0.66
)

// LowRiskSentinel is the headline used when no rule triggers.
var LowRiskSentinel = types.RiskFactor{Name: "Low", Severity: 0}

// Assess evaluates the rule table for one crop against one weather
// observation and returns the structured risk report.
//
// The function is total: every input maps to a defined output. An
// unrecognized crop matches zero rules and yields the low-risk report, not an
// error. It is a pure function with no side effects and is safe to call
// concurrently.
func Assess(crop types.Crop, obs types.WeatherObservation) types.RiskReport {
	var factors []types.RiskFactor
	for _, rule := range Table {
		if !rule.Matches(crop) {
			continue
		}
		if rule.Triggered(obs) {
			factors = append(factors, types.RiskFactor{
				Name:     rule.Factor,
				Severity: rule.Severity,
				Note:     rule.Note,
			})
		}
	}

	// Stable sort so severity ties keep rule-table order; the headline is
	// defined as the first element after this sort.
	sort.SliceStable(factors, func(i, j int) bool {
		return factors[i].Severity > factors[j].Severity
	})

	composite := 0.0
	for _, f := range factors {
		composite += f.Severity
	}
	// Co-occurring risks can sum past 1; the displayed scalar is capped but
	// the per-factor list stays uncapped.
	if composite > 1 {
		composite = 1
	}

	headline := LowRiskSentinel
	if len(factors) > 0 {
		headline = factors[0]
	}

	return types.RiskReport{
		Crop:      crop,
		Composite: composite,
		Band:      Band(composite),
		Headline:  headline,
		Factors:   factors,
	}
}

// Band maps a composite severity to the three-band qualitative label the
// dashboard renders: low below 0.33, medium up to 0.66, high at or above.
func Band(composite float64) types.SeverityBand {
	switch {
	case composite >= bandHighFloor:
		return types.BandHigh
	case composite >= bandMediumFloor:
		return types.BandMedium
	default:
		return types.BandLow
	}
}
