// Package risk implements the pest/disease risk heuristic for the dashboard.
//
// The heuristic is a fixed, hand-authored rule table: each rule ties a crop to
// a conjunction of weather thresholds and a named risk factor with a fixed
// severity weight. It is not a learned or adaptive model, and evaluation is a
// pure function of its inputs.
package risk

import "agridash/internal/types"

// Rule associates one or more crops with a trigger condition over the current
// weather and the risk factor it emits. Threshold fields are pointers: nil
// means the dimension is unconstrained. A rule triggers when every non-nil
// threshold holds simultaneously.
//
// Rules are defined once at startup and never mutated.
type Rule struct {
	Crops []types.Crop

	TempMinC    *float64 // temperature >= TempMinC
	TempMaxC    *float64 // temperature <= TempMaxC
	HumidityMin *float64 // relative humidity >= HumidityMin
	PrecipMin   *float64 // precipitation >= PrecipMin (mm/h)

	Factor   string
	Severity float64
	Note     string
}

// Matches reports whether the rule applies to the given crop.
func (r Rule) Matches(crop types.Crop) bool {
	for _, c := range r.Crops {
		if c == crop {
			return true
		}
	}
	return false
}

// Triggered evaluates the rule's threshold conjunction against an observation.
// Inputs are taken as given: no range validation or clamping is applied, so
// out-of-physical-range values evaluate like any other number.
func (r Rule) Triggered(obs types.WeatherObservation) bool {
	if r.TempMinC != nil && obs.TemperatureC < *r.TempMinC {
		return false
	}
	if r.TempMaxC != nil && obs.TemperatureC > *r.TempMaxC {
		return false
	}
	if r.HumidityMin != nil && obs.HumidityPct < *r.HumidityMin {
		return false
	}
	if r.PrecipMin != nil && obs.PrecipitationMM < *r.PrecipMin {
		return false
	}
	return true
}

func f(v float64) *float64 { return &v }

// Table is the full rule set. Order matters: severity ties in a report keep
// this relative order because the sort is stable.
var Table = []Rule{
	{
		Crops:       []types.Crop{types.CropRice},
		TempMinC:    f(25), TempMaxC: f(30), HumidityMin: f(70),
		Factor:   "Brown planthopper",
		Severity: 0.60,
		Note:     "Warm weather with sustained high humidity favors planthopper buildup at the base of tillers.",
	},
	{
		Crops:       []types.Crop{types.CropRice},
		HumidityMin: f(85), PrecipMin: f(1),
		Factor:   "Blast/leaf fungus",
		Severity: 0.70,
		Note:     "Leaf wetness from rain combined with very high humidity drives fungal blast infection.",
	},
	{
		Crops:    []types.Crop{types.CropRice},
		TempMinC: f(28), PrecipMin: f(2),
		Factor:   "Bacterial leaf blight",
		Severity: 0.50,
		Note:     "Heavy rain on warm days spreads bacterial blight through wounded leaf tissue.",
	},
	{
		Crops:       []types.Crop{types.CropChili, types.CropTomato},
		HumidityMin: f(80), PrecipMin: f(1),
		Factor:   "Anthracnose/fruit rot",
		Severity: 0.65,
		Note:     "Rain splash under humid conditions spreads anthracnose spores onto ripening fruit.",
	},
	{
		Crops:    []types.Crop{types.CropChili, types.CropTomato},
		TempMinC: f(26), HumidityMin: f(70),
		Factor:   "Thrips/whitefly",
		Severity: 0.45,
		Note:     "Warm humid spells accelerate thrips and whitefly reproduction on tender growth.",
	},
	{
		Crops:    []types.Crop{types.CropMaize},
		TempMinC: f(24), TempMaxC: f(30), HumidityMin: f(70),
		Factor:   "Fall armyworm",
		Severity: 0.55,
		Note:     "Armyworm egg laying and larval survival peak in warm, humid weather.",
	},
	{
		Crops:     []types.Crop{types.CropMaize},
		PrecipMin: f(2),
		Factor:   "Stem/root rot",
		Severity: 0.40,
		Note:     "Waterlogged soil after sustained rain promotes stalk and root rot pathogens.",
	},
}
