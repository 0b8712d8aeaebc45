package domain

type FreshnessScale string

const (
	ScaleSuperFresh  FreshnessScale = "A+ (Super Fresh)"
	ScaleFresh       FreshnessScale = "A (Fresh)"
	ScaleMediumFresh FreshnessScale = "B (Medium Fresh)"
	ScaleStale       FreshnessScale = "C (Stale)"
	ScaleRotten      FreshnessScale = "D (Rotten)"
)

// FreshnessScales lists every grade from best to worst.
var FreshnessScales = []FreshnessScale{
	ScaleSuperFresh,
	ScaleFresh,
	ScaleMediumFresh,
	ScaleStale,
	ScaleRotten,
}

const (
	StateFresh  = "Fresh"
	StateRotten = "Rotten"
)

type FreshnessResult struct {
	Label               string         `json:"label"`
	RawProbability      float64        `json:"raw_probability"`
	AdjustedProbability float64        `json:"adjusted_probability"`
	Scale               FreshnessScale `json:"scale"`
}
