package domain

// AnalysisPath is the branch taken by the decision pipeline.
type AnalysisPath string

const (
	PathFreshness AnalysisPath = "freshness"
	PathText      AnalysisPath = "text"
)

// AnalysisResponse is the normalized contract returned for every analyzed image.
type AnalysisResponse struct {
	Name     string `json:"name"`
	Brand    string `json:"brand"`
	PackSize string `json:"pack_size"`
	MfgDate  string `json:"mfg_date"`
	ExpDate  string `json:"exp_date"`
	MRP      string `json:"mrp"`
	Status   string `json:"status"`
}

// AnalysisTrace records how a response was produced.
type AnalysisTrace struct {
	Identification ClassificationResult `json:"identification"`
	Path           AnalysisPath         `json:"path"`
	Freshness      *FreshnessResult     `json:"freshness,omitempty"`
	Product        *ProductDetails      `json:"product,omitempty"`
}

type Analysis struct {
	Response AnalysisResponse `json:"response"`
	Trace    AnalysisTrace    `json:"trace"`
}
