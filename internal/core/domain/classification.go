package domain

// Prediction is one ranked entry returned by an image classifier backend.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ClassificationResult is the resolved identity of the photographed item.
type ClassificationResult struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	InKnownSet bool    `json:"in_known_set"`
	Source     string  `json:"source"`
}

const (
	SourceFineTuned = "fine_tuned"
	SourceBase      = "base"
)
