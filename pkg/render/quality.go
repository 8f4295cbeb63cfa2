package render

import "github.com/matzehuels/mindmapper/pkg/errors"

// Quality hints accepted by QualityScale.
const (
	QualityLow    = "low"
	QualityMedium = "medium"
	QualityHigh   = "high"
	QualityUltra  = "ultra"
)

var qualityScales = map[string]float64{
	QualityLow:    1.0,
	QualityMedium: 1.5,
	QualityHigh:   2.0,
	QualityUltra:  2.5,
}

// QualityScale maps a quality hint to a device pixel ratio. An empty hint
// returns fallback, the configured default.
func QualityScale(quality string, fallback float64) (float64, error) {
	if quality == "" {
		return fallback, nil
	}
	s, ok := qualityScales[quality]
	if !ok {
		return 0, errors.New(errors.ErrCodeInvalidInput,
			"invalid quality: %q (must be one of: low, medium, high, ultra)", quality)
	}
	return s, nil
}
