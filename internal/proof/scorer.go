package proof

import (
	"math"

	"github.com/gyaneshwarpardhi/proofengine/internal/catalog"
	"github.com/gyaneshwarpardhi/proofengine/internal/config"
	"github.com/gyaneshwarpardhi/proofengine/internal/criterion"
)

// Thresholds are the confidence cut-offs for PROVEN and PARTIAL.
type Thresholds struct {
	Proven  int
	Partial int
}

// DefaultThresholds returns 80 / 40.
func DefaultThresholds() Thresholds {
	return Thresholds{Proven: config.DefaultProvenThreshold, Partial: config.DefaultPartialThreshold}
}

// Verdict maps a confidence percentage to a verdict.
func (t Thresholds) Verdict(confidence int) Verdict {
	switch {
	case confidence >= t.Proven:
		return VerdictProven
	case confidence >= t.Partial:
		return VerdictPartial
	default:
		return VerdictNotProven
	}
}

// Score is the weighted aggregate of criterion outcomes.
type Score struct {
	Total      float64
	Max        float64
	Confidence int
	Verdict    Verdict
}

// ScoreOutcomes sums the weights of met criteria against the total weight.
// outcomes[i] belongs to criteria[i]. A non-positive max score yields 0%
// and NOT_PROVEN.
func ScoreOutcomes(criteria []catalog.Criterion, outcomes []criterion.Outcome, t Thresholds) Score {
	var s Score
	for i, c := range criteria {
		s.Max += c.Weight
		if i < len(outcomes) && outcomes[i].Met {
			s.Total += c.Weight
		}
	}
	if s.Max <= 0 {
		s.Verdict = VerdictNotProven
		return s
	}
	s.Confidence = Confidence(s.Total, s.Max)
	s.Verdict = t.Verdict(s.Confidence)
	return s
}

// Confidence returns round(100 * total / max), or 0 when max is not positive.
func Confidence(total, max float64) int {
	if max <= 0 {
		return 0
	}
	return int(math.Round(100 * total / max))
}
