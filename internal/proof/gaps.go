package proof

import (
	"github.com/gyaneshwarpardhi/proofengine/internal/catalog"
	"github.com/gyaneshwarpardhi/proofengine/internal/criterion"
)

// IdentifyGaps emits one Gap per unmet criterion, in declaration order.
func IdentifyGaps(criteria []catalog.Criterion, outcomes []criterion.Outcome, reg *criterion.Registry) []Gap {
	var gaps []Gap
	for i, c := range criteria {
		if i < len(outcomes) && outcomes[i].Met {
			continue
		}
		gaps = append(gaps, Gap{
			Description:    c.Description,
			Recommendation: reg.Recommend(c),
			Type:           c.Type,
			Node:           c.Node,
		})
	}
	return gaps
}
