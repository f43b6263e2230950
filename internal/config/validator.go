package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gyaneshwarpardhi/proofengine/internal/evidence"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the config for:
//   - Required fields and value ranges (struct tags)
//   - Duplicate query IDs and duplicate aliases within a query
//   - Unknown node kinds
//   - Criteria that reference undeclared aliases
//   - Threshold ordering
func Validate(cfg *CatalogConfig) error {
	var errs []string

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("config validation: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, describeFieldError(fe))
		}
	}

	if cfg.Engine.PartialThreshold > cfg.Engine.ProvenThreshold {
		errs = append(errs, fmt.Sprintf("engine: partial_threshold %d exceeds proven_threshold %d",
			cfg.Engine.PartialThreshold, cfg.Engine.ProvenThreshold))
	}

	ids := make(map[string]int) // id → index
	for i, q := range cfg.Queries {
		if q.ID == "" {
			continue // reported by struct validation
		}
		if prev, ok := ids[q.ID]; ok {
			errs = append(errs, fmt.Sprintf("duplicate query id %q (queries[%d] and queries[%d])", q.ID, prev, i))
		} else {
			ids[q.ID] = i
		}
		validateQuery(q, &errs)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validateQuery(q QueryDef, errs *[]string) {
	loc := fmt.Sprintf("query %s", q.ID)
	aliases := make(map[string]struct{}, len(q.Nodes))
	for j, n := range q.Nodes {
		if n.Alias == "" {
			continue
		}
		if _, dup := aliases[n.Alias]; dup {
			*errs = append(*errs, fmt.Sprintf("%s: duplicate alias %q", loc, n.Alias))
		}
		aliases[n.Alias] = struct{}{}
		if _, ok := evidence.ParseKind(n.Kind); !ok && n.Kind != "" {
			*errs = append(*errs, fmt.Sprintf("%s.nodes[%d]: unknown kind %q", loc, j, n.Kind))
		}
	}
	for j, c := range q.Criteria {
		if c.Node == "" {
			*errs = append(*errs, fmt.Sprintf("%s.criteria[%d]: node is required", loc, j))
			continue
		}
		if _, ok := aliases[c.Node]; !ok {
			*errs = append(*errs, fmt.Sprintf("%s.criteria[%d]: node %q is not declared", loc, j, c.Node))
		}
		if c.RelatedNode != "" {
			if _, ok := aliases[c.RelatedNode]; !ok {
				*errs = append(*errs, fmt.Sprintf("%s.criteria[%d]: related_node %q is not declared", loc, j, c.RelatedNode))
			}
		}
	}
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s: is required", fe.Namespace())
	case "min":
		return fmt.Sprintf("%s: must have at least %s entries", fe.Namespace(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s: %v is not one of [%s]", fe.Namespace(), fe.Value(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s: must be greater than %s", fe.Namespace(), fe.Param())
	default:
		return fmt.Sprintf("%s: failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value())
	}
}
