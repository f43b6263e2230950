package proof

import (
	"time"

	"github.com/gyaneshwarpardhi/proofengine/internal/catalog"
	"github.com/gyaneshwarpardhi/proofengine/internal/evidence"
)

// Verdict classifies a query outcome. It is derived from confidence only.
type Verdict string

const (
	VerdictProven    Verdict = "PROVEN"
	VerdictPartial   Verdict = "PARTIAL"
	VerdictNotProven Verdict = "NOT_PROVEN"
)

// Stage names a step of a single query execution.
type Stage string

const (
	StageFetching    Stage = "FETCHING"
	StageEvaluating  Stage = "EVALUATING"
	StageScoring     Stage = "SCORING"
	StageGapAnalysis Stage = "GAP_ANALYSIS"
	StageAssembled   Stage = "ASSEMBLED"
)

// ProofDetail is the outcome of one criterion, in declaration order.
type ProofDetail struct {
	Criterion string                `json:"criterion"`
	Type      catalog.CriterionType `json:"type"`
	Weight    float64               `json:"weight"`
	Met       bool                  `json:"met"`
	Details   string                `json:"details"`
}

// Gap describes an unmet criterion and how to remediate it.
type Gap struct {
	Description    string                `json:"description"`
	Recommendation string                `json:"recommendation"`
	Type           catalog.CriterionType `json:"type"`
	Node           string                `json:"node"`
}

// EvidenceBundle lists the identifiers that back a result.
type EvidenceBundle struct {
	EventIDs    []string `json:"event_ids"`
	DecisionIDs []string `json:"decision_ids"`
	ClockIDs    []string `json:"clock_ids"`
	ArtifactIDs []string `json:"artifact_ids"`
	ActorIDs    []string `json:"actor_ids"`
	ControlIDs  []string `json:"control_ids"`
}

// ComplianceQueryResult is the engine output for one query execution.
// It is computed fresh on every call and never cached by the engine.
type ComplianceQueryResult struct {
	ExecutionID   string             `json:"execution_id"`
	QueryID       string             `json:"query_id"`
	QueryName     string             `json:"query_name"`
	Regulation    string             `json:"regulation"`
	Articles      []string           `json:"articles"`
	Severity      catalog.Severity   `json:"severity"`
	Result        Verdict            `json:"result"`
	Confidence    int                `json:"confidence"`
	TotalScore    float64            `json:"total_score"`
	MaxScore      float64            `json:"max_score"`
	EvidenceCount map[string]int     `json:"evidence_count"`
	TotalEvidence int                `json:"total_evidence"`
	Evidence      EvidenceBundle     `json:"evidence"`
	ProofDetails  []ProofDetail      `json:"proof_details"`
	Gaps          []Gap              `json:"gaps,omitempty"`
	Stage         Stage              `json:"stage"`
	ExecutedAt    time.Time          `json:"executed_at"`
	DurationMs    int64              `json:"duration_ms"`
	TimeRange     evidence.TimeRange `json:"time_range"`
}

// RegulationSummary aggregates verdicts for one regulation.
type RegulationSummary struct {
	Regulation        string  `json:"regulation"`
	Total             int     `json:"total"`
	Proven            int     `json:"proven"`
	Partial           int     `json:"partial"`
	NotProven         int     `json:"not_proven"`
	AverageConfidence float64 `json:"average_confidence"`
}

// CriticalGap carries the gaps of a CRITICAL query that is not PROVEN.
type CriticalGap struct {
	QueryID    string   `json:"query_id"`
	QueryName  string   `json:"query_name"`
	Regulation string   `json:"regulation"`
	Articles   []string `json:"articles"`
	Result     Verdict  `json:"result"`
	Confidence int      `json:"confidence"`
	Gaps       []Gap    `json:"gaps"`
}

// ComplianceSummary is the cross-regulation roll-up.
type ComplianceSummary struct {
	ID            string                        `json:"id"`
	GeneratedAt   time.Time                     `json:"generated_at"`
	DurationMs    int64                         `json:"duration_ms"`
	TimeRange     evidence.TimeRange            `json:"time_range"`
	TotalQueries  int                           `json:"total_queries"`
	Proven        int                           `json:"proven"`
	Partial       int                           `json:"partial"`
	NotProven     int                           `json:"not_proven"`
	ByRegulation  map[string]*RegulationSummary `json:"by_regulation"`
	CriticalGaps  []CriticalGap                 `json:"critical_gaps"`
	FailedQueries []string                      `json:"failed_queries,omitempty"`
	Results       []*ComplianceQueryResult      `json:"results"`
}
