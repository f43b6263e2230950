package config

// CatalogConfig is the top-level YAML structure.
type CatalogConfig struct {
	Version string     `yaml:"version" validate:"required"`
	Engine  EngineConf `yaml:"engine"`
	Queries []QueryDef `yaml:"queries" validate:"dive"`
}

// EngineConf holds the tunable business constants and concurrency limits.
type EngineConf struct {
	ProvenThreshold    int     `yaml:"proven_threshold" validate:"gte=0,lte=100"`
	PartialThreshold   int     `yaml:"partial_threshold" validate:"gte=0,lte=100"`
	DefaultRangeMonths int     `yaml:"default_range_months" validate:"gte=1"`
	MaxNodesPerFetch   int     `yaml:"max_nodes_per_fetch" validate:"gte=0"` // 0 = no cap
	FetchTimeoutMs     int     `yaml:"fetch_timeout_ms" validate:"gte=0"`
	FetchConcurrency   int     `yaml:"fetch_concurrency" validate:"gte=0"`
	FetchRatePerSec    float64 `yaml:"fetch_rate_per_sec" validate:"gte=0"` // 0 = unlimited
	SummaryWorkers     int     `yaml:"summary_workers" validate:"gte=1"`
	SummaryTimeoutMs   int     `yaml:"summary_timeout_ms" validate:"gte=0"`
}

// QueryDef describes one regulation-scoped proof: which evidence to fetch
// and how to score it.
type QueryDef struct {
	ID          string         `yaml:"id" validate:"required"`
	Name        string         `yaml:"name" validate:"required"`
	Description string         `yaml:"description"`
	Regulation  string         `yaml:"regulation" validate:"required"`
	Articles    []string       `yaml:"articles"`
	Severity    string         `yaml:"severity" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	Disabled    bool           `yaml:"disabled"`
	Nodes       []NodeDef      `yaml:"nodes" validate:"dive"`
	Criteria    []CriterionDef `yaml:"criteria" validate:"required,min=1,dive"`
}

// NodeDef names a set of evidence records under a local alias.
//
// Filters map a field name to either a scalar (equality) or a single-key
// map {contains|in|has: value}. Keys prefixed with "payload." address
// nested payload values.
type NodeDef struct {
	Alias    string                 `yaml:"alias" validate:"required"`
	Kind     string                 `yaml:"kind" validate:"required"`
	MinCount int                    `yaml:"min_count" validate:"gte=0"`
	Optional bool                   `yaml:"optional"`
	Filters  map[string]interface{} `yaml:"filters"`
}

// CriterionDef is one weighted test against the fetched evidence.
type CriterionDef struct {
	Type        string      `yaml:"type" validate:"required"`
	Node        string      `yaml:"node"`
	RelatedNode string      `yaml:"related_node"`
	Weight      float64     `yaml:"weight" validate:"gt=0"`
	Description string      `yaml:"description" validate:"required"`
	Field       string      `yaml:"field"`
	Operator    string      `yaml:"operator"`
	Value       interface{} `yaml:"value"`
	MinCount    int         `yaml:"min_count" validate:"gte=0"`
	WithinHours float64     `yaml:"within_hours" validate:"gte=0"`
}
