package config

// Defaults for EngineConf. They encode business policy and may be
// overridden per deployment in the engine section of the config file.
const (
	DefaultProvenThreshold  = 80
	DefaultPartialThreshold = 40
	DefaultRangeMonths      = 12
	DefaultMaxNodesPerFetch = 1000
	DefaultFetchTimeoutMs   = 10000
	DefaultFetchConcurrency = 4
	DefaultSummaryWorkers   = 8
	DefaultSummaryTimeoutMs = 120000
)

// DefaultEngineConf returns an EngineConf with every default applied.
//
// Parse decodes the engine section on top of this value, so a key that is
// absent keeps its default while an explicit 0 is kept as written:
// max_nodes_per_fetch, fetch_timeout_ms, fetch_concurrency and
// summary_timeout_ms read 0 as "no limit".
func DefaultEngineConf() EngineConf {
	return EngineConf{
		ProvenThreshold:    DefaultProvenThreshold,
		PartialThreshold:   DefaultPartialThreshold,
		DefaultRangeMonths: DefaultRangeMonths,
		MaxNodesPerFetch:   DefaultMaxNodesPerFetch,
		FetchTimeoutMs:     DefaultFetchTimeoutMs,
		FetchConcurrency:   DefaultFetchConcurrency,
		SummaryWorkers:     DefaultSummaryWorkers,
		SummaryTimeoutMs:   DefaultSummaryTimeoutMs,
	}
}
