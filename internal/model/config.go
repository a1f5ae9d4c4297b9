package model

import "time"

// Config holds the full pipeline configuration. Values are resolved in
// priority order: CLI flags, FINCASCADE_* environment variables, config file,
// then these defaults.
type Config struct {
	Thresholds  ThresholdConfig   `yaml:"thresholds" mapstructure:"thresholds"`
	Oracle      OracleConfig      `yaml:"oracle" mapstructure:"oracle"`
	Storage     StorageConfig     `yaml:"storage" mapstructure:"storage"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Collector   CollectorConfig   `yaml:"collector" mapstructure:"collector"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`

	// Episode confidence weights keyed by evidence source category
	// (e.g., "regulatory_filing", "news", "social_media"). Categories
	// without an entry default to 1.0.
	SourceReliabilityWeights map[string]float64 `yaml:"source_reliability_weights" mapstructure:"source_reliability_weights"`
}

// ThresholdConfig gathers the pipeline's acceptance thresholds.
type ThresholdConfig struct {
	// Scenario segments below this confidence contribute no stage shells.
	MinScenarioConfidenceForStaging float64 `yaml:"min_scenario_confidence_for_staging" mapstructure:"min_scenario_confidence_for_staging"`
	// Minimum stage-assignment score; below it the extractor creates a new stage.
	MinExtractionConfidence float64 `yaml:"min_extraction_confidence" mapstructure:"min_extraction_confidence"`
	// Episodes at or above this fact-check confidence are verified.
	MinVerificationConfidence float64 `yaml:"min_verification_confidence" mapstructure:"min_verification_confidence"`
	// Segments at or above this confidence must be covered by verified episodes.
	MinScenarioCoverageThreshold float64 `yaml:"min_scenario_coverage_threshold" mapstructure:"min_scenario_coverage_threshold"`
	// Bounded re-extraction attempts for rejected episodes.
	MaxReextractRetries int `yaml:"max_reextract_retries" mapstructure:"max_reextract_retries"`
}

// OracleConfig configures the evidence-understanding oracle.
type OracleConfig struct {
	// Provider name: "openai" (OpenAI-compatible endpoints, including local
	// Ollama via BaseURL), "keyword" (deterministic offline extraction), "".
	Provider string `yaml:"provider" mapstructure:"provider"`
	Model    string `yaml:"model" mapstructure:"model"`
	APIKey   string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	// Per-call deadline; callers bound oracle cost at episode granularity.
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	// Request throttle for the oracle endpoint.
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// StorageConfig configures the durable participant store.
type StorageConfig struct {
	// SQLite database path; empty means <data dir>/participants.db.
	Path string `yaml:"path" mapstructure:"path"`
	// Retries with exponential backoff before degrading to in-memory
	// resolution.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`
}

// ConcurrencyConfig sets worker counts for the partitionable pipeline phases.
type ConcurrencyConfig struct {
	ExtractionWorkers int `yaml:"extraction_workers" mapstructure:"extraction_workers"`
	FactCheckWorkers  int `yaml:"fact_check_workers" mapstructure:"fact_check_workers"`
}

// CacheConfig configures oracle response caching.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// CollectorConfig configures the optional HTTP evidence collector.
type CollectorConfig struct {
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	RespectRobots     bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// OutputConfig controls rendering of the terminal artifact.
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Thresholds: ThresholdConfig{
			MinScenarioConfidenceForStaging: 0.5,
			MinExtractionConfidence:         0.5,
			MinVerificationConfidence:       0.7,
			MinScenarioCoverageThreshold:    0.6,
			MaxReextractRetries:             1,
		},
		Oracle: OracleConfig{
			Provider:          "keyword",
			Timeout:           60 * time.Second,
			MaxTokens:         4000,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Storage: StorageConfig{
			MaxRetries: 3,
		},
		Concurrency: ConcurrencyConfig{
			ExtractionWorkers: 4,
			FactCheckWorkers:  8,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Collector: CollectorConfig{
			UserAgent:         "fincascade/0.1 (+https://github.com/avolkhin/fincascade)",
			Timeout:           30 * time.Second,
			MaxBodyBytes:      2_000_000,
			RequestsPerSecond: 1,
			Burst:             2,
			RespectRobots:     true,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
		SourceReliabilityWeights: map[string]float64{
			"regulatory_filing": 1.5,
			"court_record":      1.5,
			"news":              1.0,
			"research_report":   1.0,
			"social_media":      0.5,
		},
	}
}
