package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RetrievalConfig holds the tunable knobs of the retrieval cascade.
// The source system never pinned these numbers down, so they are
// explicit configuration with documented defaults rather than
// constants buried in the tier handlers.
type RetrievalConfig struct {
	// Tier1MinScore is the minimum bleve match score for a curated
	// Q&A entry to short-circuit the cascade.
	Tier1MinScore float64 `yaml:"tier1_min_score"`

	// Tier2MinSimilarity is the minimum cosine similarity for a
	// document chunk to count as a Tier-2 hit.
	Tier2MinSimilarity float32 `yaml:"tier2_min_similarity"`

	// Tier2MaxChunks caps how many chunks are handed to the answer
	// synthesizer.
	Tier2MaxChunks int `yaml:"tier2_max_chunks"`

	// WebSearchTimeout bounds the Tier-3 external call. A timeout is
	// treated as a Tier-3 miss, never surfaced to the end user.
	WebSearchTimeout time.Duration `yaml:"web_search_timeout"`

	// WebSearchMaxResults caps citations returned from web search.
	WebSearchMaxResults int `yaml:"web_search_max_results"`
}

// DefaultRetrievalConfig returns the tuning used when no file is given.
func DefaultRetrievalConfig() *RetrievalConfig {
	return &RetrievalConfig{
		Tier1MinScore:       0.5,
		Tier2MinSimilarity:  0.72,
		Tier2MaxChunks:      5,
		WebSearchTimeout:    15 * time.Second,
		WebSearchMaxResults: 5,
	}
}

// LoadRetrievalConfig reads tuning from a YAML file, applying defaults
// for any field left unset. An empty path returns pure defaults.
func LoadRetrievalConfig(path string) (*RetrievalConfig, error) {
	cfg := DefaultRetrievalConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read retrieval config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse retrieval config: %w", err)
	}

	if cfg.Tier2MaxChunks <= 0 {
		cfg.Tier2MaxChunks = DefaultRetrievalConfig().Tier2MaxChunks
	}
	if cfg.WebSearchTimeout <= 0 {
		cfg.WebSearchTimeout = DefaultRetrievalConfig().WebSearchTimeout
	}
	if cfg.WebSearchMaxResults <= 0 {
		cfg.WebSearchMaxResults = DefaultRetrievalConfig().WebSearchMaxResults
	}

	return cfg, nil
}
