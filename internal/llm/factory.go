package llm

import (
	"fmt"
	"strings"
)

// NewProvider creates an oracle provider based on configuration.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "keyword", "":
		// Deterministic offline extraction; also the fallback when no
		// remote oracle is configured.
		return NewKeywordProvider(), nil

	default:
		return nil, fmt.Errorf("unknown oracle provider: %s (supported: openai, keyword)", config.Provider)
	}
}
