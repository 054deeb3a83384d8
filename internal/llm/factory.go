package llm

import (
	"fmt"
	"strings"

	"github.com/Veraticus/solari/internal/common"
)

// NewClient creates a text-generation client for the configured provider.
// Provider "none" (or empty) returns a nil client without error: callers
// treat a nil client as "compose advice locally".
func NewClient(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return newOpenAIClient(cfg)
	case "anthropic":
		return newAnthropicClient(cfg)
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unsupported llm provider %q", common.ErrInvalidConfig, cfg.Provider)
	}
}
