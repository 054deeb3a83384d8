package llm

import (
	"context"
	"regexp"
	"strings"
)

// Client defines the interface for text-generation providers.
type Client interface {
	// Complete returns the model's reply to one system+user exchange.
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Config selects and tunes a provider.
type Config struct {
	Provider    string // "openai", "anthropic" or "none"
	APIKey      string
	Model       string
	BaseURL     string // OpenAI-compatible endpoint override
	Temperature float64
	MaxTokens   int
}

var (
	thinkBlockPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)
	thinkTagPattern   = regexp.MustCompile(`</?think>`)
)

// sanitizeCompletion strips reasoning tokens and markdown fences that some
// models wrap around their replies.
func sanitizeCompletion(content string) string {
	content = thinkBlockPattern.ReplaceAllString(content, "")
	content = thinkTagPattern.ReplaceAllString(content, "")
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```markdown")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}
	return content
}
