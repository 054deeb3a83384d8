package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCommandTree(t *testing.T) {
	want := []string{
		"serve", "import", "categories", "rules", "budgets",
		"insights", "alerts", "goals", "advice", "summary",
		"export", "version",
	}

	have := make(map[string]bool)
	for _, sub := range rootCmd.Commands() {
		have[sub.Name()] = true
	}
	for _, name := range want {
		assert.True(t, have[name], "command %q should be registered", name)
	}
}
