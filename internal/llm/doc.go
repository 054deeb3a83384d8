// Package llm provides text-generation clients for the advice feature.
// It supports the OpenAI and Anthropic chat APIs over plain HTTP; an
// OpenAI-compatible base URL override covers local runtimes such as
// LM Studio.
package llm
