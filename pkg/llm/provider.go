package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Tool describes a function the model may call.
// Parameters is a JSON-Schema object in map form.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// ToolCall is one function invocation requested by the model.
// Arguments is the raw JSON string produced by the model.
type ToolCall struct {
	Id        string
	Name      string
	Arguments string
}

// ToolResult is the outcome of a tool-enabled chat turn: either the model
// selected one or more tools, or it answered with plain content.
type ToolResult struct {
	Content   string
	ToolCalls []ToolCall
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(maxTokens int) Option {
	return func(o *Options) {
		o.MaxTokens = maxTokens
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)

	// ChatWithTools sends a chat history along with callable tool definitions.
	// The model may answer with content, with tool calls, or with both.
	ChatWithTools(ctx context.Context, history []Message, tools []Tool, options ...Option) (*ToolResult, error)
}
