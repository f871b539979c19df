package orchestrator

import (
	"encoding/json"

	"db-rag-be/pkg/llm"
)

// Capability identifies a retrieval path.
type Capability int

const (
	CapabilityUnknown Capability = iota
	CapabilityStructured
	CapabilityUnstructured
)

func (c Capability) String() string {
	switch c {
	case CapabilityStructured:
		return "structured"
	case CapabilityUnstructured:
		return "unstructured"
	default:
		return "unknown"
	}
}

// Decision is one routing outcome: which capability to invoke and with
// what query text.
type Decision struct {
	Capability Capability
	Query      string
}

const (
	toolQueryStructured = "query_structured_data"
	toolSearchDocuments = "search_unstructured_documents"
)

func queryParameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "The question to answer, possibly rephrased for this retrieval path",
			},
		},
		"required": []string{"query"},
	}
}

// routingTools returns the tool definitions offered to the router model,
// honoring the capability gates.
func routingTools(enableSQL, enableVector bool) []llm.Tool {
	var tools []llm.Tool
	if enableSQL {
		tools = append(tools, llm.Tool{
			Name:        toolQueryStructured,
			Description: "Query structured business data stored in database tables: counts, sums, lists of records, metrics over customers, orders, transactions and similar.",
			Parameters:  queryParameters(),
		})
	}
	if enableVector {
		tools = append(tools, llm.Tool{
			Name:        toolSearchDocuments,
			Description: "Search unstructured company documents: policies, reports, manuals, meeting notes and other free text.",
			Parameters:  queryParameters(),
		})
	}
	return tools
}

// interpretToolCalls maps raw model tool calls onto typed decisions. Pure:
// unknown tools are dropped, duplicate capabilities keep the first call,
// and a missing or malformed query argument falls back to the original
// question.
func interpretToolCalls(question string, calls []llm.ToolCall) []Decision {
	var decisions []Decision
	seen := make(map[Capability]bool)

	for _, call := range calls {
		var capability Capability
		switch call.Name {
		case toolQueryStructured:
			capability = CapabilityStructured
		case toolSearchDocuments:
			capability = CapabilityUnstructured
		default:
			continue
		}
		if seen[capability] {
			continue
		}
		seen[capability] = true

		query := question
		var args struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal([]byte(call.Arguments), &args); err == nil && args.Query != "" {
			query = args.Query
		}

		decisions = append(decisions, Decision{Capability: capability, Query: query})
	}

	return decisions
}
