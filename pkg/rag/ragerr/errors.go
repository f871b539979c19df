// Package ragerr defines the error taxonomy shared by the retrieval agents
// and the orchestrator. Agents report failures through the Error field of
// their result DTOs; these sentinels let callers distinguish terminal states
// with errors.Is without string matching.
package ragerr

import "errors"

var (
	// ErrProvider marks an embedding or text-generation call failure.
	// Retry policy is owned by the caller (typically the task queue).
	ErrProvider = errors.New("model provider call failed")

	// ErrNoRelevantTables means table discovery exhausted every fallback
	// tier, which only happens when the catalog itself is empty.
	ErrNoRelevantTables = errors.New("no relevant tables found for this query")

	// ErrQueryGeneration means the model output stayed unparseable after
	// the fallback extraction attempts.
	ErrQueryGeneration = errors.New("failed to generate query")

	// ErrQueryValidation means the generated query failed the non-executing
	// EXPLAIN check.
	ErrQueryValidation = errors.New("query validation failed")

	// ErrQueryExecution means a validated query failed at execution time.
	ErrQueryExecution = errors.New("query execution failed")

	// ErrRoutingAmbiguous means the router selected no tool; the caller
	// degrades to a conversational answer without evidence.
	ErrRoutingAmbiguous = errors.New("unable to route query to specific agent")
)
