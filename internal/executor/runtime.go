package executor

import (
	"context"
)

// Runtime is the host integration surface used by the Executor.
//
// The Executor drains all synchronous fields of a depth through
// ResolveSync, then calls BatchResolveAsync once with every async task
// collected at that depth. ResolveSync is never called for async fields.
//
// objectType is the GraphQL type name owning the field ("Query" for root
// fields), source the parent value (nil at the root) and args the
// already-coerced argument values. Implementations must not mutate source
// or args and must be safe for concurrent operations.
type Runtime interface {
	// ResolveSync resolves a synchronous field value immediately.
	// Return (nil, nil) to produce a GraphQL null for nullable fields.
	ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error)

	// BatchResolveAsync resolves one execution depth of async field tasks.
	// It must return exactly one result per task, in task order; a failure
	// of one element must not fail the others.
	BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult

	// SerializeLeafValue converts a scalar or enum value to a JSON-safe Go
	// value. Enums serialize to their symbolic name.
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)
}

type AsyncResolveTask struct {
	// ObjectType is the parent GraphQL object type name for the field.
	ObjectType string
	// Field is the GraphQL field name to resolve.
	Field string
	// Source is the parent object value (nil for root fields).
	Source any
	// Args are the field arguments, coerced to Go values per the schema.
	Args map[string]any
}

type AsyncResolveResult struct {
	// Value is the resolved raw value prior to completion, or nil on error.
	Value any
	// Error contains a failure specific to this element.
	Error error
}
