// Package executor implements a breadth-first, batch-friendly GraphQL
// executor with runtime hooks for synchronous resolution, depth-wise
// batching of asynchronous work, and leaf serialization.
//
// # Execution model
//
// Fields marked Async in the schema are queued while a depth is expanded
// and handed to Runtime.BatchResolveAsync in one call per depth. All other
// fields resolve inline through Runtime.ResolveSync and their sub-selections
// expand immediately without adding a depth.
//
// For query operations the whole tree advances depth by depth. For
// mutation operations each root field is resolved, and every async depth
// below it drained, before the next root field starts, so mutations apply
// in document order.
//
// # Arguments
//
// Variables are coerced against their declared types before anything
// runs; a failure there aborts the request. Field arguments are coerced
// against the schema (built-in scalars, enum membership, input object
// shape). A field whose arguments are missing or invalid gets a located
// error and a null value, and its resolver is never invoked.
//
// # Errors and nulls
//
// Resolver errors become GraphQLError values carrying the response path.
// A null (or error) in a Non-Null position propagates to the nearest
// nullable ancestor; queued work beneath a nulled path is dropped before
// the next batch. Sibling fields are unaffected, so results may be
// partial.
package executor
