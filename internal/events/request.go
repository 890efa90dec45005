// Package events defines the values published on the eventbus while a
// request is served. Subscribers (logging, metrics, tracing, the change
// feed) receive them with the request context.
package events

import (
	"net/http"
	"time"
)

// HTTPStart is emitted when the handler receives a request.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is emitted after the response is written. Operations counts
// the GraphQL requests in the body: 1, the batch length, or 0 when the
// body could not be parsed.
type HTTPFinish struct {
	Request    *http.Request
	Status     int
	Operations int
	Duration   time.Duration
}

// GraphQLStart is emitted before executing a GraphQL operation.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is emitted after executing a GraphQL operation.
// Rejected is set when the document failed validation and nothing ran.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Rejected      bool
	Errors        []error
	Duration      time.Duration
}

// ResolverPanic is emitted when a field resolver panics. The panic is
// turned into a field error.
type ResolverPanic struct {
	ObjectType string
	Field      string
	Value      any
	Stack      []byte
}
