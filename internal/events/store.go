package events

import "time"

// StoreOp names a document store operation.
type StoreOp string

const (
	StoreFindByID StoreOp = "findById"
	StoreFind     StoreOp = "find"
	StoreInsert   StoreOp = "insert"
	StoreUpdate   StoreOp = "findByIdAndUpdate"
	StoreRemove   StoreOp = "findByIdAndRemove"
)

// Writes reports whether the operation mutates the collection.
func (o StoreOp) Writes() bool {
	return o == StoreInsert || o == StoreUpdate || o == StoreRemove
}

// StoreCall is emitted after a collection operation returns.
// ID is the document id the call addressed (the assigned id for inserts).
// Found is false when a by-id operation matched nothing.
type StoreCall struct {
	Collection string
	Op         StoreOp
	ID         string
	Found      bool
	Err        error
	Start      time.Time
	Duration   time.Duration
}
