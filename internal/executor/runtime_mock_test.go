package executor

import (
	"context"
	"sync"
)

// MockResolver resolves one field for one source.
type MockResolver func(ctx context.Context, source any, args map[string]any) (any, error)

const (
	CallKindSync  = "sync"
	CallKindAsync = "async"
)

func NewMockValueResolver(val any) MockResolver {
	return func(context.Context, any, map[string]any) (any, error) { return val, nil }
}

func NewMockErrorResolver(err error) MockResolver {
	return func(context.Context, any, map[string]any) (any, error) { return nil, err }
}

// Call records one resolved field. Async calls resolved in the same
// flush share a BatchID; sync calls have BatchID 0.
type Call struct {
	Kind       string
	ObjectType string
	Field      string
	Source     any
	Args       map[string]any
	BatchID    int
}

// MockRuntime dispatches "Type.field" keys to resolvers and records every
// call. A missing resolver resolves to nil.
type MockRuntime struct {
	mu         sync.Mutex
	resolvers  map[string]MockResolver
	calls      []Call
	batches    int
	serializer func(typeName string, val any) (any, error)
}

func NewMockRuntime(resolvers map[string]MockResolver) *MockRuntime {
	m := &MockRuntime{resolvers: make(map[string]MockResolver, len(resolvers))}
	for k, v := range resolvers {
		m.resolvers[k] = v
	}
	return m
}

// SetSerializer replaces the leaf serializer, which otherwise returns
// values unchanged.
func (m *MockRuntime) SetSerializer(f func(typeName string, val any) (any, error)) {
	m.mu.Lock()
	m.serializer = f
	m.mu.Unlock()
}

func (m *MockRuntime) resolve(ctx context.Context, kind string, batch int, objectType, field string, source any, args map[string]any) AsyncResolveResult {
	m.mu.Lock()
	r := m.resolvers[objectType+"."+field]
	m.mu.Unlock()

	var out AsyncResolveResult
	if r != nil {
		out.Value, out.Error = r(ctx, source, args)
	}

	m.mu.Lock()
	m.calls = append(m.calls, Call{Kind: kind, ObjectType: objectType, Field: field, Source: source, Args: args, BatchID: batch})
	m.mu.Unlock()
	return out
}

func (m *MockRuntime) ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error) {
	out := m.resolve(ctx, CallKindSync, 0, objectType, field, source, args)
	if out.Error != nil {
		return nil, out.Error
	}
	return out.Value, nil
}

// BatchResolveAsync resolves tasks grouped by field, groups in order of
// first appearance, and returns results in task order.
func (m *MockRuntime) BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult {
	if len(tasks) == 0 {
		return nil
	}
	m.mu.Lock()
	m.batches++
	batch := m.batches
	m.mu.Unlock()

	var order []string
	groups := make(map[string][]int)
	for i, t := range tasks {
		key := t.ObjectType + "." + t.Field
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	results := make([]AsyncResolveResult, len(tasks))
	for _, key := range order {
		for _, i := range groups[key] {
			t := tasks[i]
			results[i] = m.resolve(ctx, CallKindAsync, batch, t.ObjectType, t.Field, t.Source, t.Args)
		}
	}
	return results
}

func (m *MockRuntime) SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error) {
	m.mu.Lock()
	f := m.serializer
	m.mu.Unlock()
	if f == nil {
		return value, nil
	}
	return f(scalarOrEnumTypeName, value)
}

// GetCalls returns the recorded calls in order, never nil.
func (m *MockRuntime) GetCalls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call{}, m.calls...)
}
