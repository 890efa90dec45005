// Package registry composes object, entity and enum declarations into an
// executable GraphQL schema.
//
// A Registry is generic over the dependency value D handed to every
// resolver. Entities declared with Entity expose their direct properties
// through model.Entity.Get; every other field needs a Resolver.
package registry

import (
	"context"

	"github.com/hanpama/docgraph/internal/model"
	"github.com/hanpama/docgraph/internal/schema"
)

const (
	queryTypeName    = "Query"
	mutationTypeName = "Mutation"
)

// Resolver computes one field. source is the parent value (nil on root
// fields) and args holds the coerced arguments with enum tokens already
// decoded to stored values.
type Resolver[D any] func(ctx context.Context, deps D, source any, args map[string]any) (any, error)

// Arg declares a field argument. Default uses the client form, so an enum
// default is a token.
type Arg struct {
	Name        string
	Description string
	Type        *schema.TypeRef
	Default     any
}

// Field declares an object field. Async fields are resolved in the
// depth-wise batch; the rest resolve inline.
type Field[D any] struct {
	Name        string
	Description string
	Type        *schema.TypeRef
	Args        []Arg
	Async       bool
	Resolve     Resolver[D]
}

// Object collects the fields of one GraphQL object type.
type Object[D any] struct {
	name        string
	description string
	fields      []*Field[D]
	byName      map[string]*Field[D]
}

// Field adds f, replacing an earlier field of the same name.
func (o *Object[D]) Field(f Field[D]) *Object[D] {
	if prev, ok := o.byName[f.Name]; ok {
		*prev = f
		return o
	}
	fp := &f
	o.fields = append(o.fields, fp)
	o.byName[f.Name] = fp
	return o
}

func (o *Object[D]) field(name string) *Field[D] { return o.byName[name] }

type options struct {
	maxConcurrency int
}

type Option func(*options)

// WithMaxConcurrency bounds how many async resolvers of one batch run at
// once. n <= 0 removes the bound.
func WithMaxConcurrency(n int) Option { return func(o *options) { o.maxConcurrency = n } }

// Registry accumulates declarations until Build.
type Registry[D any] struct {
	deps    D
	opt     options
	objects []*Object[D]
	byName  map[string]*Object[D]
	enums   map[string]*model.Enum
	order   []string // enum declaration order
}

func New[D any](deps D, opts ...Option) *Registry[D] {
	op := options{maxConcurrency: 16}
	for _, f := range opts {
		f(&op)
	}
	return &Registry[D]{
		deps:   deps,
		opt:    op,
		byName: make(map[string]*Object[D]),
		enums:  make(map[string]*model.Enum),
	}
}

// Object returns the declaration of the named object type, creating it on
// first use.
func (r *Registry[D]) Object(name, description string) *Object[D] {
	if o, ok := r.byName[name]; ok {
		if description != "" {
			o.description = description
		}
		return o
	}
	o := &Object[D]{name: name, description: description, byName: make(map[string]*Field[D])}
	r.objects = append(r.objects, o)
	r.byName[name] = o
	return o
}

// Query returns the query root.
func (r *Registry[D]) Query() *Object[D] { return r.Object(queryTypeName, "") }

// Mutation returns the mutation root. The schema has a mutation root only
// when it ends up with at least one field.
func (r *Registry[D]) Mutation() *Object[D] { return r.Object(mutationTypeName, "") }

// Enum declares e. Entities declare the enums of their fields on their own.
func (r *Registry[D]) Enum(e *model.Enum) {
	if _, ok := r.enums[e.Name]; ok {
		return
	}
	r.enums[e.Name] = e
	r.order = append(r.order, e.Name)
}

// Entity declares the object type of e with one non-null field per
// property. Resolver fields may be added to the returned object.
func (r *Registry[D]) Entity(e model.Entity, description string) *Object[D] {
	o := r.Object(e.TypeName(), description)
	for _, f := range e.Fields() {
		var named string
		switch f.Kind {
		case model.Identifier:
			named = "ID"
		case model.Enumerated:
			r.Enum(f.Enum)
			named = f.Enum.Name
		default:
			named = "String"
		}
		o.Field(Field[D]{Name: f.Name, Description: f.Description, Type: schema.NonNullType(schema.NamedType(named))})
	}
	return o
}
