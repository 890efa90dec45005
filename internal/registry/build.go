package registry

import (
	"github.com/hanpama/docgraph/internal/executor"
	"github.com/hanpama/docgraph/internal/language"
	"github.com/hanpama/docgraph/internal/schema"
	"github.com/pkg/errors"
)

// Executable is a composed schema ready to validate and run requests.
type Executable struct {
	Schema     *schema.Schema
	SDL        string
	Validation *language.ValidationSchema
	Runtime    executor.Runtime
}

// Validate parses query and checks it against the schema.
func (x *Executable) Validate(query string) (*language.QueryDocument, language.ErrorList) {
	return language.ParseAndValidate(x.Validation, query)
}

// Executor returns an executor bound to the schema and runtime.
func (x *Executable) Executor() *executor.Executor {
	return executor.NewExecutor(x.Runtime, x.Schema)
}

// Build composes the declarations. It fails when the query root is
// missing, a non-property field lacks a resolver, or a type reference is
// undeclared.
func (r *Registry[D]) Build() (*Executable, error) {
	query, ok := r.byName[queryTypeName]
	if !ok || len(query.fields) == 0 {
		return nil, errors.New("registry: query root has no fields")
	}

	s := schema.NewSchema("")
	s.SetQueryType(queryTypeName)
	if m, ok := r.byName[mutationTypeName]; ok && len(m.fields) > 0 {
		s.SetMutationType(mutationTypeName)
	}

	for _, name := range r.order {
		e := r.enums[name]
		t := schema.NewType(e.Name, schema.TypeKindEnum, e.Description)
		for _, v := range e.Values {
			t.AddEnumValue(&schema.EnumValue{Name: v.Token, Description: v.Description})
		}
		s.AddType(t)
	}

	for _, o := range r.objects {
		if len(o.fields) == 0 {
			continue
		}
		t := schema.NewType(o.name, schema.TypeKindObject, o.description)
		for _, f := range o.fields {
			sf := schema.NewField(f.Name, f.Description, f.Type).SetAsync(f.Async)
			for _, a := range f.Args {
				sf.AddArgument(schema.NewInputValue(a.Name, a.Description, a.Type).SetDefault(a.Default))
			}
			t.AddField(sf)
		}
		s.AddType(t)
	}

	if err := r.check(s); err != nil {
		return nil, err
	}

	sdl := schema.Render(s)
	validation, err := language.LoadSchema("docgraph.graphql", sdl)
	if err != nil {
		return nil, errors.Wrap(err, "registry: loading composed schema")
	}

	return &Executable{
		Schema:     s,
		SDL:        sdl,
		Validation: validation,
		Runtime:    newRuntime(r),
	}, nil
}

func (r *Registry[D]) check(s *schema.Schema) error {
	known := func(ref *schema.TypeRef) bool {
		_, ok := s.Types[schema.GetNamedType(ref)]
		return ok
	}
	for _, o := range r.objects {
		for _, f := range o.fields {
			if f.Type == nil || !known(f.Type) {
				return errors.Errorf("registry: %s.%s has undeclared type %v", o.name, f.Name, f.Type)
			}
			if f.Resolve == nil && !r.isProperty(o, f) {
				return errors.Errorf("registry: %s.%s has no resolver", o.name, f.Name)
			}
			if f.Async && f.Resolve == nil {
				return errors.Errorf("registry: async field %s.%s has no resolver", o.name, f.Name)
			}
			for _, a := range f.Args {
				if a.Type == nil || !known(a.Type) {
					return errors.Errorf("registry: argument %s of %s.%s has undeclared type %v", a.Name, o.name, f.Name, a.Type)
				}
			}
		}
	}
	return nil
}

// isProperty reports whether f is read from the source entity. Root
// fields never are.
func (r *Registry[D]) isProperty(o *Object[D], f *Field[D]) bool {
	return o.name != queryTypeName && o.name != mutationTypeName && len(f.Args) == 0
}
