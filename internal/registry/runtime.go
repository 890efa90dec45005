package registry

import (
	"context"
	"fmt"
	"reflect"
	"runtime/debug"

	"github.com/hanpama/docgraph/internal/eventbus"
	"github.com/hanpama/docgraph/internal/events"
	"github.com/hanpama/docgraph/internal/executor"
	"github.com/hanpama/docgraph/internal/model"
	"github.com/hanpama/docgraph/internal/schema"
	"golang.org/x/sync/errgroup"
)

// Runtime dispatches executor calls to the registered resolvers.
//   - ResolveSync reads entity properties and runs inline resolvers
//     (mutation fields).
//   - BatchResolveAsync runs one goroutine per task, bounded by the
//     configured concurrency; results keep task order and one failing
//     task never fails its siblings.
//   - A panicking resolver becomes a field error and an
//     events.ResolverPanic.
type Runtime[D any] struct {
	deps    D
	objects map[string]*Object[D]
	enums   map[string]*model.Enum
	limit   int
}

var _ executor.Runtime = (*Runtime[struct{}])(nil)

func newRuntime[D any](r *Registry[D]) *Runtime[D] {
	objects := make(map[string]*Object[D], len(r.byName))
	for k, v := range r.byName {
		objects[k] = v
	}
	enums := make(map[string]*model.Enum, len(r.enums))
	for k, v := range r.enums {
		enums[k] = v
	}
	return &Runtime[D]{deps: r.deps, objects: objects, enums: enums, limit: r.opt.maxConcurrency}
}

func (rt *Runtime[D]) lookup(objectType, field string) (*Field[D], error) {
	o, ok := rt.objects[objectType]
	if !ok {
		return nil, fmt.Errorf("no object type %s", objectType)
	}
	f := o.field(field)
	if f == nil {
		return nil, fmt.Errorf("no field %s.%s", objectType, field)
	}
	return f, nil
}

func (rt *Runtime[D]) ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error) {
	f, err := rt.lookup(objectType, field)
	if err != nil {
		return nil, err
	}
	if f.Resolve == nil {
		entity, ok := source.(model.Entity)
		if !ok {
			return nil, fmt.Errorf("%s.%s: source %T is not an entity", objectType, field, source)
		}
		v, _ := entity.Get(field)
		return v, nil
	}
	return rt.call(ctx, objectType, f, source, args)
}

func (rt *Runtime[D]) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(tasks))
	var g errgroup.Group
	if rt.limit > 0 {
		g.SetLimit(rt.limit)
	}
	for i, task := range tasks {
		g.Go(func() error {
			f, err := rt.lookup(task.ObjectType, task.Field)
			if err != nil {
				results[i] = executor.AsyncResolveResult{Error: err}
				return nil
			}
			v, err := rt.call(ctx, task.ObjectType, f, task.Source, task.Args)
			results[i] = executor.AsyncResolveResult{Value: v, Error: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// SerializeLeafValue maps stored enum values to their tokens and checks
// built-in scalars.
func (rt *Runtime[D]) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if e, ok := rt.enums[typeName]; ok {
		s, ok := stringValue(value)
		if !ok {
			return nil, fmt.Errorf("%s cannot represent non-string value %v", typeName, value)
		}
		token, ok := e.Token(s)
		if !ok {
			return nil, fmt.Errorf("%s cannot represent value %q", typeName, s)
		}
		return token, nil
	}
	switch typeName {
	case "String", "ID":
		if s, ok := stringValue(value); ok {
			return s, nil
		}
		if typeName == "ID" {
			if n, ok := value.(int); ok {
				return fmt.Sprint(n), nil
			}
		}
		return nil, fmt.Errorf("%s cannot represent value %v (%T)", typeName, value, value)
	case "Boolean":
		if b, ok := value.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("Boolean cannot represent value %v (%T)", value, value)
	default:
		return value, nil
	}
}

// call runs one resolver with decoded enum arguments.
func (rt *Runtime[D]) call(ctx context.Context, objectType string, f *Field[D], source any, args map[string]any) (v any, err error) {
	defer func() {
		if p := recover(); p != nil {
			eventbus.Publish(ctx, events.ResolverPanic{
				ObjectType: objectType,
				Field:      f.Name,
				Value:      p,
				Stack:      debug.Stack(),
			})
			v, err = nil, fmt.Errorf("internal error resolving %s.%s", objectType, f.Name)
		}
	}()
	decoded, err := rt.decodeArgs(f, args)
	if err != nil {
		return nil, err
	}
	return f.Resolve(ctx, rt.deps, source, decoded)
}

// decodeArgs copies args, turning enum tokens into stored values.
func (rt *Runtime[D]) decodeArgs(f *Field[D], args map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	for _, a := range f.Args {
		v, ok := out[a.Name]
		if !ok || v == nil {
			continue
		}
		e, ok := rt.enums[schema.GetNamedType(a.Type)]
		if !ok {
			continue
		}
		dv, err := decodeEnum(e, v)
		if err != nil {
			return nil, fmt.Errorf("argument '%s': %w", a.Name, err)
		}
		out[a.Name] = dv
	}
	return out, nil
}

func decodeEnum(e *model.Enum, v any) (any, error) {
	switch tv := v.(type) {
	case string:
		stored, ok := e.Value(tv)
		if !ok {
			return nil, fmt.Errorf("%q is not a value of enum %s", tv, e.Name)
		}
		return stored, nil
	case []any:
		out := make([]any, len(tv))
		for i, item := range tv {
			d, err := decodeEnum(e, item)
			if err != nil {
				return nil, err
			}
			out[i] = d
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%v is not a value of enum %s", v, e.Name)
	}
}

// stringValue accepts strings and named string types such as model.Status.
func stringValue(v any) (string, bool) {
	if s, ok := v.(string); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}
