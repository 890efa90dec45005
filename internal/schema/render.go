package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Render produces SDL from the Schema.
// Deterministic ordering: root schema block first, then type names
// sorted lexicographically. Built-in scalars and directives are omitted.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	r := renderer{schema: s}

	r.renderSchemaBlock()

	typeNames := make([]string, 0, len(s.Types))
	for name, typ := range s.Types {
		if IsBuiltin(typ) {
			continue
		}
		typeNames = append(typeNames, name)
	}
	sort.Strings(typeNames)

	for _, name := range typeNames {
		typ := s.Types[name]
		switch typ.Kind {
		case TypeKindScalar:
			r.renderScalar(typ)
		case TypeKindEnum:
			r.renderEnum(typ)
		case TypeKindInputObject:
			r.renderInputObject(typ)
		case TypeKindObject:
			r.renderObject(typ)
		}
	}

	return strings.TrimRight(r.b.String(), "\n") + "\n"
}

type renderer struct {
	schema *Schema
	b      strings.Builder
}

func (r *renderer) renderSchemaBlock() {
	r.renderDescription("", r.schema.Description)
	r.b.WriteString("schema {\n")
	if r.schema.QueryType != "" {
		r.b.WriteString("  query: " + r.schema.QueryType + "\n")
	}
	if r.schema.MutationType != "" {
		r.b.WriteString("  mutation: " + r.schema.MutationType + "\n")
	}
	r.b.WriteString("}\n\n")
}

func (r *renderer) renderDescription(indent, desc string) {
	if desc == "" {
		return
	}
	r.b.WriteString(indent + "\"\"\"\n")
	r.b.WriteString(indent + strings.ReplaceAll(desc, `"""`, `\"""`))
	r.b.WriteString("\n" + indent + "\"\"\"\n")
}

func (r *renderer) renderScalar(typ *Type) {
	r.renderDescription("", typ.Description)
	r.b.WriteString("scalar " + typ.Name + "\n\n")
}

func (r *renderer) renderEnum(typ *Type) {
	r.renderDescription("", typ.Description)
	r.b.WriteString("enum " + typ.Name + " {\n")
	for _, val := range typ.EnumValues {
		r.renderDescription("  ", val.Description)
		r.b.WriteString("  " + val.Name)
		r.renderDeprecation(val.IsDeprecated, val.DeprecationReason)
		r.b.WriteString("\n")
	}
	r.b.WriteString("}\n\n")
}

func (r *renderer) renderInputObject(typ *Type) {
	r.renderDescription("", typ.Description)
	r.b.WriteString("input " + typ.Name + " {\n")
	for _, field := range typ.InputFields {
		r.renderDescription("  ", field.Description)
		r.b.WriteString("  " + r.inputValue(field) + "\n")
	}
	r.b.WriteString("}\n\n")
}

func (r *renderer) renderObject(typ *Type) {
	r.renderDescription("", typ.Description)
	r.b.WriteString("type " + typ.Name + " {\n")
	for _, field := range typ.Fields {
		r.renderField(field)
	}
	r.b.WriteString("}\n\n")
}

func (r *renderer) renderField(field *Field) {
	r.renderDescription("  ", field.Description)
	r.b.WriteString("  " + field.Name)
	if len(field.Arguments) > 0 {
		args := make([]string, len(field.Arguments))
		for i, arg := range field.Arguments {
			args[i] = r.inputValue(arg)
		}
		r.b.WriteString("(" + strings.Join(args, ", ") + ")")
	}
	r.b.WriteString(": " + field.Type.String())
	r.renderDeprecation(field.IsDeprecated, field.DeprecationReason)
	r.b.WriteString("\n")
}

func (r *renderer) renderDeprecation(deprecated bool, reason string) {
	if !deprecated {
		return
	}
	r.b.WriteString(" @deprecated")
	if reason != "" {
		r.b.WriteString("(reason: " + strconv.Quote(reason) + ")")
	}
}

func (r *renderer) inputValue(v *InputValue) string {
	s := v.Name + ": " + v.Type.String()
	if v.DefaultValue != nil {
		s += " = " + r.value(v.DefaultValue, v.Type)
	}
	return s
}

// value renders a default value. Strings bound to an enum type render as
// bare enum names.
func (r *renderer) value(value any, typ *TypeRef) string {
	if value == nil {
		return "null"
	}
	named := r.schema.Types[GetNamedType(typ)]

	switch v := value.(type) {
	case string:
		if named != nil && named.Kind == TypeKindEnum {
			return v
		}
		return strconv.Quote(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = r.value(item, listItemType(typ))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			var fieldType *TypeRef
			if named != nil {
				for _, f := range named.InputFields {
					if f.Name == k {
						fieldType = f.Type
					}
				}
			}
			parts[i] = k + ": " + r.value(v[k], fieldType)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprint(v)
	}
}

func listItemType(t *TypeRef) *TypeRef {
	if t != nil && t.Kind == TypeRefKindNonNull {
		t = t.OfType
	}
	if t != nil && t.Kind == TypeRefKindList {
		return t.OfType
	}
	return nil
}
