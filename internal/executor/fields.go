package executor

import (
	language "github.com/hanpama/docgraph/internal/language"
	schema "github.com/hanpama/docgraph/internal/schema"
)

// fieldGroup is every selection that writes one response key.
type fieldGroup struct {
	ResponseName string
	Fields       []*language.Field
}

// collector merges a selection set into field groups, keeping the order
// in which response keys first appear.
type collector struct {
	state    *executionState
	typeName string
	visited  map[string]bool
	index    map[string]int
	groups   []fieldGroup
}

func collectFields(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet) []fieldGroup {
	c := &collector{
		state:    state,
		typeName: objectType.Name,
		visited:  make(map[string]bool),
		index:    make(map[string]int),
	}
	c.walk(selectionSet)
	return c.groups
}

func (c *collector) walk(selectionSet language.SelectionSet) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *language.Field:
			if c.included(sel.Directives) {
				c.add(sel)
			}
		case *language.InlineFragment:
			if c.included(sel.Directives) && c.applies(sel.TypeCondition) {
				c.walk(sel.SelectionSet)
			}
		case *language.FragmentSpread:
			if !c.included(sel.Directives) || c.visited[sel.Name] {
				continue
			}
			c.visited[sel.Name] = true
			def := c.state.document.Fragments.ForName(sel.Name)
			if def != nil && c.applies(def.TypeCondition) {
				c.walk(def.SelectionSet)
			}
		}
	}
}

func (c *collector) add(f *language.Field) {
	key := f.Alias
	if key == "" {
		key = f.Name
	}
	if i, ok := c.index[key]; ok {
		c.groups[i].Fields = append(c.groups[i].Fields, f)
		return
	}
	c.index[key] = len(c.groups)
	c.groups = append(c.groups, fieldGroup{ResponseName: key, Fields: []*language.Field{f}})
}

// Every type here is an object type, so a condition matches by name.
func (c *collector) applies(typeCondition string) bool {
	return typeCondition == "" || typeCondition == c.typeName
}

// included applies @skip and @include. A condition that is not a boolean
// keeps the selection.
func (c *collector) included(directives language.DirectiveList) bool {
	if skip, ok := c.condition(directives.ForName("skip")); ok && skip {
		return false
	}
	if include, ok := c.condition(directives.ForName("include")); ok && !include {
		return false
	}
	return true
}

func (c *collector) condition(d *language.Directive) (value, ok bool) {
	if d == nil {
		return false, false
	}
	arg := d.Arguments.ForName("if")
	if arg == nil {
		return false, false
	}
	value, ok = valueFromASTWithVars(arg.Value, c.state.variableValues).(bool)
	return value, ok
}
