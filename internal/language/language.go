// Package language wraps gqlparser for request documents: parsing,
// validation against the composed schema and the AST types the executor
// walks.
package language

import (
	"errors"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"
)

type (
	QueryDocument       = ast.QueryDocument
	OperationDefinition = ast.OperationDefinition
	SelectionSet        = ast.SelectionSet
	Field               = ast.Field
	InlineFragment      = ast.InlineFragment
	FragmentSpread      = ast.FragmentSpread
	Directive           = ast.Directive
	DirectiveList       = ast.DirectiveList
	ArgumentList        = ast.ArgumentList
	Value               = ast.Value
	Type                = ast.Type

	Operation = ast.Operation
	ValueKind = ast.ValueKind
)

const (
	Query    Operation = ast.Query
	Mutation Operation = ast.Mutation

	Variable     ValueKind = ast.Variable
	IntValue     ValueKind = ast.IntValue
	FloatValue   ValueKind = ast.FloatValue
	StringValue  ValueKind = ast.StringValue
	BlockValue   ValueKind = ast.BlockValue
	BooleanValue ValueKind = ast.BooleanValue
	NullValue    ValueKind = ast.NullValue
	EnumValue    ValueKind = ast.EnumValue
	ListValue    ValueKind = ast.ListValue
	ObjectValue  ValueKind = ast.ObjectValue
)

// Error is a located GraphQL request error.
type Error = gqlerror.Error

// ErrorList is a list of request errors.
type ErrorList = gqlerror.List

// ValidationSchema is a schema loaded for document validation.
type ValidationSchema = ast.Schema

// ParseQuery parses without validating. Tests use it to build documents
// the validator would reject.
func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadSchema parses and validates SDL, adding the built-in prelude.
func LoadSchema(name, sdl string) (*ValidationSchema, error) {
	s, err := gqlparser.LoadSchema(&ast.Source{Name: name, Input: sdl})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ParseAndValidate parses source and checks it against s: unknown fields,
// argument presence and kinds, variable usage and fragment rules.
func ParseAndValidate(s *ValidationSchema, source string) (*QueryDocument, ErrorList) {
	return gqlparser.LoadQuery(s, source)
}

// CheckVariables reports the first variable of op that is missing, null
// where non-null, or of the wrong kind.
func CheckVariables(s *ValidationSchema, op *OperationDefinition, vars map[string]any) *Error {
	if _, err := validator.VariableValues(s, op, vars); err != nil {
		var gerr *gqlerror.Error
		if errors.As(err, &gerr) {
			if len(gerr.Path) > 0 {
				return &gqlerror.Error{Message: gerr.Path.String() + " " + gerr.Message, Extensions: gerr.Extensions}
			}
			return gerr
		}
		return &gqlerror.Error{Message: err.Error()}
	}
	return nil
}
