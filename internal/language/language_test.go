package language

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testSDL = `
type Query { note(id: ID!): Note }
type Note { id: ID! body: String }
`

func TestParseAndValidate(t *testing.T) {
	s, err := LoadSchema("test.graphql", testSDL)
	require.NoError(t, err)

	doc, errs := ParseAndValidate(s, `{ note(id: "1") { id body } }`)
	require.Empty(t, errs)
	require.Len(t, doc.Operations, 1)
	require.Equal(t, Query, doc.Operations[0].Operation)

	_, errs = ParseAndValidate(s, `{ note { id } }`)
	require.NotEmpty(t, errs)
	require.Contains(t, errs[0].Message, `argument "id"`)

	_, errs = ParseAndValidate(s, `{ note(id: "1") { title } }`)
	require.NotEmpty(t, errs)
	require.Contains(t, errs[0].Message, "title")

	_, errs = ParseAndValidate(s, `{ note(id: "1") {`)
	require.NotEmpty(t, errs, "syntax errors are reported through the same list")
}

func TestParseQuery(t *testing.T) {
	doc, err := ParseQuery(`mutation M { a }`)
	require.NoError(t, err)
	require.Equal(t, Mutation, doc.Operations.ForName("M").Operation)

	_, err = ParseQuery(`{`)
	require.Error(t, err)
}

func TestCheckVariables(t *testing.T) {
	s, err := LoadSchema("test.graphql", testSDL)
	require.NoError(t, err)
	doc, errs := ParseAndValidate(s, `query($id: ID!) { note(id: $id) { id } }`)
	require.Empty(t, errs)
	op := doc.Operations[0]

	require.Nil(t, CheckVariables(s, op, map[string]any{"id": "1"}))

	verr := CheckVariables(s, op, map[string]any{})
	require.NotNil(t, verr)
	require.Contains(t, verr.Message, "variable.id")

	require.NotNil(t, CheckVariables(s, op, map[string]any{"id": nil}))
}
