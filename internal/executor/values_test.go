package executor

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	schema "github.com/hanpama/docgraph/internal/schema"
)

func coercionSchema() *schema.Schema {
	status := schema.NewType("Status", schema.TypeKindEnum, "")
	status.AddEnumValue(&schema.EnumValue{Name: "new"}).AddEnumValue(&schema.EnumValue{Name: "done"})

	input := schema.NewType("NewItem", schema.TypeKindInputObject, "")
	input.AddInputField(schema.NewInputValue("label", "", schema.NonNullType(str()))).
		AddInputField(schema.NewInputValue("note", "", str()))

	return newSchemaWithQueryType(
		newObjectType("Query",
			schema.NewField("echo", "", str()).
				AddArgument(schema.NewInputValue("msg", "", schema.NonNullType(str()))),
			schema.NewField("byStatus", "", str()).
				AddArgument(schema.NewInputValue("status", "", schema.NamedType("Status")).SetDefault("new")),
			schema.NewField("add", "", str()).
				AddArgument(schema.NewInputValue("input", "", schema.NonNullType(schema.NamedType("NewItem")))),
			schema.NewField("num", "", str()).
				AddArgument(schema.NewInputValue("n", "", schema.NonNullType(schema.NamedType("Int")))),
			schema.NewField("find", "", str()).
				AddArgument(schema.NewInputValue("label", "", str())),
		),
		status, input,
	)
}

func echoRuntime() *MockRuntime {
	ok := NewMockValueResolver("ok")
	return NewMockRuntime(map[string]MockResolver{
		"Query.echo":     ok,
		"Query.byStatus": ok,
		"Query.add":      ok,
		"Query.num":      ok,
		"Query.find":     ok,
	})
}

// Pattern: Result comparison + Calls comparison
func TestCoerceArguments_Result(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		vars      map[string]any
		wantRes   *ExecutionResult
		wantCalls []Call
	}{
		{
			name:  "missing required argument skips the resolver",
			query: "{ echo }",
			wantRes: &ExecutionResult{
				Data:   map[string]any{"echo": nil},
				Errors: []GraphQLError{{Message: "argument 'msg' of required type String! was not provided", Path: Path{"echo"}}},
			},
			wantCalls: []Call{},
		},
		{
			name:    "enum default is applied",
			query:   "{ byStatus }",
			wantRes: &ExecutionResult{Data: map[string]any{"byStatus": "ok"}, Errors: []GraphQLError{}},
			wantCalls: []Call{
				{Kind: "sync", ObjectType: "Query", Field: "byStatus", Args: map[string]any{"status": "new"}},
			},
		},
		{
			name:    "enum literal is accepted",
			query:   "{ byStatus(status: done) }",
			wantRes: &ExecutionResult{Data: map[string]any{"byStatus": "ok"}, Errors: []GraphQLError{}},
			wantCalls: []Call{
				{Kind: "sync", ObjectType: "Query", Field: "byStatus", Args: map[string]any{"status": "done"}},
			},
		},
		{
			name:  "input object required field",
			query: `{ add(input: {note: "x"}) }`,
			wantRes: &ExecutionResult{
				Data: map[string]any{"add": nil},
				Errors: []GraphQLError{{
					Message: "argument 'input' cannot be coerced: required field 'label' of NewItem was not provided",
					Path:    Path{"add"},
				}},
			},
			wantCalls: []Call{},
		},
		{
			name:    "input object fields are coerced",
			query:   `{ add(input: {label: "a"}) }`,
			wantRes: &ExecutionResult{Data: map[string]any{"add": "ok"}, Errors: []GraphQLError{}},
			wantCalls: []Call{
				{Kind: "sync", ObjectType: "Query", Field: "add", Args: map[string]any{"input": map[string]any{"label": "a"}}},
			},
		},
		{
			name:    "unset optional variable is omitted",
			query:   "query($l: String) { find(label: $l) }",
			wantRes: &ExecutionResult{Data: map[string]any{"find": "ok"}, Errors: []GraphQLError{}},
			wantCalls: []Call{
				{Kind: "sync", ObjectType: "Query", Field: "find", Args: map[string]any{}},
			},
		},
		{
			name:    "JSON number variable becomes an int",
			query:   "query($n: Int!) { num(n: $n) }",
			vars:    map[string]any{"n": float64(42)},
			wantRes: &ExecutionResult{Data: map[string]any{"num": "ok"}, Errors: []GraphQLError{}},
			wantCalls: []Call{
				{Kind: "sync", ObjectType: "Query", Field: "num", Args: map[string]any{"n": 42}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := echoRuntime()
			gotRes := NewExecutor(rt, coercionSchema()).ExecuteRequest(context.Background(), mustParseQuery(t, tt.query), "", tt.vars, nil)
			if diff := cmp.Diff(tt.wantRes, gotRes); diff != "" {
				t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantCalls, rt.GetCalls()); diff != "" {
				t.Fatalf("Runtime calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// Pattern: Result comparison
func TestCoerceVariables_Result(t *testing.T) {
	tests := []struct {
		name  string
		query string
		vars  map[string]any
		want  string
	}{
		{
			name:  "unknown enum value",
			query: "query($s: Status) { byStatus(status: $s) }",
			vars:  map[string]any{"s": "bogus"},
			want:  "variable $s of type Status cannot be coerced: bogus is not a value of enum Status",
		},
		{
			name:  "string for Int",
			query: "query($n: Int!) { num(n: $n) }",
			vars:  map[string]any{"n": "42"},
			want:  "variable $n of type Int! cannot be coerced: cannot coerce 42 (string) to int",
		},
		{
			name:  "missing required variable",
			query: "query($m: String!) { echo(msg: $m) }",
			want:  "variable $m of required type String! was not provided",
		},
		{
			name:  "null for non-null variable",
			query: "query($m: String!) { echo(msg: $m) }",
			vars:  map[string]any{"m": nil},
			want:  "variable $m of type String! cannot be null",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := echoRuntime()
			gotRes := NewExecutor(rt, coercionSchema()).ExecuteRequest(context.Background(), mustParseQuery(t, tt.query), "", tt.vars, nil)
			wantRes := &ExecutionResult{Errors: []GraphQLError{{Message: tt.want}}}
			if diff := cmp.Diff(wantRes, gotRes); diff != "" {
				t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
			}
			if len(rt.GetCalls()) != 0 {
				t.Fatalf("expected no runtime calls, got %v", rt.GetCalls())
			}
		})
	}
}
