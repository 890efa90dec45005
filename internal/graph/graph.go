// Package graph declares the User and Post types and the query and
// mutation roots over a document store.
package graph

import (
	"github.com/hanpama/docgraph/internal/model"
	"github.com/hanpama/docgraph/internal/registry"
	"github.com/hanpama/docgraph/internal/schema"
	"github.com/hanpama/docgraph/internal/store"
)

type (
	obj   = registry.Object[*store.Store]
	field = registry.Field[*store.Store]
)

// New builds the executable schema. Every resolver receives st.
func New(st *store.Store, opts ...registry.Option) (*registry.Executable, error) {
	r := registry.New(st, opts...)
	Register(r)
	return r.Build()
}

// Register adds the entity types and both roots to r.
func Register(r *registry.Registry[*store.Store]) {
	r.Entity(model.User{}, "A registered user.")
	post := r.Entity(model.Post{}, "A post written by a user.")
	post.Field(field{
		Name:        "creator",
		Description: "The user referenced by creatorId, or null when it no longer exists.",
		Type:        schema.NamedType("User"),
		Async:       true,
		Resolve:     postCreator,
	})
	registerQuery(r.Query())
	registerMutation(r.Mutation())
}

func registerQuery(q *obj) {
	id := registry.Arg{Name: "id", Type: idType()}
	q.Field(field{Name: "user", Type: schema.NamedType("User"), Args: []registry.Arg{id}, Async: true, Resolve: queryUser}).
		Field(field{Name: "users", Type: listOf("User"), Async: true, Resolve: queryUsers}).
		Field(field{Name: "post", Type: schema.NamedType("Post"), Args: []registry.Arg{id}, Async: true, Resolve: queryPost}).
		Field(field{Name: "posts", Type: listOf("Post"), Async: true, Resolve: queryPosts})
}

func registerMutation(m *obj) {
	m.Field(field{
		Name: "createUser",
		Type: schema.NamedType("User"),
		Args: []registry.Arg{
			{Name: "name", Type: requiredString()},
			{Name: "email", Type: requiredString()},
			{Name: "phone", Type: requiredString()},
		},
		Resolve: createUser,
	}).Field(field{
		Name:        "deleteUser",
		Description: "Removes the user and every post it created.",
		Type:        schema.NamedType("User"),
		Args:        []registry.Arg{{Name: "id", Type: schema.NonNullType(idType())}},
		Resolve:     deleteUser,
	}).Field(field{
		Name: "createPost",
		Type: schema.NamedType("Post"),
		Args: []registry.Arg{
			{Name: "creatorId", Type: schema.NonNullType(idType())},
			{Name: "title", Type: requiredString()},
			{Name: "description", Type: requiredString()},
			{Name: "status", Type: statusType(), Default: model.DefaultStatusToken},
		},
		Resolve: createPost,
	}).Field(field{
		Name:        "updatePost",
		Description: "Sets only the supplied fields.",
		Type:        schema.NamedType("Post"),
		Args: []registry.Arg{
			{Name: "id", Type: schema.NonNullType(idType())},
			{Name: "title", Type: schema.NamedType("String")},
			{Name: "description", Type: schema.NamedType("String")},
			{Name: "status", Type: statusType()},
		},
		Resolve: updatePost,
	}).Field(field{
		Name:    "deletePost",
		Type:    schema.NamedType("Post"),
		Args:    []registry.Arg{{Name: "id", Type: schema.NonNullType(idType())}},
		Resolve: deletePost,
	})
}

func idType() *schema.TypeRef         { return schema.NamedType("ID") }
func statusType() *schema.TypeRef     { return schema.NamedType(model.PostStatus.Name) }
func requiredString() *schema.TypeRef { return schema.NonNullType(schema.NamedType("String")) }

func listOf(name string) *schema.TypeRef {
	return schema.NonNullType(schema.ListType(schema.NonNullType(schema.NamedType(name))))
}
