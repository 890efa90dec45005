package graph

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hanpama/docgraph/internal/executor"
	"github.com/hanpama/docgraph/internal/language"
	"github.com/hanpama/docgraph/internal/model"
	"github.com/hanpama/docgraph/internal/registry"
	"github.com/hanpama/docgraph/internal/store"
	"github.com/stretchr/testify/require"
)

func newGateway(t *testing.T, st *store.Store) *registry.Executable {
	t.Helper()
	x, err := New(st)
	require.NoError(t, err)
	return x
}

func do(t *testing.T, x *registry.Executable, query string, vars map[string]any) *executor.ExecutionResult {
	t.Helper()
	doc, errs := x.Validate(query)
	require.Empty(t, errs, "validation")
	return x.Executor().ExecuteRequest(context.Background(), doc, "", vars, nil)
}

func dataOf(t *testing.T, res *executor.ExecutionResult) map[string]any {
	t.Helper()
	require.Empty(t, res.Errors)
	return res.Data.(map[string]any)
}

func mustCreateUser(t *testing.T, x *registry.Executable, name string) string {
	t.Helper()
	res := do(t, x, `mutation($n: String!) { createUser(name: $n, email: "e", phone: "p") { id } }`, map[string]any{"n": name})
	return dataOf(t, res)["createUser"].(map[string]any)["id"].(string)
}

func mustCreatePost(t *testing.T, x *registry.Executable, creatorID, title string) string {
	t.Helper()
	res := do(t, x, `mutation($c: ID!, $t: String!) { createPost(creatorId: $c, title: $t, description: "d") { id } }`,
		map[string]any{"c": creatorID, "t": title})
	return dataOf(t, res)["createPost"].(map[string]any)["id"].(string)
}

func TestCreateUserRoundTrip(t *testing.T) {
	x := newGateway(t, store.NewMemory())

	res := do(t, x, `mutation { createUser(name: "Ada", email: "ada@example.com", phone: "555-0100") { id name email phone } }`, nil)
	created := dataOf(t, res)["createUser"].(map[string]any)
	id := created["id"].(string)
	require.NotEmpty(t, id)

	want := map[string]any{"id": id, "name": "Ada", "email": "ada@example.com", "phone": "555-0100"}
	if diff := cmp.Diff(want, created); diff != "" {
		t.Fatalf("createUser mismatch (-want +got):\n%s", diff)
	}

	res = do(t, x, `query($id: ID) { user(id: $id) { id name email phone } }`, map[string]any{"id": id})
	if diff := cmp.Diff(want, dataOf(t, res)["user"]); diff != "" {
		t.Fatalf("user mismatch (-want +got):\n%s", diff)
	}
}

func TestNotFoundIsNull(t *testing.T) {
	x := newGateway(t, store.NewMemory())
	res := do(t, x, `{ user(id: "nope") { id } post(id: "nope") { id } noArg: user { id } }`, nil)
	want := map[string]any{"user": nil, "post": nil, "noArg": nil}
	if diff := cmp.Diff(want, dataOf(t, res)); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}

	res = do(t, x, `mutation { updatePost(id: "nope", title: "x") { id } deletePost(id: "nope") { id } }`, nil)
	want = map[string]any{"updatePost": nil, "deletePost": nil}
	if diff := cmp.Diff(want, dataOf(t, res)); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestCreatePostDefaultStatus(t *testing.T) {
	st := store.NewMemory()
	x := newGateway(t, st)
	uid := mustCreateUser(t, x, "Ada")

	res := do(t, x, `mutation($c: ID!) { createPost(creatorId: $c, title: "t", description: "d") { id status creatorId } }`,
		map[string]any{"c": uid})
	got := dataOf(t, res)["createPost"].(map[string]any)
	require.Equal(t, "new", got["status"])
	require.Equal(t, uid, got["creatorId"])

	stored, err := st.Posts.FindByID(context.Background(), got["id"].(string))
	require.NoError(t, err)
	require.Equal(t, model.StatusNotStarted, stored.Status)

	res = do(t, x, `mutation($c: ID!) { createPost(creatorId: $c, title: "t", description: "d", status: completed) { id status } }`,
		map[string]any{"c": uid})
	got = dataOf(t, res)["createPost"].(map[string]any)
	require.Equal(t, "completed", got["status"])
	stored, err = st.Posts.FindByID(context.Background(), got["id"].(string))
	require.NoError(t, err)
	require.Equal(t, model.StatusCompleted, stored.Status)
}

func TestUpdatePostPartial(t *testing.T) {
	st := store.NewMemory()
	x := newGateway(t, st)
	pid := mustCreatePost(t, x, "u1", "title")

	res := do(t, x, `mutation($id: ID!) { updatePost(id: $id, status: progress) { id title description status } }`,
		map[string]any{"id": pid})
	want := map[string]any{"id": pid, "title": "title", "description": "d", "status": "progress"}
	if diff := cmp.Diff(want, dataOf(t, res)["updatePost"]); diff != "" {
		t.Fatalf("updatePost mismatch (-want +got):\n%s", diff)
	}

	stored, err := st.Posts.FindByID(context.Background(), pid)
	require.NoError(t, err)
	require.Equal(t, model.Post{ID: pid, Title: "title", Description: "d", Status: model.StatusInProgress, CreatorID: "u1"}, *stored)

	res = do(t, x, `mutation($id: ID!) { updatePost(id: $id, title: "renamed") { title status } }`, map[string]any{"id": pid})
	want = map[string]any{"title": "renamed", "status": "progress"}
	if diff := cmp.Diff(want, dataOf(t, res)["updatePost"]); diff != "" {
		t.Fatalf("updatePost mismatch (-want +got):\n%s", diff)
	}
}

func TestDeletePost(t *testing.T) {
	st := store.NewMemory()
	x := newGateway(t, st)
	uid := mustCreateUser(t, x, "Ada")
	keep := mustCreatePost(t, x, uid, "keep")
	drop := mustCreatePost(t, x, uid, "drop")

	res := do(t, x, `mutation($id: ID!) { deletePost(id: $id) { id title } }`, map[string]any{"id": drop})
	want := map[string]any{"id": drop, "title": "drop"}
	if diff := cmp.Diff(want, dataOf(t, res)["deletePost"]); diff != "" {
		t.Fatalf("deletePost mismatch (-want +got):\n%s", diff)
	}

	posts, err := st.Posts.Find(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, keep, posts[0].ID)

	res = do(t, x, `mutation($id: ID!) { deletePost(id: $id) { id } }`, map[string]any{"id": drop})
	require.Equal(t, map[string]any{"deletePost": nil}, dataOf(t, res))
}

func TestDeleteUserCascades(t *testing.T) {
	st := store.NewMemory()
	x := newGateway(t, st)
	ctx := context.Background()

	uid := mustCreateUser(t, x, "Ada")
	other := mustCreateUser(t, x, "Grace")
	for _, title := range []string{"a", "b", "c"} {
		mustCreatePost(t, x, uid, title)
	}
	kept := mustCreatePost(t, x, other, "kept")

	res := do(t, x, `mutation($id: ID!) { deleteUser(id: $id) { id name } }`, map[string]any{"id": uid})
	want := map[string]any{"deleteUser": map[string]any{"id": uid, "name": "Ada"}}
	if diff := cmp.Diff(want, dataOf(t, res)); diff != "" {
		t.Fatalf("deleteUser mismatch (-want +got):\n%s", diff)
	}

	posts, err := st.Posts.Find(ctx, nil)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, kept, posts[0].ID)
	u, err := st.Users.FindByID(ctx, uid)
	require.NoError(t, err)
	require.Nil(t, u)

	res = do(t, x, `mutation($id: ID!) { deleteUser(id: $id) { id } }`, map[string]any{"id": uid})
	if diff := cmp.Diff(map[string]any{"deleteUser": nil}, dataOf(t, res)); diff != "" {
		t.Fatalf("repeated deleteUser mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteUserRemovesOrphanPosts(t *testing.T) {
	st := store.NewMemory()
	x := newGateway(t, st)
	mustCreatePost(t, x, "ghost", "orphan")

	res := do(t, x, `mutation { deleteUser(id: "ghost") { id } }`, nil)
	if diff := cmp.Diff(map[string]any{"deleteUser": nil}, dataOf(t, res)); diff != "" {
		t.Fatalf("deleteUser mismatch (-want +got):\n%s", diff)
	}
	posts, err := st.Posts.Find(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, posts)
}

func TestCreatorOfDeletedUserIsNull(t *testing.T) {
	st := store.NewMemory()
	x := newGateway(t, st)
	uid := mustCreateUser(t, x, "Ada")
	mustCreatePost(t, x, uid, "mine")
	mustCreatePost(t, x, "never-existed", "dangling")

	_, err := st.Users.FindByIDAndRemove(context.Background(), uid)
	require.NoError(t, err)

	res := do(t, x, `{ posts { title creator { email } } }`, nil)
	posts := dataOf(t, res)["posts"].([]any)
	require.Len(t, posts, 2)
	for _, p := range posts {
		require.Nil(t, p.(map[string]any)["creator"])
	}
}

func TestCreatorResolvesLive(t *testing.T) {
	x := newGateway(t, store.NewMemory())
	uid := mustCreateUser(t, x, "Ada")
	pid := mustCreatePost(t, x, uid, "mine")

	res := do(t, x, `query($id: ID) { post(id: $id) { creator { name uid: id } } }`, map[string]any{"id": pid})
	want := map[string]any{"post": map[string]any{"creator": map[string]any{"name": "Ada", "uid": uid}}}
	if diff := cmp.Diff(want, dataOf(t, res)); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestMissingRequiredArgumentWritesNothing(t *testing.T) {
	st := store.NewMemory()
	x := newGateway(t, st)
	const q = `mutation { createUser(name: "Ada", email: "e") { id } }`

	_, errs := x.Validate(q)
	require.NotEmpty(t, errs)
	require.Contains(t, errs[0].Message, `argument "phone"`)

	// the executor refuses the field on its own as well
	doc, err := language.ParseQuery(q)
	require.NoError(t, err)
	res := x.Executor().ExecuteRequest(context.Background(), doc, "", nil, nil)
	require.Equal(t, map[string]any{"createUser": nil}, res.Data)
	require.Len(t, res.Errors, 1)
	require.Contains(t, res.Errors[0].Message, "argument 'phone'")

	users, err := st.Users.Find(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, users)
}

func TestInvalidStatusTokenRejected(t *testing.T) {
	x := newGateway(t, store.NewMemory())
	_, errs := x.Validate(`mutation { updatePost(id: "1", status: done) { id } }`)
	require.NotEmpty(t, errs)
}

func TestListsReturnEveryRecord(t *testing.T) {
	x := newGateway(t, store.NewMemory())
	var ids []any
	for _, n := range []string{"a", "b", "c"} {
		ids = append(ids, map[string]any{"id": mustCreateUser(t, x, n)})
	}
	res := do(t, x, `{ users { id } posts { id } }`, nil)
	data := dataOf(t, res)
	require.ElementsMatch(t, ids, data["users"])
	require.Equal(t, []any{}, data["posts"])
}

// flakyPosts fails every FindByIDAndRemove after the first ok calls.
type flakyPosts struct {
	store.Collection[model.Post]
	mu sync.Mutex
	ok int
}

func (f *flakyPosts) FindByIDAndRemove(ctx context.Context, id string) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ok == 0 {
		return nil, errors.New("disk on fire")
	}
	f.ok--
	return f.Collection.FindByIDAndRemove(ctx, id)
}

func TestDeleteUserAbortsOnFirstFailure(t *testing.T) {
	mem := store.NewMemory()
	st := &store.Store{Users: mem.Users, Posts: &flakyPosts{Collection: mem.Posts, ok: 1}}
	x := newGateway(t, st)
	ctx := context.Background()

	uid := mustCreateUser(t, x, "Ada")
	for _, title := range []string{"a", "b", "c"} {
		mustCreatePost(t, x, uid, title)
	}

	res := do(t, x, `mutation($id: ID!) { deleteUser(id: $id) { id } }`, map[string]any{"id": uid})
	require.Equal(t, map[string]any{"deleteUser": nil}, res.Data)
	require.Len(t, res.Errors, 1)
	require.Equal(t, executor.Path{"deleteUser"}, res.Errors[0].Path)
	require.Contains(t, res.Errors[0].Message, "aborted after removing 1 of 3 posts")
	require.Contains(t, res.Errors[0].Message, "disk on fire")

	u, err := mem.Users.FindByID(ctx, uid)
	require.NoError(t, err)
	require.NotNil(t, u, "user must survive an aborted cascade")
	posts, err := mem.Posts.Find(ctx, store.Filter{"creatorId": uid})
	require.NoError(t, err)
	require.Len(t, posts, 2)
}

// brokenUsers fails every Find.
type brokenUsers struct {
	store.Collection[model.User]
}

func (brokenUsers) Find(context.Context, store.Filter) ([]model.User, error) {
	return nil, errors.New("connection reset")
}

func TestStoreFailureIsFieldError(t *testing.T) {
	mem := store.NewMemory()
	st := &store.Store{Users: brokenUsers{mem.Users}, Posts: mem.Posts}
	x := newGateway(t, st)
	mustCreatePost(t, x, "u", "p")

	res := do(t, x, `{ users { id } posts { title } }`, nil)
	want := &executor.ExecutionResult{
		Data: map[string]any{
			"users": nil,
			"posts": []any{map[string]any{"title": "p"}},
		},
		Errors: []executor.GraphQLError{{Message: "listing users: connection reset", Path: executor.Path{"users"}}},
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}
