// Package storetest holds the conformance suite every store backend
// passes.
package storetest

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/hanpama/docgraph/internal/model"
	"github.com/hanpama/docgraph/internal/store"
	"github.com/stretchr/testify/require"
)

// Run exercises both collections of the store returned by open. Each
// subtest gets a fresh, empty store.
func Run(t *testing.T, open func(t *testing.T) *store.Store) {
	t.Run("InsertAssignsID", func(t *testing.T) { testInsertAssignsID(t, open(t)) })
	t.Run("FindByIDMissing", func(t *testing.T) { testFindByIDMissing(t, open(t)) })
	t.Run("FindFilter", func(t *testing.T) { testFindFilter(t, open(t)) })
	t.Run("UpdatePartial", func(t *testing.T) { testUpdatePartial(t, open(t)) })
	t.Run("Remove", func(t *testing.T) { testRemove(t, open(t)) })
}

func testInsertAssignsID(t *testing.T, s *store.Store) {
	ctx := context.Background()
	in := model.User{ID: "caller-chosen", Name: "Ada", Email: "ada@example.com", Phone: "555-0100"}

	created, err := s.Users.Insert(ctx, in)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.NotEqual(t, "caller-chosen", created.ID)

	other, err := s.Users.Insert(ctx, in)
	require.NoError(t, err)
	require.NotEqual(t, created.ID, other.ID)

	got, err := s.Users.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	if diff := cmp.Diff(created, *got); diff != "" {
		t.Fatalf("user mismatch (-want +got):\n%s", diff)
	}
}

func testFindByIDMissing(t *testing.T, s *store.Store) {
	ctx := context.Background()
	u, err := s.Users.FindByID(ctx, "000000000000000000000000")
	require.NoError(t, err)
	require.Nil(t, u)

	p, err := s.Posts.FindByID(ctx, "nope")
	require.NoError(t, err)
	require.Nil(t, p)
}

func testFindFilter(t *testing.T, s *store.Store) {
	ctx := context.Background()
	a, err := s.Posts.Insert(ctx, model.Post{Title: "a", Status: model.StatusNotStarted, CreatorID: "u1"})
	require.NoError(t, err)
	b, err := s.Posts.Insert(ctx, model.Post{Title: "b", Status: model.StatusCompleted, CreatorID: "u1"})
	require.NoError(t, err)
	c, err := s.Posts.Insert(ctx, model.Post{Title: "c", Status: model.StatusCompleted, CreatorID: "u2"})
	require.NoError(t, err)

	byTitle := cmpopts.SortSlices(func(x, y model.Post) bool { return x.Title < y.Title })

	all, err := s.Posts.Find(ctx, nil)
	require.NoError(t, err)
	if diff := cmp.Diff([]model.Post{a, b, c}, all, byTitle); diff != "" {
		t.Fatalf("find all mismatch (-want +got):\n%s", diff)
	}

	mine, err := s.Posts.Find(ctx, store.Filter{"creatorId": "u1"})
	require.NoError(t, err)
	if diff := cmp.Diff([]model.Post{a, b}, mine, byTitle); diff != "" {
		t.Fatalf("find by creator mismatch (-want +got):\n%s", diff)
	}

	done, err := s.Posts.Find(ctx, store.Filter{"status": model.StatusCompleted, "creatorId": "u2"})
	require.NoError(t, err)
	if diff := cmp.Diff([]model.Post{c}, done); diff != "" {
		t.Fatalf("find by status mismatch (-want +got):\n%s", diff)
	}

	none, err := s.Posts.Find(ctx, store.Filter{"creatorId": "nobody"})
	require.NoError(t, err)
	require.Empty(t, none)
}

func testUpdatePartial(t *testing.T, s *store.Store) {
	ctx := context.Background()
	p, err := s.Posts.Insert(ctx, model.Post{Title: "t", Description: "d", Status: model.StatusNotStarted, CreatorID: "u"})
	require.NoError(t, err)

	got, err := s.Posts.FindByIDAndUpdate(ctx, p.ID, store.Patch{"status": string(model.StatusInProgress), "id": "hijack"})
	require.NoError(t, err)
	require.NotNil(t, got)
	want := p
	want.Status = model.StatusInProgress
	if diff := cmp.Diff(want, *got); diff != "" {
		t.Fatalf("updated post mismatch (-want +got):\n%s", diff)
	}

	stored, err := s.Posts.FindByID(ctx, p.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(want, *stored); diff != "" {
		t.Fatalf("stored post mismatch (-want +got):\n%s", diff)
	}

	missing, err := s.Posts.FindByIDAndUpdate(ctx, "missing", store.Patch{"title": "x"})
	require.NoError(t, err)
	require.Nil(t, missing)
}

func testRemove(t *testing.T, s *store.Store) {
	ctx := context.Background()
	u, err := s.Users.Insert(ctx, model.User{Name: "Grace", Email: "g@example.com", Phone: "1"})
	require.NoError(t, err)

	removed, err := s.Users.FindByIDAndRemove(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, removed)
	if diff := cmp.Diff(u, *removed); diff != "" {
		t.Fatalf("removed user mismatch (-want +got):\n%s", diff)
	}

	again, err := s.Users.FindByIDAndRemove(ctx, u.ID)
	require.NoError(t, err)
	require.Nil(t, again)

	rest, err := s.Users.Find(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, rest)
}
