package graph

import (
	"context"

	"github.com/hanpama/docgraph/internal/model"
	"github.com/hanpama/docgraph/internal/store"
	"github.com/pkg/errors"
)

func stringArg(args map[string]any, name string) (string, bool) {
	s, ok := args[name].(string)
	return s, ok
}

func queryUser(ctx context.Context, st *store.Store, _ any, args map[string]any) (any, error) {
	id, _ := stringArg(args, "id")
	if id == "" {
		return nil, nil
	}
	u, err := st.Users.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "loading user %s", id)
	}
	return u, nil
}

func queryUsers(ctx context.Context, st *store.Store, _ any, _ map[string]any) (any, error) {
	users, err := st.Users.Find(ctx, nil)
	return users, errors.Wrap(err, "listing users")
}

func queryPost(ctx context.Context, st *store.Store, _ any, args map[string]any) (any, error) {
	id, _ := stringArg(args, "id")
	if id == "" {
		return nil, nil
	}
	p, err := st.Posts.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "loading post %s", id)
	}
	return p, nil
}

func queryPosts(ctx context.Context, st *store.Store, _ any, _ map[string]any) (any, error) {
	posts, err := st.Posts.Find(ctx, nil)
	return posts, errors.Wrap(err, "listing posts")
}

// postCreator looks the creator up on every traversal.
func postCreator(ctx context.Context, st *store.Store, source any, _ map[string]any) (any, error) {
	p, ok := source.(model.Entity)
	if !ok {
		return nil, errors.Errorf("Post.creator: unexpected source %T", source)
	}
	v, _ := p.Get("creatorId")
	id, _ := v.(string)
	if id == "" {
		return nil, nil
	}
	u, err := st.Users.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "loading creator %s", id)
	}
	return u, nil
}

func createUser(ctx context.Context, st *store.Store, _ any, args map[string]any) (any, error) {
	in := model.User{}
	in.Name, _ = stringArg(args, "name")
	in.Email, _ = stringArg(args, "email")
	in.Phone, _ = stringArg(args, "phone")
	u, err := st.Users.Insert(ctx, in)
	if err != nil {
		return nil, errors.Wrap(err, "creating user")
	}
	return u, nil
}

func createPost(ctx context.Context, st *store.Store, _ any, args map[string]any) (any, error) {
	in := model.Post{Status: model.StatusNotStarted}
	in.CreatorID, _ = stringArg(args, "creatorId")
	in.Title, _ = stringArg(args, "title")
	in.Description, _ = stringArg(args, "description")
	if s, ok := stringArg(args, "status"); ok {
		in.Status = model.Status(s)
	}
	p, err := st.Posts.Insert(ctx, in)
	if err != nil {
		return nil, errors.Wrap(err, "creating post")
	}
	return p, nil
}

// updatePost patches only the arguments present in the request.
func updatePost(ctx context.Context, st *store.Store, _ any, args map[string]any) (any, error) {
	id, _ := stringArg(args, "id")
	patch := store.Patch{}
	for _, name := range []string{"title", "description", "status"} {
		if v, ok := stringArg(args, name); ok {
			patch[name] = v
		}
	}
	p, err := st.Posts.FindByIDAndUpdate(ctx, id, patch)
	if err != nil {
		return nil, errors.Wrapf(err, "updating post %s", id)
	}
	return p, nil
}

func deletePost(ctx context.Context, st *store.Store, _ any, args map[string]any) (any, error) {
	id, _ := stringArg(args, "id")
	p, err := st.Posts.FindByIDAndRemove(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "deleting post %s", id)
	}
	return p, nil
}

func deleteUser(ctx context.Context, st *store.Store, _ any, args map[string]any) (any, error) {
	id, _ := stringArg(args, "id")
	c, err := planCascade(ctx, st, id)
	if err != nil {
		return nil, err
	}
	u, err := c.run(ctx, st)
	if err != nil {
		return nil, err
	}
	return u, nil
}
