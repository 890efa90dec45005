package graph

import (
	"context"

	"github.com/hanpama/docgraph/internal/model"
	"github.com/hanpama/docgraph/internal/store"
	"github.com/pkg/errors"
)

// cascade is the removal plan of deleteUser: each post created by the
// user in turn, then the user. The first failing step aborts the rest, so
// the user outlives any post that could not be removed. Removed posts are
// not restored.
type cascade struct {
	userID  string
	postIDs []string
}

func planCascade(ctx context.Context, st *store.Store, userID string) (*cascade, error) {
	posts, err := st.Posts.Find(ctx, store.Filter{"creatorId": userID})
	if err != nil {
		return nil, errors.Wrapf(err, "collecting posts of user %s", userID)
	}
	c := &cascade{userID: userID, postIDs: make([]string, len(posts))}
	for i, p := range posts {
		c.postIDs[i] = p.ID
	}
	return c, nil
}

// run executes the plan and returns the removed user, or nil when no user
// had the id. Posts referencing a missing user are still removed.
func (c *cascade) run(ctx context.Context, st *store.Store) (*model.User, error) {
	for i, pid := range c.postIDs {
		err := ctx.Err()
		if err == nil {
			_, err = st.Posts.FindByIDAndRemove(ctx, pid)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "deleteUser %s aborted after removing %d of %d posts", c.userID, i, len(c.postIDs))
		}
	}
	u, err := st.Users.FindByIDAndRemove(ctx, c.userID)
	if err != nil {
		return nil, errors.Wrapf(err, "removing user %s after its %d posts", c.userID, len(c.postIDs))
	}
	return u, nil
}
