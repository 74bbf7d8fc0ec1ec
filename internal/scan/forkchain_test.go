package scan

import (
	"context"
	"errors"
	"testing"

	gh "github.com/google/go-github/v80/github"
	"github.com/stretchr/testify/assert"
)

// fakeGetter serves repositories from a fixed map keyed "owner/name".
type fakeGetter struct {
	repos map[string]*gh.Repository
	err   error
	calls int
}

func (g *fakeGetter) GetRepository(_ context.Context, owner, repo string) (*gh.Repository, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	r, ok := g.repos[owner+"/"+repo]
	if !ok {
		return nil, errors.New("not found")
	}
	return r, nil
}

func forkOf(owner, name, parentFull string) *gh.Repository {
	r := namedRepo(owner, name)
	r.Fork = gh.Ptr(true)
	if parentFull != "" {
		r.Parent = &gh.Repository{FullName: gh.Ptr(parentFull)}
	}
	return r
}

func TestResolveAncestor(t *testing.T) {
	t.Run("non-fork resolves to itself", func(t *testing.T) {
		getter := &fakeGetter{}
		repo := namedRepo("fred", "iobroker.hue")

		assert.Equal(t, "fred/iobroker.hue", ResolveAncestor(context.Background(), getter, repo))
		assert.Zero(t, getter.calls)
	})

	t.Run("single hop to a non-fork parent", func(t *testing.T) {
		getter := &fakeGetter{}
		repo := forkOf("fred", "iobroker.hue", "upstream/iobroker.hue")

		assert.Equal(t, "upstream/iobroker.hue", ResolveAncestor(context.Background(), getter, repo))
	})

	t.Run("fetches the parent link when the search record lacks it", func(t *testing.T) {
		getter := &fakeGetter{repos: map[string]*gh.Repository{
			"fred/iobroker.hue": forkOf("fred", "iobroker.hue", "upstream/iobroker.hue"),
		}}
		repo := forkOf("fred", "iobroker.hue", "") // search results carry no parent

		assert.Equal(t, "upstream/iobroker.hue", ResolveAncestor(context.Background(), getter, repo))
		assert.Equal(t, 1, getter.calls)
	})

	t.Run("walks a multi-hop chain", func(t *testing.T) {
		grandparent := namedRepo("origin", "iobroker.hue")
		parent := forkOf("mid", "iobroker.hue", "origin/iobroker.hue")
		parent.Parent = grandparent
		parent.Parent.Fork = gh.Ptr(false)

		getter := &fakeGetter{repos: map[string]*gh.Repository{
			"mid/iobroker.hue": parent,
		}}

		start := forkOf("fred", "iobroker.hue", "")
		start.Parent = &gh.Repository{
			FullName: gh.Ptr("mid/iobroker.hue"),
			Owner:    &gh.User{Login: gh.Ptr("mid")},
			Name:     gh.Ptr("iobroker.hue"),
			Fork:     gh.Ptr(true),
		}

		assert.Equal(t, "origin/iobroker.hue",
			ResolveAncestor(context.Background(), getter, start))
	})

	t.Run("lookup failure returns the deepest known ancestor", func(t *testing.T) {
		getter := &fakeGetter{err: errors.New("boom")}
		repo := forkOf("fred", "iobroker.hue", "")

		assert.Equal(t, "fred/iobroker.hue", ResolveAncestor(context.Background(), getter, repo))
	})

	t.Run("self-referential parent terminates", func(t *testing.T) {
		repo := forkOf("fred", "iobroker.hue", "fred/iobroker.hue")
		getter := &fakeGetter{}

		assert.Equal(t, "fred/iobroker.hue", ResolveAncestor(context.Background(), getter, repo))
	})

	t.Run("cyclic parent data terminates", func(t *testing.T) {
		a := forkOf("a", "iobroker.x", "")
		a.Parent = &gh.Repository{
			FullName: gh.Ptr("b/iobroker.x"),
			Owner:    &gh.User{Login: gh.Ptr("b")},
			Name:     gh.Ptr("iobroker.x"),
			Fork:     gh.Ptr(true),
		}
		getter := &fakeGetter{repos: map[string]*gh.Repository{
			"b/iobroker.x": forkOf("b", "iobroker.x", "a/iobroker.x"),
		}}

		// Bounded: returns without hanging, whichever node it stops on.
		got := ResolveAncestor(context.Background(), getter, a)
		assert.Contains(t, []string{"a/iobroker.x", "b/iobroker.x"}, got)
	})

	t.Run("missing parent metadata on a fork returns the fork", func(t *testing.T) {
		getter := &fakeGetter{repos: map[string]*gh.Repository{
			"fred/iobroker.hue": forkOf("fred", "iobroker.hue", ""),
		}}
		repo := forkOf("fred", "iobroker.hue", "")

		assert.Equal(t, "fred/iobroker.hue", ResolveAncestor(context.Background(), getter, repo))
	})
}
