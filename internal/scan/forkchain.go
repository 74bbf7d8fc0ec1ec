package scan

import (
	"context"

	gh "github.com/google/go-github/v80/github"

	"github.com/iobroker-community/adapter-radar/internal/logger"
)

// maxForkDepth bounds the parent-chain walk. Fork chains on the
// platform are shallow in practice; anything deeper is treated as the
// deepest known ancestor.
const maxForkDepth = 10

// RepositoryGetter fetches a single repository with its parent link.
type RepositoryGetter interface {
	GetRepository(ctx context.Context, owner, repo string) (*gh.Repository, error)
}

// ResolveAncestor walks a fork's parent chain to the ultimate non-fork
// ancestor and returns its full name. Non-forks resolve to themselves.
//
// The walk is bounded and keeps a visited set, so self-referential or
// cyclic parent data returns the deepest ancestor reached instead of
// looping. Lookup failures along the chain are soft: the walk stops and
// returns what it has.
func ResolveAncestor(ctx context.Context, getter RepositoryGetter, repo *gh.Repository) string {
	current := repo
	visited := map[string]bool{current.GetFullName(): true}

	for depth := 0; depth < maxForkDepth && current.GetFork(); depth++ {
		parent := current.GetParent()
		if parent == nil {
			// Search results carry no parent link; fetch the full record.
			fetched, err := getter.GetRepository(ctx, current.GetOwner().GetLogin(), current.GetName())
			if err != nil {
				logger.Warn("fork chain lookup failed for %s: %v", current.GetFullName(), err)
				return current.GetFullName()
			}
			parent = fetched.GetParent()
			if parent == nil {
				return current.GetFullName()
			}
		}

		if visited[parent.GetFullName()] {
			logger.Warn("fork chain cycle at %s", parent.GetFullName())
			return current.GetFullName()
		}
		visited[parent.GetFullName()] = true
		current = parent
	}

	return current.GetFullName()
}
