package identity

import (
	"testing"

	"github.com/stretchr/testify/require"

	identitymodels "github.com/scoreline/powerrank/pkg/db/models/identity"
)

func edge(from, to string) identitymodels.MergeEdge {
	return identitymodels.MergeEdge{DeprecatedTeamID: from, CanonicalTeamID: to}
}

func TestResolveFollowsRedirectOnce(t *testing.T) {
	r, err := NewResolver([]identitymodels.MergeEdge{
		edge("old-a", "new-a"),
		edge("old-b", "new-b"),
	})
	require.NoError(t, err)

	require.Equal(t, "new-a", r.Resolve("old-a"))
	require.Equal(t, "new-b", r.Resolve("old-b"))
	require.Equal(t, 2, r.Len())
}

func TestResolveIsIdempotent(t *testing.T) {
	r, err := NewResolver([]identitymodels.MergeEdge{edge("old", "new")})
	require.NoError(t, err)

	once := r.Resolve("old")
	require.Equal(t, once, r.Resolve(once))

	// Canonical and unknown ids pass through untouched.
	require.Equal(t, "new", r.Resolve("new"))
	require.Equal(t, "stranger", r.Resolve("stranger"))
}

func TestNewResolverRejectsChains(t *testing.T) {
	// a -> b -> c would require two hops to resolve "a".
	_, err := NewResolver([]identitymodels.MergeEdge{
		edge("a", "b"),
		edge("b", "c"),
	})
	require.ErrorIs(t, err, ErrMergeCycle)
}

func TestNewResolverRejectsSelfEdges(t *testing.T) {
	_, err := NewResolver([]identitymodels.MergeEdge{edge("same", "same")})
	require.ErrorIs(t, err, ErrSelfMerge)
}

func TestCascadeIntoOneSurvivor(t *testing.T) {
	// Merging b into c after a was merged into b must leave both
	// predecessors pointing straight at c, never chained through b.
	r, err := NewResolver([]identitymodels.MergeEdge{
		edge("a", "c"),
		edge("b", "c"),
	})
	require.NoError(t, err)

	require.Equal(t, "c", r.Resolve("a"))
	require.Equal(t, "c", r.Resolve("b"))
	require.ElementsMatch(t, []string{"a", "b"}, r.Predecessors("c"))
}

func TestIsDeprecated(t *testing.T) {
	r, err := NewResolver([]identitymodels.MergeEdge{edge("old", "new")})
	require.NoError(t, err)

	require.True(t, r.IsDeprecated("old"))
	require.False(t, r.IsDeprecated("new"))
	require.False(t, r.IsDeprecated("unknown"))
}
