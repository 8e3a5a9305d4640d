package controller

import (
	"testing"

	"github.com/stretchr/testify/require"

	identitymodels "github.com/scoreline/powerrank/pkg/db/models/identity"
)

func TestMergedLineageIncludesPredecessors(t *testing.T) {
	edges := []identitymodels.MergeEdge{
		{DeprecatedTeamID: "old-1", CanonicalTeamID: "mid"},
		{DeprecatedTeamID: "old-2", CanonicalTeamID: "mid"},
		{DeprecatedTeamID: "other", CanonicalTeamID: "unrelated"},
	}

	// Merging "mid" away re-attributes its own games and those of every id
	// that already redirected to it.
	require.ElementsMatch(t, []string{"mid", "old-1", "old-2"}, mergedLineage(edges, "mid"))
}

func TestMergedLineageWithoutPredecessors(t *testing.T) {
	require.Equal(t, []string{"solo"}, mergedLineage(nil, "solo"))
}
