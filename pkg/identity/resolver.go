package identity

import (
	"fmt"

	identitymodels "github.com/scoreline/powerrank/pkg/db/models/identity"
)

// Resolver canonicalizes team references through the merge-redirect graph.
// Built once per ranking run from the full edge set and shared read-only
// across cohort workers; resolution is a single map lookup because every
// redirect chain has length at most one.
type Resolver struct {
	edges map[string]string
}

// NewResolver builds a resolver from merge edges, rejecting edge sets that
// violate the no-chain invariant (an edge whose target is itself a source).
func NewResolver(edges []identitymodels.MergeEdge) (*Resolver, error) {
	m := make(map[string]string, len(edges))
	for _, e := range edges {
		if e.DeprecatedTeamID == e.CanonicalTeamID {
			return nil, fmt.Errorf("edge %s: %w", e.DeprecatedTeamID, ErrSelfMerge)
		}
		m[e.DeprecatedTeamID] = e.CanonicalTeamID
	}
	for from, to := range m {
		if _, chained := m[to]; chained {
			return nil, fmt.Errorf("edge %s -> %s targets a deprecated team: %w", from, to, ErrMergeCycle)
		}
	}
	return &Resolver{edges: m}, nil
}

// Resolve returns the canonical id for any team reference. Idempotent:
// resolving an already-canonical id returns it unchanged.
func (r *Resolver) Resolve(teamID string) string {
	if canonical, ok := r.edges[teamID]; ok {
		return canonical
	}
	return teamID
}

// IsDeprecated reports whether teamID is a redirect source.
func (r *Resolver) IsDeprecated(teamID string) bool {
	_, ok := r.edges[teamID]
	return ok
}

// Predecessors returns every deprecated id that redirects to canonicalID.
func (r *Resolver) Predecessors(canonicalID string) []string {
	var out []string
	for from, to := range r.edges {
		if to == canonicalID {
			out = append(out, from)
		}
	}
	return out
}

// Len returns the number of redirect edges.
func (r *Resolver) Len() int { return len(r.edges) }
