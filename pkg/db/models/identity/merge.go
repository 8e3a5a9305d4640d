package identity

import "time"

// MergeEdge is a directed redirect deprecated_team -> canonical_team.
// Invariants enforced on insert: no self-edges, and the target is always
// canonical (a later merge of the target cascades existing edges so no chain
// ever exceeds length one).
type MergeEdge struct {
	DeprecatedTeamID string    `json:"deprecated_team_id"`
	CanonicalTeamID  string    `json:"canonical_team_id"`
	Reason           string    `json:"reason"`
	Confidence       float64   `json:"confidence"`
	MergedBy         string    `json:"merged_by"`
	MergedAt         time.Time `json:"merged_at"`
}
