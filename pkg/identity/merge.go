package identity

// MergeRequest asks for deprecated team to be folded into canonical team.
// The only externally triggered mutation on team identity.
type MergeRequest struct {
	CanonicalTeamID  string  `json:"canonical_team_id"`
	DeprecatedTeamID string  `json:"deprecated_team_id"`
	Reason           string  `json:"reason"`
	Confidence       float64 `json:"confidence"`
	MergedBy         string  `json:"merged_by"`
}

// MergeResult reports what a successful merge touched.
type MergeResult struct {
	Merged         bool   `json:"merged"`
	GamesAffected  uint64 `json:"games_affected"`
	AliasesUpdated int64  `json:"aliases_updated"`
	CascadedTeams  int64  `json:"cascaded_teams"`
}
