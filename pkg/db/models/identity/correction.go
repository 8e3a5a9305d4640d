package identity

import "time"

// Correction request lifecycle states.
const (
	CorrectionPending  = "pending"
	CorrectionApproved = "approved"
	CorrectionRejected = "rejected"
)

// CorrectionRequest is a proposed change to one game's core fields. The
// ledger row itself is never edited: approval appends a new game row with a
// bumped revision, and this record is the audit trail.
type CorrectionRequest struct {
	ID         int64      `json:"id"`
	GameID     string     `json:"game_id"`
	HomeScore  *int16     `json:"home_score,omitempty"`
	AwayScore  *int16     `json:"away_score,omitempty"`
	HomeTeamID *string    `json:"home_team_id,omitempty"`
	AwayTeamID *string    `json:"away_team_id,omitempty"`
	PlayedAt   *time.Time `json:"played_at,omitempty"`
	Reason     string     `json:"reason"`
	Status     string     `json:"status"`
	CreatedBy  string     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	ReviewedBy *string    `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}
