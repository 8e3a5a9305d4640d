package identity

import "time"

// Team is a persistent team identity. Deprecated teams are never deleted;
// they remain as redirect sources in the merge graph.
type Team struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	AgeGroup     string     `json:"age_group"`
	Gender       string     `json:"gender"`
	State        string     `json:"state"` // empty when unknown
	IsCanonical  bool       `json:"is_canonical"`
	CreatedAt    time.Time  `json:"created_at"`
	DeprecatedAt *time.Time `json:"deprecated_at,omitempty"`
}

// Alias maps a provider-scoped external key onto a team id. Merges rewrite
// aliases of the deprecated team to point at the surviving canonical id.
type Alias struct {
	Provider    string    `json:"provider"`
	ExternalKey string    `json:"external_key"`
	TeamID      string    `json:"team_id"`
	CreatedAt   time.Time `json:"created_at"`
}
