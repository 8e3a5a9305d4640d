package identity

import "errors"

// Merge-graph violations. All are rejected synchronously with no partial
// write; callers can match on them to shape API responses.
var (
	// ErrTeamNotFound means one side of a merge does not exist.
	ErrTeamNotFound = errors.New("team not found")

	// ErrSelfMerge means both sides of a merge are the same team.
	ErrSelfMerge = errors.New("cannot merge a team into itself")

	// ErrMergeCycle means the merge would make a canonical team point back
	// at one of its own redirect sources.
	ErrMergeCycle = errors.New("merge would create a cycle")

	// ErrAlreadyDeprecated means the team offered as the deprecated side has
	// already been merged away.
	ErrAlreadyDeprecated = errors.New("team is already deprecated")
)
