package models

// Fallback display strings used when a directory record is missing
const (
	UnknownAthlete = "Unknown participant"
	UnknownDog     = "Unknown dog"
	NoTeam         = "No team"
)

// RatingEntry is one row of the cross-competition discipline rating.
// Score is the sum of the competitor's best two qualifying totals;
// Competitions counts every qualifying total collected, not just the
// two that score.
type RatingEntry struct {
	Athlete      string  `json:"athlete"`
	Dog          string  `json:"dog"`
	Team         string  `json:"team"`
	Score        float64 `json:"score"`
	Competitions int     `json:"competitions"`
	Place        int     `json:"place"`
}

// LiveEvent is a message pushed to review-page subscribers
type LiveEvent struct {
	Type string `json:"type"` // "participant" | "placements"
	Data any    `json:"data,omitempty"`
}
