// Package queue defines message payloads exchanged over the message broker.
package queue

// MatchedAward is one high-scoring catalog entry inside a
// RecommendationEvent, trimmed to what downstream alerting needs.
type MatchedAward struct {
	ScholarshipID string `json:"scholarship_id"`
	Name          string `json:"name"`
	Score         int    `json:"score"`
	Deadline      string `json:"deadline"`
}

// RecommendationEvent is published whenever the matching engine
// produces a non-empty result for a student.  It carries enough
// information for downstream consumers to raise deadline alerts or
// feed analytics without querying the primary database.
type RecommendationEvent struct {
	UserID      uint64         `json:"user_id"`
	SessionID   string         `json:"session_id"`
	MatchCount  int            `json:"match_count"`
	TopMatches  []MatchedAward `json:"top_matches"`
	GeneratedAt string         `json:"generated_at"`
}
