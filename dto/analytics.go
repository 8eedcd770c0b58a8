package dto

import "time"

type XPBucket struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

type TopPerformer struct {
	UserID  string `json:"user_id"`
	TotalXP int    `json:"total_xp"`
	Level   int    `json:"level"`
}

type PathEngagement struct {
	PathID    string `json:"path_id"`
	Title     string `json:"title"`
	Enrolled  int64  `json:"enrolled"`
	Completed int64  `json:"completed"`
}

type RecentCompletion struct {
	UserID      string    `json:"user_id"`
	ContentID   string    `json:"content_id"`
	ContentKind string    `json:"content_kind"`
	CompletedAt time.Time `json:"completed_at"`
}

// PlatformSummaryResponse is the fan-in result; any field may be its zero
// value when the sub-query behind it failed.
type PlatformSummaryResponse struct {
	TotalUsers        int64              `json:"total_users"`
	ContentCounts     map[string]int64   `json:"content_counts"`
	XPDistribution    []XPBucket         `json:"xp_distribution"`
	TopPerformers     []TopPerformer     `json:"top_performers"`
	PathEngagement    []PathEngagement   `json:"path_engagement"`
	RecentCompletions []RecentCompletion `json:"recent_completions"`
	GeneratedAt       time.Time          `json:"generated_at"`
}

type UserSummaryResponse struct {
	UserID           string `json:"user_id"`
	TotalXP          int    `json:"total_xp"`
	Level            int    `json:"level"`
	Completed        int64  `json:"completed"`
	InProgress       int64  `json:"in_progress"`
	CertificateTotal int64  `json:"certificate_total"`
}

type LeaderboardEntry struct {
	Rank    int    `json:"rank"`
	UserID  string `json:"user_id"`
	TotalXP int    `json:"total_xp"`
	Level   int    `json:"level"`
}

type LeaderboardResponse struct {
	Entries []LeaderboardEntry `json:"entries"`
}
