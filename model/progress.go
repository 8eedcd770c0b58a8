// model/progress.go
package model

import "time"

// Progress is one (user, content item) pair, upserted lazily on first
// interaction and never deleted. XPEarned never decreases.
type Progress struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	UserID        string    `json:"user_id" gorm:"not null;index:idx_progress_user_content,unique"`
	ContentID     string    `json:"content_id" gorm:"not null;index:idx_progress_user_content,unique"`
	ContentKind   string    `json:"content_kind" gorm:"not null;index:idx_progress_user_content,unique"`
	Status        string    `json:"status" gorm:"default:not_started"`
	CompletionPct int       `json:"completion_pct" gorm:"default:0"`
	XPEarned      int       `json:"xp_earned" gorm:"default:0"`
	Attempts      int       `json:"attempts" gorm:"default:0"`
	LastScore     *int      `json:"last_score"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UserXP is the singleton-per-user aggregate over Progress.XPEarned.
type UserXP struct {
	ID               string     `json:"id" gorm:"primaryKey"`
	UserID           string     `json:"user_id" gorm:"not null;uniqueIndex"`
	TotalXP          int        `json:"total_xp" gorm:"default:0"`
	Level            int        `json:"level" gorm:"default:1"`
	CurrentStreak    int        `json:"current_streak" gorm:"default:0"`
	LongestStreak    int        `json:"longest_streak" gorm:"default:0"`
	LastActivityDate *time.Time `json:"last_activity_date"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
