package dto

import "time"

type SubmitChallengeRequest struct {
	ChallengeID string              `json:"challenge_id" validate:"required,uuid"`
	Answers     map[int]interface{} `json:"answers" validate:"required"`
}

func (r SubmitChallengeRequest) Validate() error {
	return validate.Struct(r)
}

type SubmitChallengeResponse struct {
	Score             int    `json:"score"`
	CorrectCount      int    `json:"correct_count"`
	TotalQuestions    int    `json:"total_questions"`
	XPAwarded         int    `json:"xp_awarded"`
	Passed            bool   `json:"passed"`
	ProgressStatus    string `json:"progress_status"`
	Attempts          int    `json:"attempts"`
	AttemptsRemaining *int   `json:"attempts_remaining,omitempty"`
	DegradedGrading   bool   `json:"degraded_grading,omitempty"`
}

type ProgressResponse struct {
	ID            string    `json:"id"`
	ContentID     string    `json:"content_id"`
	ContentKind   string    `json:"content_kind"`
	Status        string    `json:"status"`
	CompletionPct int       `json:"completion_pct"`
	XPEarned      int       `json:"xp_earned"`
	Attempts      int       `json:"attempts"`
	LastScore     *int      `json:"last_score,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type UserXPResponse struct {
	UserID        string `json:"user_id"`
	TotalXP       int    `json:"total_xp"`
	Level         int    `json:"level"`
	LevelTitle    string `json:"level_title,omitempty"`
	XPToNextLevel *int   `json:"xp_to_next_level,omitempty"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
}

type PathProgressResponse struct {
	PathID           string `json:"path_id"`
	PathTitle        string `json:"path_title"`
	TotalLessons     int    `json:"total_lessons"`
	CompletedLessons int    `json:"completed_lessons"`
	CompletionPct    int    `json:"completion_pct"`
}

type MarkProgressRequest struct {
	ContentID     string `json:"content_id" validate:"required,uuid"`
	ContentKind   string `json:"content_kind" validate:"required,oneof=lesson module course path"`
	Status        string `json:"status" validate:"required,oneof=in_progress completed"`
	CompletionPct int    `json:"completion_pct" validate:"omitempty,min=0,max=100"`
}

func (r MarkProgressRequest) Validate() error {
	return validate.Struct(r)
}
