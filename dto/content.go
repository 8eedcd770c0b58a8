package dto

import (
	"encoding/json"
	"time"
)

type CreateContentRequest struct {
	ParentID    string `json:"parent_id" validate:"omitempty,uuid"`
	Title       string `json:"title" validate:"required,min=1,max=200"`
	Slug        string `json:"slug" validate:"required,min=1,max=120"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

func (r CreateContentRequest) Validate() error {
	return validate.Struct(r)
}

// UpdateContentRequest carries partial updates; nil means "leave unchanged".
type UpdateContentRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Slug        *string `json:"slug" validate:"omitempty,min=1,max=120"`
	Description *string `json:"description"`
	Status      *string `json:"status" validate:"omitempty,oneof=draft published archived"`
	SortOrder   *int    `json:"sort_order"`
}

func (r UpdateContentRequest) Validate() error {
	return validate.Struct(r)
}

type CreateChallengeRequest struct {
	LessonID    string            `json:"lesson_id" validate:"required,uuid"`
	Title       string            `json:"title" validate:"required,min=1,max=200"`
	Slug        string            `json:"slug" validate:"required,min=1,max=120"`
	SortOrder   int               `json:"sort_order"`
	Questions   []QuestionRequest `json:"questions" validate:"required,min=1,dive"`
	XPReward    int               `json:"xp_reward"`
	MaxAttempts int               `json:"max_attempts"`
}

func (r CreateChallengeRequest) Validate() error {
	return validate.Struct(r)
}

type QuestionRequest struct {
	Type      string      `json:"type" validate:"required,oneof=single_choice multiple_choice open_text drag_drop"`
	Prompt    string      `json:"prompt" validate:"required"`
	Options   []string    `json:"options"`
	Answer    interface{} `json:"answer" validate:"required"`
	Reference string      `json:"reference"`
	Rubric    string      `json:"rubric"`
}

type ContentResponse struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	ParentID    string     `json:"parent_id,omitempty"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	SortOrder   int        `json:"sort_order"`
	PublishedBy string     `json:"published_by,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type ChallengeResponse struct {
	ContentResponse
	Questions   []QuestionResponse `json:"questions"`
	XPReward    int                `json:"xp_reward"`
	MaxAttempts int                `json:"max_attempts"`
}

// QuestionResponse deliberately omits the stored answer.
type QuestionResponse struct {
	Index   int      `json:"index"`
	Type    string   `json:"type"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options,omitempty"`
}

type ContentListResponse struct {
	Items []ContentResponse `json:"items"`
	Total int               `json:"total"`
}

type PathTreeResponse struct {
	Path    ContentResponse `json:"path"`
	Courses []CourseSubtree `json:"courses"`
}

type CourseSubtree struct {
	Course  ContentResponse `json:"course"`
	Modules []ModuleSubtree `json:"modules"`
}

type ModuleSubtree struct {
	Module  ContentResponse   `json:"module"`
	Lessons []ContentResponse `json:"lessons"`
}

type CacheStatsResponse struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

// RawQuestions is an internal helper shape for admin challenge export.
type RawQuestions struct {
	ChallengeID string          `json:"challenge_id"`
	Questions   json.RawMessage `json:"questions"`
}
