// model/content.go
package model

import (
	"encoding/json"
	"time"
)

// Audit carries the who/when stamps shared by every hierarchy node.
type Audit struct {
	CreatedBy   string     `json:"created_by"`
	UpdatedBy   string     `json:"updated_by"`
	PublishedBy string     `json:"published_by"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// LearningPath is the root of the content hierarchy.
type LearningPath struct {
	ID          string `json:"id" gorm:"primaryKey"`
	Title       string `json:"title" gorm:"not null"`
	Slug        string `json:"slug" gorm:"not null;index"`
	Description string `json:"description" gorm:"type:text"`
	Status      string `json:"status" gorm:"default:draft;index"`
	SortOrder   int    `json:"sort_order"`
	Audit       `gorm:"embedded"`
}

type Course struct {
	ID          string `json:"id" gorm:"primaryKey"`
	PathID      string `json:"path_id" gorm:"not null;index"`
	Title       string `json:"title" gorm:"not null"`
	Slug        string `json:"slug" gorm:"not null;index"`
	Description string `json:"description" gorm:"type:text"`
	Status      string `json:"status" gorm:"default:draft;index"`
	SortOrder   int    `json:"sort_order"`
	Audit       `gorm:"embedded"`
}

type Module struct {
	ID          string `json:"id" gorm:"primaryKey"`
	CourseID    string `json:"course_id" gorm:"not null;index"`
	Title       string `json:"title" gorm:"not null"`
	Slug        string `json:"slug" gorm:"not null;index"`
	Description string `json:"description" gorm:"type:text"`
	Status      string `json:"status" gorm:"default:draft;index"`
	SortOrder   int    `json:"sort_order"`
	Audit       `gorm:"embedded"`
}

type Lesson struct {
	ID        string `json:"id" gorm:"primaryKey"`
	ModuleID  string `json:"module_id" gorm:"not null;index"`
	Title     string `json:"title" gorm:"not null"`
	Slug      string `json:"slug" gorm:"not null;index"`
	Content   string `json:"content" gorm:"type:text"`
	Status    string `json:"status" gorm:"default:draft;index"`
	SortOrder int    `json:"sort_order"`
	Audit     `gorm:"embedded"`
}

// Challenge is the leaf kind; its quiz definition lives in Questions.
type Challenge struct {
	ID          string          `json:"id" gorm:"primaryKey"`
	LessonID    string          `json:"lesson_id" gorm:"not null;index"`
	Title       string          `json:"title" gorm:"not null"`
	Slug        string          `json:"slug" gorm:"not null;index"`
	Status      string          `json:"status" gorm:"default:draft;index"`
	SortOrder   int             `json:"sort_order"`
	Questions   json.RawMessage `json:"questions" gorm:"type:jsonb"`
	XPReward    int             `json:"xp_reward" gorm:"default:50"`
	MaxAttempts int             `json:"max_attempts" gorm:"default:0"` // 0 = unlimited
	Audit       `gorm:"embedded"`
}

// Question is one entry of Challenge.Questions. Answer holds the stored
// solution: a string for single_choice/open_text, a string list for
// multiple_choice, an item->zone map for drag_drop.
type Question struct {
	Index     int         `json:"index"`
	Type      string      `json:"type"`
	Prompt    string      `json:"prompt"`
	Options   []string    `json:"options,omitempty"`
	Answer    interface{} `json:"answer"`
	Reference string      `json:"reference,omitempty"` // open_text reference answer
	Rubric    string      `json:"rubric,omitempty"`    // open_text grading rubric
}

// LevelDefinition is the XP ladder, seeded at migration, ascending XPRequired.
type LevelDefinition struct {
	Level      int    `json:"level" gorm:"primaryKey"`
	XPRequired int    `json:"xp_required" gorm:"not null"`
	Title      string `json:"title"`
}
