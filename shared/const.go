package shared

const (
	UserID   = "user_id"
	UserRole = "user_role"

	RoleMember = "member"
	RoleEditor = "editor"
	RoleAdmin  = "admin"

	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"

	KindPath      = "path"
	KindCourse    = "course"
	KindModule    = "module"
	KindLesson    = "lesson"
	KindChallenge = "challenge"

	ProgressNotStarted = "not_started"
	ProgressInProgress = "in_progress"
	ProgressCompleted  = "completed"
	ProgressSkipped    = "skipped"

	CertificateCompletion  = "completion"
	CertificateAchievement = "achievement"

	CertificateIssued  = "issued"
	CertificateRevoked = "revoked"

	QuestionTypeSingleChoice   = "single_choice"
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeOpenText       = "open_text"
	QuestionTypeDragDrop       = "drag_drop"
)
