// model/certificate.go
package model

import "time"

// Certificate is immutable once issued; only Status may move, one way,
// from issued to revoked. Exactly one of PathID/CourseID is set.
type Certificate struct {
	ID               string     `json:"id" gorm:"primaryKey"`
	UserID           string     `json:"user_id" gorm:"not null;index"`
	PathID           *string    `json:"path_id" gorm:"index"`
	CourseID         *string    `json:"course_id" gorm:"index"`
	Type             string     `json:"type" gorm:"not null"`
	VerificationCode string     `json:"verification_code" gorm:"not null;uniqueIndex"`
	Status           string     `json:"status" gorm:"default:issued"`
	IssuedBy         string     `json:"issued_by"`
	IssuedAt         time.Time  `json:"issued_at"`
	RevokedAt        *time.Time `json:"revoked_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ContentID returns whichever hierarchy reference the certificate carries.
func (c *Certificate) ContentID() string {
	if c.PathID != nil {
		return *c.PathID
	}
	if c.CourseID != nil {
		return *c.CourseID
	}
	return ""
}
