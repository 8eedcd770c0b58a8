package dto

import "time"

type IssueCertificateRequest struct {
	ContentID   string `json:"content_id" validate:"required,uuid"`
	ContentKind string `json:"content_kind" validate:"required,oneof=path course"`
}

func (r IssueCertificateRequest) Validate() error {
	return validate.Struct(r)
}

type CertificateResponse struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	ContentID        string     `json:"content_id"`
	ContentTitle     string     `json:"content_title,omitempty"`
	ContentKind      string     `json:"content_kind"`
	Type             string     `json:"type"`
	VerificationCode string     `json:"verification_code"`
	Status           string     `json:"status"`
	IssuedAt         time.Time  `json:"issued_at"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
}

type VerifyCertificateResponse struct {
	Valid       bool                 `json:"valid"`
	Certificate *CertificateResponse `json:"certificate,omitempty"`
}
