package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/skillpath/academy_api/dto"
	"github.com/skillpath/academy_api/shared"
)

type CertificateHandler struct {
	certificateSvc CertificateServiceInterface
}

func NewCertificateHandler(certificateSvc CertificateServiceInterface) *CertificateHandler {
	return &CertificateHandler{
		certificateSvc: certificateSvc,
	}
}

// @Summary Issue certificate
// @Description Issue a completion certificate for a fully completed path or course
// @Tags certificates
// @Accept json
// @Produce json
// @Param issueRequest body dto.IssueCertificateRequest true "Content to certify"
// @Success 201 {object} shared.Response{data=dto.CertificateResponse}
// @Security BearerAuth
// @Router /api/v1/certificates [post]
func (h *CertificateHandler) IssueCertificate(c *fiber.Ctx) error {
	var req dto.IssueCertificateRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.certificateSvc.IssueCertificate(userID(c), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Certificate issued", resp)
}

// @Summary List certificates
// @Description List the caller's certificates
// @Tags certificates
// @Accept json
// @Produce json
// @Success 200 {object} shared.Response{data=[]dto.CertificateResponse}
// @Security BearerAuth
// @Router /api/v1/certificates [get]
func (h *CertificateHandler) ListCertificates(c *fiber.Ctx) error {
	resp, err := h.certificateSvc.ListUserCertificates(userID(c))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Verify certificate
// @Description Verify a certificate by its public verification code
// @Tags certificates
// @Accept json
// @Produce json
// @Param code path string true "Verification code"
// @Success 200 {object} shared.Response{data=dto.VerifyCertificateResponse}
// @Router /api/v1/certificates/verify/{code} [get]
func (h *CertificateHandler) VerifyCertificate(c *fiber.Ctx) error {
	resp, err := h.certificateSvc.VerifyCertificate(c.Params("code"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Revoke certificate
// @Description Revoke an issued certificate
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Certificate ID"
// @Success 200 {object} shared.Response{data=dto.CertificateResponse}
// @Security BearerAuth
// @Router /api/v1/admin/certificates/{id}/revoke [post]
func (h *CertificateHandler) RevokeCertificate(c *fiber.Ctx) error {
	resp, err := h.certificateSvc.RevokeCertificate(c.Params("id"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Certificate revoked", resp)
}
