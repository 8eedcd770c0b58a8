package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/skillpath/academy_api/dto"
	"github.com/skillpath/academy_api/shared"
)

type ProgressHandler struct {
	progressSvc ProgressServiceInterface
	scoringSvc  ScoringServiceInterface
}

func NewProgressHandler(progressSvc ProgressServiceInterface, scoringSvc ScoringServiceInterface) *ProgressHandler {
	return &ProgressHandler{
		progressSvc: progressSvc,
		scoringSvc:  scoringSvc,
	}
}

// @Summary Submit challenge answers
// @Description Grade a challenge submission, award XP and update progress
// @Tags progress
// @Accept json
// @Produce json
// @Param submitRequest body dto.SubmitChallengeRequest true "Answers keyed by question index"
// @Success 200 {object} shared.Response{data=dto.SubmitChallengeResponse}
// @Security BearerAuth
// @Router /api/v1/progress/submit [post]
func (h *ProgressHandler) SubmitChallenge(c *fiber.Ctx) error {
	var req dto.SubmitChallengeRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.scoringSvc.SubmitChallenge(userID(c), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Submission graded", resp)
}

// @Summary Mark progress
// @Description Record a status for a content item the caller is working through
// @Tags progress
// @Accept json
// @Produce json
// @Param markRequest body dto.MarkProgressRequest true "Progress update"
// @Success 200 {object} shared.Response{data=dto.ProgressResponse}
// @Security BearerAuth
// @Router /api/v1/progress [post]
func (h *ProgressHandler) MarkProgress(c *fiber.Ctx) error {
	var req dto.MarkProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.progressSvc.MarkProgress(userID(c), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Progress recorded", resp)
}

// @Summary List progress
// @Description List the caller's progress records, optionally by content kind
// @Tags progress
// @Accept json
// @Produce json
// @Param kind query string false "Content kind filter"
// @Success 200 {object} shared.Response{data=[]dto.ProgressResponse}
// @Security BearerAuth
// @Router /api/v1/progress [get]
func (h *ProgressHandler) ListProgress(c *fiber.Ctx) error {
	resp, err := h.progressSvc.ListProgress(userID(c), c.Query("kind"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Get XP summary
// @Description Get the caller's XP total, level and streaks
// @Tags progress
// @Accept json
// @Produce json
// @Success 200 {object} shared.Response{data=dto.UserXPResponse}
// @Security BearerAuth
// @Router /api/v1/progress/xp [get]
func (h *ProgressHandler) GetUserXP(c *fiber.Ctx) error {
	resp, err := h.progressSvc.GetUserXP(userID(c))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Get path progress
// @Description Get the caller's lesson completion over one learning path
// @Tags progress
// @Accept json
// @Produce json
// @Param id path string true "Path ID"
// @Success 200 {object} shared.Response{data=dto.PathProgressResponse}
// @Security BearerAuth
// @Router /api/v1/progress/paths/{id} [get]
func (h *ProgressHandler) PathProgress(c *fiber.Ctx) error {
	resp, err := h.progressSvc.PathProgress(userID(c), c.Params("id"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}
