package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/skillpath/academy_api/shared"
)

type AnalyticsHandler struct {
	analyticsSvc AnalyticsServiceInterface
}

func NewAnalyticsHandler(analyticsSvc AnalyticsServiceInterface) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsSvc: analyticsSvc,
	}
}

// @Summary Platform summary
// @Description Aggregated platform statistics for the admin dashboard
// @Tags admin
// @Accept json
// @Produce json
// @Success 200 {object} shared.Response{data=dto.PlatformSummaryResponse}
// @Security BearerAuth
// @Router /api/v1/admin/analytics [get]
func (h *AnalyticsHandler) PlatformSummary(c *fiber.Ctx) error {
	resp, err := h.analyticsSvc.PlatformSummary()
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary User summary
// @Description The caller's learning statistics
// @Tags analytics
// @Accept json
// @Produce json
// @Success 200 {object} shared.Response{data=dto.UserSummaryResponse}
// @Security BearerAuth
// @Router /api/v1/analytics/me [get]
func (h *AnalyticsHandler) UserSummary(c *fiber.Ctx) error {
	resp, err := h.analyticsSvc.UserSummary(userID(c))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Leaderboard
// @Description Users ranked by total XP
// @Tags analytics
// @Accept json
// @Produce json
// @Param limit query int false "Max entries"
// @Success 200 {object} shared.Response{data=dto.LeaderboardResponse}
// @Router /api/v1/analytics/leaderboard [get]
func (h *AnalyticsHandler) Leaderboard(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))

	resp, err := h.analyticsSvc.Leaderboard(limit)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}
