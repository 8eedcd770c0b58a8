package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/skillpath/academy_api/dto"
	"github.com/skillpath/academy_api/shared"
)

type ContentHandler struct {
	contentSvc ContentServiceInterface
}

func NewContentHandler(contentSvc ContentServiceInterface) *ContentHandler {
	return &ContentHandler{
		contentSvc: contentSvc,
	}
}

// isEditor reports whether the caller may see unpublished content.
func isEditor(c *fiber.Ctx) bool {
	role, _ := c.Locals(shared.UserRole).(string)
	return role == shared.RoleEditor || role == shared.RoleAdmin
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals(shared.UserID).(string)
	return id
}

// @Summary Create content node
// @Description Create a draft path, course, module or lesson
// @Tags content
// @Accept json
// @Produce json
// @Param kind path string true "Content kind" Enums(path, course, module, lesson)
// @Param createRequest body dto.CreateContentRequest true "Content details"
// @Success 201 {object} shared.Response{data=dto.ContentResponse}
// @Security BearerAuth
// @Router /api/v1/content/{kind} [post]
func (h *ContentHandler) CreateContent(c *fiber.Ctx) error {
	var req dto.CreateContentRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.contentSvc.CreateContent(c.Params("kind"), userID(c), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Content created", resp)
}

// @Summary Create challenge
// @Description Create a draft challenge beneath a lesson
// @Tags content
// @Accept json
// @Produce json
// @Param createRequest body dto.CreateChallengeRequest true "Challenge details"
// @Success 201 {object} shared.Response{data=dto.ChallengeResponse}
// @Security BearerAuth
// @Router /api/v1/content/challenges [post]
func (h *ContentHandler) CreateChallenge(c *fiber.Ctx) error {
	var req dto.CreateChallengeRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.contentSvc.CreateChallenge(userID(c), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Challenge created", resp)
}

// @Summary Get content node
// @Description Get one content node; unpublished nodes are editor-only
// @Tags content
// @Accept json
// @Produce json
// @Param kind path string true "Content kind" Enums(path, course, module, lesson)
// @Param id path string true "Content ID"
// @Success 200 {object} shared.Response{data=dto.ContentResponse}
// @Router /api/v1/content/{kind}/{id} [get]
func (h *ContentHandler) GetContent(c *fiber.Ctx) error {
	resp, err := h.contentSvc.GetContent(c.Params("kind"), c.Params("id"), isEditor(c))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Get challenge
// @Description Get a challenge with its questions; stored answers are never returned
// @Tags content
// @Accept json
// @Produce json
// @Param id path string true "Challenge ID"
// @Success 200 {object} shared.Response{data=dto.ChallengeResponse}
// @Router /api/v1/content/challenges/{id} [get]
func (h *ContentHandler) GetChallenge(c *fiber.Ctx) error {
	resp, err := h.contentSvc.GetChallenge(c.Params("id"), isEditor(c))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary List content nodes
// @Description List nodes of one kind, optionally filtered by parent and status
// @Tags content
// @Accept json
// @Produce json
// @Param kind path string true "Content kind" Enums(path, course, module, lesson, challenge)
// @Param parent_id query string false "Filter by parent"
// @Param status query string false "Filter by status"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} shared.Response{data=dto.ContentListResponse}
// @Router /api/v1/content/{kind} [get]
func (h *ContentHandler) ListContent(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	status := c.Query("status")
	if !isEditor(c) {
		status = shared.StatusPublished
	}

	resp, err := h.contentSvc.ListContent(c.Params("kind"), c.Query("parent_id"), status, limit, offset)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Update content node
// @Description Partially update a node; status transitions to draft or archived cascade to descendants
// @Tags content
// @Accept json
// @Produce json
// @Param kind path string true "Content kind" Enums(path, course, module, lesson, challenge)
// @Param id path string true "Content ID"
// @Param updateRequest body dto.UpdateContentRequest true "Fields to update"
// @Success 200 {object} shared.Response{data=dto.ContentResponse}
// @Security BearerAuth
// @Router /api/v1/content/{kind}/{id} [patch]
func (h *ContentHandler) UpdateContent(c *fiber.Ctx) error {
	var req dto.UpdateContentRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.contentSvc.UpdateContent(c.Params("kind"), c.Params("id"), userID(c), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Content updated", resp)
}

// @Summary Get path tree
// @Description Get the published hierarchy beneath a learning path
// @Tags content
// @Accept json
// @Produce json
// @Param id path string true "Path ID"
// @Success 200 {object} shared.Response{data=dto.PathTreeResponse}
// @Router /api/v1/content/paths/{id}/tree [get]
func (h *ContentHandler) GetPathTree(c *fiber.Ctx) error {
	resp, err := h.contentSvc.GetPathTree(c.Params("id"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Cache statistics
// @Description Inspect the content cache
// @Tags admin
// @Accept json
// @Produce json
// @Success 200 {object} shared.Response{data=dto.CacheStatsResponse}
// @Security BearerAuth
// @Router /api/v1/admin/cache [get]
func (h *ContentHandler) CacheStats(c *fiber.Ctx) error {
	return shared.ResponseJSON(c, http.StatusOK, "Success", h.contentSvc.CacheStats())
}

// @Summary Flush cache
// @Description Remove cache entries matching the given pattern, or all entries
// @Tags admin
// @Accept json
// @Produce json
// @Param pattern query string false "Substring pattern"
// @Success 200 {object} shared.Response
// @Security BearerAuth
// @Router /api/v1/admin/cache/flush [post]
func (h *ContentHandler) FlushCache(c *fiber.Ctx) error {
	var removed int
	if pattern := c.Query("pattern"); pattern != "" {
		removed = h.contentSvc.FlushCache(pattern)
	} else {
		removed = h.contentSvc.FlushCache()
	}

	return shared.ResponseJSON(c, http.StatusOK, "Cache flushed", fiber.Map{"removed": removed})
}
