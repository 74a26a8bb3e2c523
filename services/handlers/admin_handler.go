package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/tandemdaily/api/dto"
	"github.com/tandemdaily/api/shared"
)

type AdminHandler struct {
	contentSvc ContentServiceInterface
	aiSvc      AIServiceInterface
	mediaSvc   MediaServiceInterface
}

func NewAdminHandler(contentSvc ContentServiceInterface, aiSvc AIServiceInterface, mediaSvc MediaServiceInterface) *AdminHandler {
	return &AdminHandler{
		contentSvc: contentSvc,
		aiSvc:      aiSvc,
		mediaSvc:   mediaSvc,
	}
}

func adminName(c *fiber.Ctx) string {
	if v := c.Locals(shared.AdminName); v != nil {
		return v.(string)
	}
	return ""
}

// ==================== PUZZLE CRUD ====================

// @Summary List puzzles
// @Tags admin
// @Produce json
// @Security Bearer
// @Param from query string false "From date"
// @Param to query string false "To date"
// @Param limit query int false "Max rows"
// @Success 200 {object} shared.Response{data=[]dto.PuzzleResponse}
// @Router /api/admin/{game}/puzzles [get]
func (h *AdminHandler) ListPuzzles(game string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req dto.ListPuzzlesRequest
		if err := c.QueryParser(&req); err != nil {
			return err
		}

		if err := req.Validate(); err != nil {
			validationResp := dto.CreateValidationErrorResponse(err)
			return c.Status(fiber.StatusBadRequest).JSON(validationResp)
		}

		puzzles, err := h.contentSvc.ListPuzzles(game, req)
		if err != nil {
			return err
		}

		return shared.ResponseOK(c, puzzles)
	}
}

// @Summary Create a puzzle
// @Description Validates and normalizes the payload; duplicate (game, date) returns 409
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param createRequest body dto.CreatePuzzleRequest true "Puzzle"
// @Success 201 {object} shared.Response{data=dto.PuzzleResponse}
// @Router /api/admin/{game}/puzzles [post]
func (h *AdminHandler) CreatePuzzle(game string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req dto.CreatePuzzleRequest
		if err := c.BodyParser(&req); err != nil {
			return err
		}
		req.Game = game

		if err := req.Validate(); err != nil {
			validationResp := dto.CreateValidationErrorResponse(err)
			return c.Status(fiber.StatusBadRequest).JSON(validationResp)
		}

		resp, err := h.contentSvc.CreatePuzzle(adminName(c), req)
		if err != nil {
			return err
		}

		return shared.ResponseJSON(c, http.StatusCreated, "Puzzle created", resp)
	}
}

// @Summary Update a puzzle
// @Description Full payload replacement; a date move onto an occupied day returns 409
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Puzzle ID"
// @Param updateRequest body dto.UpdatePuzzleRequest true "Fields to update"
// @Success 200 {object} shared.Response{data=dto.PuzzleResponse}
// @Router /api/admin/{game}/puzzles/{id} [put]
func (h *AdminHandler) UpdatePuzzle(c *fiber.Ctx) error {
	var req dto.UpdatePuzzleRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.contentSvc.UpdatePuzzle(c.Params("id"), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Puzzle updated", resp)
}

// @Summary Delete a puzzle
// @Tags admin
// @Produce json
// @Security Bearer
// @Param id path string true "Puzzle ID"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/admin/{game}/puzzles/{id} [delete]
func (h *AdminHandler) DeletePuzzle(c *fiber.Ctx) error {
	if err := h.contentSvc.DeletePuzzle(c.Params("id")); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Puzzle deleted", nil)
}

// ==================== AI ASSIST ====================

// @Summary Suggest tandem themes
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Success 200 {object} shared.Response{data=dto.SuggestThemesResponse}
// @Router /api/admin/tandem/suggest-themes [post]
func (h *AdminHandler) SuggestThemes(c *fiber.Ctx) error {
	var req dto.SuggestThemesRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.aiSvc.SuggestThemes(c.Context(), req)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}

// @Summary Suggest reel connections
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Success 200 {object} shared.Response{data=dto.SuggestConnectionsResponse}
// @Router /api/admin/reel/suggest-connections [post]
func (h *AdminHandler) SuggestConnections(c *fiber.Ctx) error {
	var req dto.SuggestConnectionsRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.aiSvc.SuggestConnections(c.Context(), req)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}

// @Summary Suggest crossword words
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param wordsRequest body dto.SuggestCrosswordWordsRequest true "Pattern and constraints"
// @Success 200 {object} shared.Response{data=dto.SuggestCrosswordWordsResponse}
// @Router /api/admin/mini/suggest-words [post]
func (h *AdminHandler) SuggestCrosswordWords(c *fiber.Ctx) error {
	var req dto.SuggestCrosswordWordsRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.aiSvc.SuggestCrosswordWords(c.Context(), req)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}

// @Summary Generate tandem hints
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param hintsRequest body dto.GenerateHintsRequest true "Theme and answers"
// @Success 200 {object} shared.Response{data=dto.GenerateHintsResponse}
// @Router /api/admin/tandem/generate-hints [post]
func (h *AdminHandler) GenerateHints(c *fiber.Ctx) error {
	var req dto.GenerateHintsRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.aiSvc.GenerateHints(c.Context(), req)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}

// @Summary Regenerate an emoji pair
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param emojiRequest body dto.RegenerateEmojiPairRequest true "Answer and theme"
// @Success 200 {object} shared.Response{data=dto.RegenerateEmojiPairResponse}
// @Router /api/admin/tandem/regenerate-emoji [post]
func (h *AdminHandler) RegenerateEmojiPair(c *fiber.Ctx) error {
	var req dto.RegenerateEmojiPairRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.aiSvc.RegenerateEmojiPair(c.Context(), req)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}

// @Summary Assess cryptic clue difficulty
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param assessRequest body dto.AssessCrypticDifficultyRequest true "Clue and answer"
// @Success 200 {object} shared.Response{data=dto.AssessCrypticDifficultyResponse}
// @Router /api/admin/cryptic/assess-difficulty [post]
func (h *AdminHandler) AssessCrypticDifficulty(c *fiber.Ctx) error {
	var req dto.AssessCrypticDifficultyRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.aiSvc.AssessCrypticDifficulty(c.Context(), req)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}

// ==================== SUBMISSIONS ====================

// @Summary List user submissions
// @Tags admin
// @Produce json
// @Security Bearer
// @Param status query string false "Filter by status"
// @Success 200 {object} shared.Response{data=[]model.PuzzleSubmission}
// @Router /api/admin/submissions [get]
func (h *AdminHandler) ListSubmissions(c *fiber.Ctx) error {
	submissions, err := h.contentSvc.ListSubmissions(c.Query("status"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, submissions)
}

// @Summary Review a submission
// @Description Approve or reject; approving with a date schedules it as the reel puzzle
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Submission ID"
// @Param reviewRequest body dto.ReviewSubmissionRequest true "Review decision"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/admin/submissions/{id}/review [post]
func (h *AdminHandler) ReviewSubmission(c *fiber.Ctx) error {
	var req dto.ReviewSubmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	if err := h.contentSvc.ReviewSubmission(c.Params("id"), adminName(c), req); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Submission reviewed", nil)
}

// ==================== AVATARS ====================

// @Summary Upload an avatar
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Security Bearer
// @Param name formData string true "Avatar name"
// @Param sort_order formData int false "Sort order"
// @Param image formData file true "Image file"
// @Success 201 {object} shared.Response{data=dto.AvatarResponse}
// @Router /api/admin/avatars [post]
func (h *AdminHandler) CreateAvatar(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return shared.ErrValidation("Image file is required")
	}

	name := c.FormValue("name")
	if name == "" {
		return shared.ErrValidation("Avatar name is required")
	}

	sortOrder, _ := strconv.Atoi(c.FormValue("sort_order", "0"))

	resp, err := h.mediaSvc.CreateAvatar(name, sortOrder, file)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Avatar created", resp)
}

// @Summary Delete an avatar
// @Tags admin
// @Produce json
// @Security Bearer
// @Param id path string true "Avatar ID"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/admin/avatars/{id} [delete]
func (h *AdminHandler) DeleteAvatar(c *fiber.Ctx) error {
	if err := h.mediaSvc.DeleteAvatar(c.Params("id")); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Avatar deleted", nil)
}
