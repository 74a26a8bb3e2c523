package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tandemdaily/api/dto"
	"github.com/tandemdaily/api/shared"
)

type StatsHandler struct {
	progressSvc ProgressServiceInterface
}

func NewStatsHandler(progressSvc ProgressServiceInterface) *StatsHandler {
	return &StatsHandler{
		progressSvc: progressSvc,
	}
}

// @Summary Complete a daily puzzle
// @Description Record a completion; streaks only ever move forward
// @Tags stats
// @Accept json
// @Produce json
// @Security Bearer
// @Param completeRequest body dto.CompletePuzzleRequest true "Completion details"
// @Success 200 {object} shared.Response{data=dto.CompletePuzzleResponse}
// @Router /api/complete [post]
func (h *StatsHandler) Complete(game string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals(shared.UserID).(string)

		var req dto.CompletePuzzleRequest
		if err := c.BodyParser(&req); err != nil {
			return err
		}
		req.Game = game

		if err := req.Validate(); err != nil {
			validationResp := dto.CreateValidationErrorResponse(err)
			return c.Status(fiber.StatusBadRequest).JSON(validationResp)
		}

		resp, err := h.progressSvc.CompletePuzzle(userID, req)
		if err != nil {
			return err
		}

		return shared.ResponseOK(c, resp)
	}
}

// @Summary Get aggregate stats
// @Tags stats
// @Produce json
// @Security Bearer
// @Success 200 {object} shared.Response{data=dto.StatsResponse}
// @Router /api/user-stats [get]
func (h *StatsHandler) GetStats(game string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals(shared.UserID).(string)

		stats, err := h.progressSvc.GetStats(userID, game)
		if err != nil {
			return err
		}

		return shared.ResponseOK(c, dto.StatsResponse{Game: game, Stats: *stats})
	}
}

// MergeStats reconciles a device's local aggregates with the server copy.
// The merged document is returned so the device can adopt it.
//
// @Summary Merge aggregate stats
// @Tags stats
// @Accept json
// @Produce json
// @Security Bearer
// @Param stats body dto.StatsPayload true "Device-local stats"
// @Success 200 {object} shared.Response{data=dto.StatsResponse}
// @Router /api/user-stats [post]
func (h *StatsHandler) MergeStats(game string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals(shared.UserID).(string)

		var incoming dto.StatsPayload
		if err := c.BodyParser(&incoming); err != nil {
			return err
		}

		req := dto.MergeStatsRequest{Game: game, Stats: incoming}
		if err := req.Validate(); err != nil {
			validationResp := dto.CreateValidationErrorResponse(err)
			return c.Status(fiber.StatusBadRequest).JSON(validationResp)
		}

		merged, err := h.progressSvc.MergeStats(userID, game, incoming)
		if err != nil {
			return err
		}

		return shared.ResponseJSON(c, http.StatusOK, "Stats merged", dto.StatsResponse{Game: game, Stats: *merged})
	}
}
