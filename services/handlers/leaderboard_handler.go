package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/tandemdaily/api/dto"
	"github.com/tandemdaily/api/shared"
)

type LeaderboardHandler struct {
	leaderboardSvc LeaderboardServiceInterface
}

func NewLeaderboardHandler(leaderboardSvc LeaderboardServiceInterface) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardSvc: leaderboardSvc,
	}
}

// @Summary Daily speed leaderboard
// @Description Top-N fastest solves for a date; caller's rank included when signed in
// @Tags leaderboard
// @Produce json
// @Param game query string false "Game (default tandem)"
// @Param date query string false "Puzzle date (default today)"
// @Param limit query int false "Top N (max 100)"
// @Success 200 {object} shared.Response{data=dto.LeaderboardResponse}
// @Router /api/leaderboard/daily [get]
func (h *LeaderboardHandler) GetDaily(c *fiber.Ctx) error {
	return h.getBoard(c, shared.BoardDailySpeed)
}

// @Summary Best streak leaderboard
// @Tags leaderboard
// @Produce json
// @Param game query string false "Game (default tandem)"
// @Param limit query int false "Top N (max 100)"
// @Success 200 {object} shared.Response{data=dto.LeaderboardResponse}
// @Router /api/leaderboard/streak [get]
func (h *LeaderboardHandler) GetStreak(c *fiber.Ctx) error {
	return h.getBoard(c, shared.BoardBestStreak)
}

func (h *LeaderboardHandler) getBoard(c *fiber.Ctx, board string) error {
	game := c.Query("game", shared.GameTandem)
	if !shared.ValidGame(game) {
		return shared.ErrValidation("Unknown game")
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	callerID := ""
	if v := c.Locals(shared.UserID); v != nil {
		callerID = v.(string)
	}

	resp, err := h.leaderboardSvc.GetBoard(game, board, c.Query("date"), limit, callerID)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}

// @Summary Submit a daily speed score
// @Tags leaderboard
// @Accept json
// @Produce json
// @Security Bearer
// @Param scoreRequest body dto.SubmitDailyScoreRequest true "Score"
// @Success 200 {object} shared.Response{data=dto.SubmitScoreResponse}
// @Router /api/leaderboard/daily [post]
func (h *LeaderboardHandler) SubmitDaily(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.SubmitDailyScoreRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.leaderboardSvc.SubmitDaily(userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, responseMessage(resp), resp)
}

// @Summary Submit a best streak
// @Tags leaderboard
// @Accept json
// @Produce json
// @Security Bearer
// @Param streakRequest body dto.SubmitStreakRequest true "Streak"
// @Success 200 {object} shared.Response{data=dto.SubmitScoreResponse}
// @Router /api/leaderboard/streak [post]
func (h *LeaderboardHandler) SubmitStreak(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.SubmitStreakRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.leaderboardSvc.SubmitStreak(userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, responseMessage(resp), resp)
}

// @Summary Set leaderboard participation
// @Tags leaderboard
// @Accept json
// @Produce json
// @Security Bearer
// @Param preferenceRequest body dto.LeaderboardPreferenceRequest true "Participation flag"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/leaderboard/preference [put]
func (h *LeaderboardHandler) SetPreference(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.LeaderboardPreferenceRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := h.leaderboardSvc.SetPreference(userID, req.Enabled); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Preference updated", nil)
}

func responseMessage(resp *dto.SubmitScoreResponse) string {
	if resp.Message != "" {
		return resp.Message
	}
	return "Score submitted"
}
