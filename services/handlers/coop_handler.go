package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/tandemdaily/api/dto"
	"github.com/tandemdaily/api/shared"
)

type CoopHandler struct {
	coopSvc CoopServiceInterface
}

func NewCoopHandler(coopSvc CoopServiceInterface) *CoopHandler {
	return &CoopHandler{
		coopSvc: coopSvc,
	}
}

// @Summary Create a co-op session
// @Description Host a two-player session; returns the invite code
// @Tags coop
// @Accept json
// @Produce json
// @Security Bearer
// @Success 201 {object} shared.Response{data=dto.CoopSessionResponse}
// @Router /api/daily-alchemy/coop/create [post]
func (h *CoopHandler) Create(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.CreateCoopSessionRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.coopSvc.CreateSession(userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Session created", resp)
}

// @Summary Join a co-op session
// @Description Claim a waiting session by invite code; a claimed code returns 409
// @Tags coop
// @Accept json
// @Produce json
// @Security Bearer
// @Param joinRequest body dto.JoinCoopSessionRequest true "Invite code"
// @Success 200 {object} shared.Response{data=dto.CoopSessionResponse}
// @Router /api/daily-alchemy/coop/join [post]
func (h *CoopHandler) Join(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.JoinCoopSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.coopSvc.JoinSession(userID, req.InviteCode)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Session joined", resp)
}

// @Summary Get session state
// @Tags coop
// @Produce json
// @Security Bearer
// @Param id path string true "Session ID"
// @Success 200 {object} shared.Response{data=dto.CoopSessionResponse}
// @Router /api/daily-alchemy/coop/session/{id} [get]
func (h *CoopHandler) GetSession(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.coopSvc.GetSession(userID, c.Params("id"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}

// @Summary Apply a move
// @Description Stream the device's element bank and counters to the server copy
// @Tags coop
// @Accept json
// @Produce json
// @Security Bearer
// @Param moveRequest body dto.CoopMoveRequest true "Move"
// @Success 200 {object} shared.Response{data=dto.CoopSessionResponse}
// @Router /api/daily-alchemy/coop/session [post]
func (h *CoopHandler) Move(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.CoopMoveRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.coopSvc.ApplyMove(userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}

// @Summary Mark session completed
// @Tags coop
// @Produce json
// @Security Bearer
// @Param id path string true "Session ID"
// @Success 200 {object} shared.Response{data=dto.CoopSessionResponse}
// @Router /api/daily-alchemy/coop/session/{id}/complete [post]
func (h *CoopHandler) Complete(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.coopSvc.CompleteSession(userID, c.Params("id"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Session completed", resp)
}

// @Summary Abandon session
// @Tags coop
// @Produce json
// @Security Bearer
// @Param id path string true "Session ID"
// @Success 200 {object} shared.Response{data=dto.CoopSessionResponse}
// @Router /api/daily-alchemy/coop/session/{id}/abandon [post]
func (h *CoopHandler) Abandon(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.coopSvc.AbandonSession(userID, c.Params("id"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Session abandoned", resp)
}

// @Summary Write a creative save slot
// @Description Private per-user save; does not touch the live session
// @Tags coop
// @Accept json
// @Produce json
// @Security Bearer
// @Param slot query int true "Slot number (1-5)"
// @Param saveRequest body dto.CoopSaveRequest true "Element bank"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/daily-alchemy/coop/save [post]
func (h *CoopHandler) Save(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	slot, err := strconv.Atoi(c.Query("slot", "1"))
	if err != nil {
		return shared.ErrValidation("Invalid slot")
	}

	var req dto.CoopSaveRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	if err := h.coopSvc.SaveSlot(userID, slot, req); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Save written", nil)
}
