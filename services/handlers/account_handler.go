package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tandemdaily/api/dto"
	"github.com/tandemdaily/api/shared"
)

type AccountHandler struct {
	accountSvc AccountServiceInterface
}

func NewAccountHandler(accountSvc AccountServiceInterface) *AccountHandler {
	return &AccountHandler{
		accountSvc: accountSvc,
	}
}

// @Summary Delete own account
// @Description Removes all user data and revokes linked sign-in tokens
// @Tags account
// @Produce json
// @Security Bearer
// @Success 200 {object} shared.Response{data=dto.DeleteAccountResponse}
// @Router /api/account/delete [delete]
func (h *AccountHandler) DeleteAccount(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.accountSvc.DeleteAccount(c.Context(), userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Account deleted", resp)
}

// @Summary Grant a subscription
// @Description Support override; writes the same row the purchase flow would
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param grantRequest body dto.GrantSubscriptionRequest true "Grant"
// @Success 200 {object} shared.Response{data=model.Subscription}
// @Router /api/admin/subscriptions [post]
func (h *AccountHandler) GrantSubscription(c *fiber.Ctx) error {
	var req dto.GrantSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	sub, err := h.accountSvc.GrantSubscription(req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Subscription granted", sub)
}

// @Summary Revoke a subscription
// @Tags admin
// @Produce json
// @Security Bearer
// @Param userId path string true "User ID"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/admin/subscriptions/{userId} [delete]
func (h *AccountHandler) RevokeSubscription(c *fiber.Ctx) error {
	if err := h.accountSvc.RevokeSubscription(c.Params("userId")); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Subscription revoked", nil)
}
