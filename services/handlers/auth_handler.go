package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tandemdaily/api/dto"
	"github.com/tandemdaily/api/shared"
)

type AuthHandler struct {
	authSvc  AuthServiceInterface
	mediaSvc MediaServiceInterface
}

func NewAuthHandler(authSvc AuthServiceInterface, mediaSvc MediaServiceInterface) *AuthHandler {
	return &AuthHandler{
		authSvc:  authSvc,
		mediaSvc: mediaSvc,
	}
}

// @Summary Register a new user
// @Description Create a new user account
// @Tags auth
// @Accept json
// @Produce json
// @Param registerRequest body dto.RegisterRequest true "Registration details"
// @Success 201 {object} shared.Response{data=dto.RegisterResponse}
// @Router /api/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.authSvc.Register(req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "User registered successfully", resp)
}

// @Summary Login user
// @Description Authenticate user and return access token
// @Tags auth
// @Accept json
// @Produce json
// @Param loginRequest body dto.LoginRequest true "Login credentials"
// @Success 200 {object} shared.Response{data=dto.LoginResponse}
// @Router /api/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.authSvc.Login(req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Login successful", resp)
}

// @Summary Admin login
// @Description Authenticate an editorial admin; issues the CSRF cookie pair
// @Tags auth
// @Accept json
// @Produce json
// @Param loginRequest body dto.AdminLoginRequest true "Admin credentials"
// @Success 200 {object} shared.Response{data=dto.LoginResponse}
// @Router /api/admin/login [post]
func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, csrfToken, err := h.authSvc.AdminLogin(req)
	if err != nil {
		return err
	}

	h.authSvc.SetCSRFCookie(c, csrfToken)

	return shared.ResponseJSON(c, http.StatusOK, "Login successful", fiber.Map{
		"user":      resp,
		"csrfToken": csrfToken,
	})
}

// @Summary Get own profile
// @Tags user
// @Produce json
// @Security Bearer
// @Success 200 {object} shared.Response{data=dto.UserProfileResponse}
// @Router /api/profile [get]
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.mediaSvc.GetProfile(userID)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}

// @Summary Update own profile
// @Tags user
// @Accept json
// @Produce json
// @Security Bearer
// @Param updateRequest body dto.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} shared.Response{data=dto.UserProfileResponse}
// @Router /api/profile [put]
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.mediaSvc.UpdateProfile(userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Profile updated", resp)
}

// @Summary List avatars
// @Description Selectable avatar catalog
// @Tags user
// @Produce json
// @Success 200 {object} shared.Response{data=[]dto.AvatarResponse}
// @Router /api/avatars [get]
func (h *AuthHandler) ListAvatars(c *fiber.Ctx) error {
	avatars, err := h.mediaSvc.ListAvatars()
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, avatars)
}
