package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sangwon4052/sangwon-sign-off/internal/middleware"
	"github.com/sangwon4052/sangwon-sign-off/internal/models"
	"github.com/sangwon4052/sangwon-sign-off/internal/services"
	"github.com/sangwon4052/sangwon-sign-off/pkg/logger"
	"github.com/sangwon4052/sangwon-sign-off/pkg/utils"
)

type AuthHandler struct {
	Users *services.UserService
}

func NewAuthHandler(users *services.UserService) *AuthHandler {
	return &AuthHandler{Users: users}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	pending, err := h.Users.Signup(c.UserContext(), services.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		return respondError(c, err, "signup")
	}

	return utils.Success(c, fiber.StatusCreated, fiber.Map{
		"id":     pending.ID,
		"name":   pending.Name,
		"email":  pending.Email,
		"role":   pending.Role,
		"status": pending.Status(),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.Users.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if models.IsKind(err, models.KindAuthentication) {
			logger.Warn("login_failed", map[string]interface{}{
				"ip":     c.IP(),
				"reason": err.Error(),
			})
		}
		return respondError(c, err, "login")
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	logger.InfoWithUser(user.ID.String(), "user_login", map[string]interface{}{
		"ip":   c.IP(),
		"role": string(user.Role),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"token":     token,
		"expiresAt": time.Now().UTC().Add(utils.TokenLifetime()),
		"user":      user,
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.Users.Logout(c.UserContext(), middleware.GetCurrentUser(c))
	return utils.Message(c, "logged out")
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return utils.Success(c, fiber.StatusOK, middleware.GetCurrentUser(c))
}
