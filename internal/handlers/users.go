package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sangwon4052/sangwon-sign-off/internal/middleware"
	"github.com/sangwon4052/sangwon-sign-off/internal/models"
	"github.com/sangwon4052/sangwon-sign-off/internal/services"
	"github.com/sangwon4052/sangwon-sign-off/pkg/utils"
)

type UsersHandler struct {
	Users *services.UserService
}

func NewUsersHandler(users *services.UserService) *UsersHandler {
	return &UsersHandler{Users: users}
}

func (h *UsersHandler) List(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)
	role := models.Role(strings.TrimSpace(c.Query("role")))

	users, err := h.Users.ListUsers(c.UserContext(), middleware.GetCurrentUser(c), role)
	if err != nil {
		return respondError(c, err, "list_users")
	}
	return utils.Paginated(c, utils.Paginate(users, p), p.Page, p.Limit, int64(len(users)))
}

type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
	Role            string `json:"role"`
}

// Register creates an active account on behalf of an employee.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.Users.RegisterEmployee(c.UserContext(), middleware.GetCurrentUser(c), services.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		Role:            models.Role(req.Role),
	})
	if err != nil {
		return respondError(c, err, "register_user")
	}
	return utils.Success(c, fiber.StatusCreated, user)
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

func (h *UsersHandler) ChangeRole(c *fiber.Ctx) error {
	userID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var req changeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.Users.ChangeRole(c.UserContext(), middleware.GetCurrentUser(c), userID, models.Role(strings.TrimSpace(req.Role)))
	if err != nil {
		return respondError(c, err, "change_role")
	}
	return utils.Success(c, fiber.StatusOK, user)
}

func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	userID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	if err := h.Users.DeleteUser(c.UserContext(), middleware.GetCurrentUser(c), userID); err != nil {
		return respondError(c, err, "delete_user")
	}
	return utils.Message(c, "user deleted")
}

func (h *UsersHandler) ListPending(c *fiber.Ctx) error {
	pending, err := h.Users.ListPendingUsers(c.UserContext(), middleware.GetCurrentUser(c))
	if err != nil {
		return respondError(c, err, "list_pending_users")
	}

	rows := make([]fiber.Map, 0, len(pending))
	for _, p := range pending {
		rows = append(rows, fiber.Map{
			"id":        p.ID,
			"name":      p.Name,
			"email":     p.Email,
			"role":      p.Role,
			"status":    p.Status(),
			"createdAt": p.CreatedAt,
		})
	}
	return utils.Success(c, fiber.StatusOK, rows)
}

func (h *UsersHandler) ApprovePending(c *fiber.Ctx) error {
	pendingID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid pending user id")
	}

	user, err := h.Users.ApproveUser(c.UserContext(), middleware.GetCurrentUser(c), pendingID)
	if err != nil {
		return respondError(c, err, "approve_user")
	}
	return utils.Success(c, fiber.StatusOK, user)
}

func (h *UsersHandler) RejectPending(c *fiber.Ctx) error {
	pendingID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid pending user id")
	}

	if err := h.Users.RejectUser(c.UserContext(), middleware.GetCurrentUser(c), pendingID); err != nil {
		return respondError(c, err, "reject_user")
	}
	return utils.Message(c, "signup rejected")
}
