package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sangwon4052/sangwon-sign-off/internal/middleware"
	"github.com/sangwon4052/sangwon-sign-off/internal/notify"
	"github.com/sangwon4052/sangwon-sign-off/internal/services"
	"github.com/sangwon4052/sangwon-sign-off/internal/storage"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Users         *services.UserService
	Approvals     *services.ApprovalService
	Notifications *services.NotificationService
	Dashboard     *services.DashboardService
	Audit         *services.AuditService
	Attachments   *storage.Attachments
	Notifier      *notify.Notifier
}

func RegisterRoutes(app *fiber.App, d Deps) {
	authHandler := NewAuthHandler(d.Users)
	usersHandler := NewUsersHandler(d.Users)
	approvalsHandler := NewApprovalsHandler(d.Approvals, d.Attachments)
	notificationsHandler := NewNotificationsHandler(d.Notifications, d.Notifier)
	dashboardHandler := NewDashboardHandler(d.Dashboard)
	auditHandler := NewAuditHandler(d.Audit)

	authMiddleware := middleware.NewAuthMiddleware(d.Users)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/signup", authHandler.Signup)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/logout", authMiddleware.RequireAuth, authHandler.Logout)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)

	api.Get("/dashboard", authMiddleware.RequireAuth, dashboardHandler.Get)
	api.Get("/approvers", authMiddleware.RequireAuth, approvalsHandler.Approvers)

	approvalRoutes := api.Group("/approvals", authMiddleware.RequireAuth)
	approvalRoutes.Post("/", approvalsHandler.Create)
	approvalRoutes.Get("/", approvalsHandler.List)
	approvalRoutes.Get("/:id", approvalsHandler.Get)
	approvalRoutes.Post("/:id/process", approvalsHandler.Process)
	approvalRoutes.Get("/:id/files/:index", approvalsHandler.DownloadFile)
	approvalRoutes.Get("/:id/signed-files/:index", approvalsHandler.DownloadSignedFile)

	notificationRoutes := api.Group("/notifications", authMiddleware.RequireAuth)
	notificationRoutes.Get("/", notificationsHandler.List)
	notificationRoutes.Get("/unread-count", notificationsHandler.UnreadCount)
	notificationRoutes.Get("/stream", notificationsHandler.Stream)
	notificationRoutes.Put("/read-all", notificationsHandler.MarkAllRead)
	notificationRoutes.Put("/:id/read", notificationsHandler.MarkRead)
	notificationRoutes.Delete("/", notificationsHandler.ClearAll)
	notificationRoutes.Delete("/:id", notificationsHandler.Delete)

	userRoutes := api.Group("/users", authMiddleware.RequireAuth, middleware.AdminOnly)
	userRoutes.Get("/", usersHandler.List)
	userRoutes.Post("/", usersHandler.Register)
	userRoutes.Put("/:id/role", usersHandler.ChangeRole)
	userRoutes.Delete("/:id", usersHandler.Delete)

	pendingRoutes := api.Group("/pending-users", authMiddleware.RequireAuth, middleware.AdminOnly)
	pendingRoutes.Get("/", usersHandler.ListPending)
	pendingRoutes.Post("/:id/approve", usersHandler.ApprovePending)
	pendingRoutes.Delete("/:id", usersHandler.RejectPending)

	api.Get("/audit-logs", authMiddleware.RequireAuth, middleware.AdminOnly, auditHandler.List)
}
