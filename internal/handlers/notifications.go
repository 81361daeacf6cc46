package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sangwon4052/sangwon-sign-off/internal/middleware"
	"github.com/sangwon4052/sangwon-sign-off/internal/models"
	"github.com/sangwon4052/sangwon-sign-off/internal/notify"
	"github.com/sangwon4052/sangwon-sign-off/internal/services"
	"github.com/sangwon4052/sangwon-sign-off/pkg/logger"
	"github.com/sangwon4052/sangwon-sign-off/pkg/utils"
)

const streamHeartbeat = 25 * time.Second

type NotificationsHandler struct {
	Notifications *services.NotificationService
	Notifier      *notify.Notifier
}

func NewNotificationsHandler(notifications *services.NotificationService, notifier *notify.Notifier) *NotificationsHandler {
	return &NotificationsHandler{Notifications: notifications, Notifier: notifier}
}

func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)
	rows, err := h.Notifications.List(c.UserContext(), middleware.GetCurrentUser(c))
	if err != nil {
		return respondError(c, err, "list_notifications")
	}
	if c.QueryBool("unread", false) {
		unread := make([]models.Notification, 0, len(rows))
		for _, n := range rows {
			if !n.Read {
				unread = append(unread, n)
			}
		}
		rows = unread
	}
	return utils.Paginated(c, utils.Paginate(rows, p), p.Page, p.Limit, int64(len(rows)))
}

func (h *NotificationsHandler) UnreadCount(c *fiber.Ctx) error {
	count, err := h.Notifications.UnreadCount(c.UserContext(), middleware.GetCurrentUser(c))
	if err != nil {
		return respondError(c, err, "count_notifications")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"count": count})
}

func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid notification id")
	}
	n, err := h.Notifications.MarkRead(c.UserContext(), middleware.GetCurrentUser(c), id)
	if err != nil {
		return respondError(c, err, "mark_notification_read")
	}
	return utils.Success(c, fiber.StatusOK, n)
}

func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	changed, err := h.Notifications.MarkAllRead(c.UserContext(), middleware.GetCurrentUser(c))
	if err != nil {
		return respondError(c, err, "mark_notifications_read")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"updated": changed})
}

func (h *NotificationsHandler) Delete(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid notification id")
	}
	if err := h.Notifications.Delete(c.UserContext(), middleware.GetCurrentUser(c), id); err != nil {
		return respondError(c, err, "delete_notification")
	}
	return utils.Message(c, "notification deleted")
}

func (h *NotificationsHandler) ClearAll(c *fiber.Ctx) error {
	removed, err := h.Notifications.ClearAll(c.UserContext(), middleware.GetCurrentUser(c))
	if err != nil {
		return respondError(c, err, "clear_notifications")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": removed})
}

// Stream pushes new notifications to the caller as server-sent events.
func (h *NotificationsHandler) Stream(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if !h.Notifier.Enabled() {
		return utils.Error(c, fiber.StatusServiceUnavailable, "live notifications are not enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan models.Notification, 16)
	err := h.Notifier.Subscribe(ctx, currentUser.ID, func(n models.Notification) {
		select {
		case events <- n:
		default:
			logger.WarnWithUser(currentUser.ID.String(), "notification_stream_dropped", map[string]interface{}{
				"notification_id": n.ID.String(),
			})
		}
	})
	if err != nil {
		cancel()
		return utils.Error(c, fiber.StatusServiceUnavailable, "live notifications are unavailable")
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	userID := currentUser.ID.String()
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		logger.InfoWithUser(userID, "notification_stream_opened", nil)

		ticker := time.NewTicker(streamHeartbeat)
		defer ticker.Stop()

		fmt.Fprint(w, "event: ready\ndata: {}\n\n")
		if err := w.Flush(); err != nil {
			return
		}
		for {
			select {
			case n := <-events:
				payload, err := json.Marshal(n)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: notification\nid: %s\ndata: %s\n\n", n.ID, payload)
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			}
			if err := w.Flush(); err != nil {
				logger.InfoWithUser(userID, "notification_stream_closed", nil)
				return
			}
		}
	})
	return nil
}
