package handlers

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sangwon4052/sangwon-sign-off/internal/services"
	"github.com/sangwon4052/sangwon-sign-off/pkg/utils"
)

const auditExportLimit = 10000

type AuditHandler struct {
	Audit *services.AuditService
}

func NewAuditHandler(audit *services.AuditService) *AuditHandler {
	return &AuditHandler{Audit: audit}
}

// List returns recent audit rows, newest first, as JSON or CSV.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	format := strings.ToLower(strings.TrimSpace(c.Query("format", "json")))
	if format != "csv" && format != "json" {
		return utils.Error(c, fiber.StatusBadRequest, "format must be csv or json")
	}

	var userID *uuid.UUID
	if raw := strings.TrimSpace(c.Query("userId")); raw != "" {
		parsed, err := parseUUID(raw)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid userId")
		}
		userID = &parsed
	}

	logs, err := h.Audit.Recent(c.UserContext(), userID, auditExportLimit)
	if err != nil {
		return respondError(c, err, "load_audit_log")
	}

	if format == "json" {
		p := utils.ParsePagination(c)
		return utils.Paginated(c, utils.Paginate(logs, p), p.Page, p.Limit, int64(len(logs)))
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "audit-log.csv"))

	writer := csv.NewWriter(c.Response().BodyWriter())
	_ = writer.Write([]string{"Timestamp", "Action", "Resource Type", "Resource ID", "User ID", "Details"})

	for _, log := range logs {
		resourceID := ""
		if log.ResourceID != nil {
			resourceID = log.ResourceID.String()
		}
		actor := ""
		if log.UserID != nil {
			actor = log.UserID.String()
		}

		keys := make([]string, 0, len(log.Details))
		for k := range log.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, log.Details[k]))
		}

		_ = writer.Write([]string{
			log.CreatedAt.Format(time.RFC3339),
			log.Action,
			log.ResourceType,
			resourceID,
			actor,
			strings.Join(parts, "; "),
		})
	}

	writer.Flush()
	return nil
}
