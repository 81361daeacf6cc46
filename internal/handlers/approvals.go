package handlers

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sangwon4052/sangwon-sign-off/internal/middleware"
	"github.com/sangwon4052/sangwon-sign-off/internal/models"
	"github.com/sangwon4052/sangwon-sign-off/internal/services"
	"github.com/sangwon4052/sangwon-sign-off/internal/storage"
	"github.com/sangwon4052/sangwon-sign-off/pkg/logger"
	"github.com/sangwon4052/sangwon-sign-off/pkg/utils"
)

type ApprovalsHandler struct {
	Approvals   *services.ApprovalService
	Attachments *storage.Attachments
}

func NewApprovalsHandler(approvals *services.ApprovalService, attachments *storage.Attachments) *ApprovalsHandler {
	return &ApprovalsHandler{Approvals: approvals, Attachments: attachments}
}

type submitRequest struct {
	Title              string              `json:"title"`
	Description        string              `json:"description"`
	AssignedApproverID string              `json:"assignedApproverId"`
	Files              []models.Attachment `json:"files"`
}

// Create accepts either a JSON body with data URI attachments or a
// multipart form with one or more "files" parts.
func (h *ApprovalsHandler) Create(c *fiber.Ctx) error {
	var req submitRequest
	multipartBody := isMultipart(c)

	if multipartBody {
		req.Title = c.FormValue("title")
		req.Description = c.FormValue("description")
		req.AssignedApproverID = c.FormValue("assignedApproverId")
	} else if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	approverID := uuid.Nil
	if strings.TrimSpace(req.AssignedApproverID) != "" {
		parsed, err := parseUUID(req.AssignedApproverID)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid assignedApproverId")
		}
		approverID = parsed
	}

	in := services.SubmitInput{
		Title:              req.Title,
		Description:        req.Description,
		AssignedApproverID: approverID,
	}
	currentUser := middleware.GetCurrentUser(c)

	// Nothing is written to blob storage for a request that would be refused.
	if err := h.Approvals.CheckSubmit(c.UserContext(), currentUser, in); err != nil {
		return respondError(c, err, "submit_approval")
	}

	var err error
	if multipartBody {
		in.Files, err = h.ingestForm(c, "files")
	} else {
		in.Files, err = inlineAttachments(req.Files)
	}
	if err != nil {
		return respondError(c, err, "upload_files")
	}

	approval, err := h.Approvals.SubmitRequest(c.UserContext(), currentUser, in)
	if err != nil {
		h.Attachments.Discard(c.UserContext(), in.Files)
		return respondError(c, err, "submit_approval")
	}
	return utils.Success(c, fiber.StatusCreated, approval)
}

func (h *ApprovalsHandler) List(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)
	scope := strings.ToLower(strings.TrimSpace(c.Query("scope")))

	rows, err := h.Approvals.List(c.UserContext(), middleware.GetCurrentUser(c), scope)
	if err != nil {
		return respondError(c, err, "list_approvals")
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		rows = filterByStatus(rows, models.ApprovalStatus(status))
	}
	return utils.Paginated(c, utils.Paginate(rows, p), p.Page, p.Limit, int64(len(rows)))
}

func (h *ApprovalsHandler) Get(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid approval id")
	}

	approval, err := h.Approvals.Get(c.UserContext(), middleware.GetCurrentUser(c), id)
	if err != nil {
		return respondError(c, err, "get_approval")
	}
	return utils.Success(c, fiber.StatusOK, approval)
}

type processRequest struct {
	Decision    string              `json:"decision"`
	Feedback    *string             `json:"feedback"`
	SignedFiles []models.Attachment `json:"signedFiles"`
}

func (h *ApprovalsHandler) Process(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid approval id")
	}

	var req processRequest
	var signed []models.Attachment
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid multipart form")
		}
		if values := form.Value["decision"]; len(values) > 0 {
			req.Decision = values[0]
		}
		if values, ok := form.Value["feedback"]; ok && len(values) > 0 {
			req.Feedback = &values[0]
		}
	} else {
		if err := c.BodyParser(&req); err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	decision, err := models.ParseDecision(req.Decision)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "decision must be approved or rejected")
	}

	currentUser := middleware.GetCurrentUser(c)
	if err := h.Approvals.CheckProcess(c.UserContext(), currentUser, id); err != nil {
		return respondError(c, err, "process_approval")
	}

	// Signed files only matter for approvals; a rejection stores none.
	if decision == models.DecisionApproved {
		if isMultipart(c) {
			signed, err = h.ingestForm(c, "signedFiles")
		} else {
			signed, err = inlineAttachments(req.SignedFiles)
		}
		if err != nil {
			return respondError(c, err, "upload_files")
		}
	}

	approval, err := h.Approvals.ProcessRequest(c.UserContext(), currentUser, id, services.ProcessInput{
		Decision:    decision,
		Feedback:    req.Feedback,
		SignedFiles: signed,
	})
	if err != nil {
		h.Attachments.Discard(c.UserContext(), signed)
		return respondError(c, err, "process_approval")
	}
	return utils.Success(c, fiber.StatusOK, approval)
}

func (h *ApprovalsHandler) DownloadFile(c *fiber.Ctx) error {
	return h.download(c, false)
}

func (h *ApprovalsHandler) DownloadSignedFile(c *fiber.Ctx) error {
	return h.download(c, true)
}

func (h *ApprovalsHandler) download(c *fiber.Ctx, signed bool) error {
	currentUser := middleware.GetCurrentUser(c)
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid approval id")
	}
	index, err := c.ParamsInt("index")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file index")
	}

	att, err := h.Approvals.Attachment(c.UserContext(), currentUser, id, signed, index)
	if err != nil {
		return respondError(c, err, "download_file")
	}

	body, contentType, err := h.Attachments.Open(c.UserContext(), *att)
	if err != nil {
		return respondError(c, err, "download_file")
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed reading file")
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(att.Name))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	logger.InfoWithUser(currentUser.ID.String(), "file_downloaded", map[string]interface{}{
		"approval_id": id.String(),
		"file_name":   att.Name,
		"signed":      signed,
		"file_size":   len(data),
	})

	c.Set("Content-Type", contentType)
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Name))
	return c.Send(data)
}

// Approvers lists the accounts a request can be assigned to.
func (h *ApprovalsHandler) Approvers(c *fiber.Ctx) error {
	approvers, err := h.Approvals.ListApprovers(c.UserContext())
	if err != nil {
		return respondError(c, err, "list_approvers")
	}

	rows := make([]fiber.Map, 0, len(approvers))
	for _, u := range approvers {
		rows = append(rows, fiber.Map{"id": u.ID, "name": u.Name, "email": u.Email, "role": u.Role})
	}
	return utils.Success(c, fiber.StatusOK, rows)
}

func (h *ApprovalsHandler) ingestForm(c *fiber.Ctx, field string) ([]models.Attachment, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, models.NewValidationError("invalid multipart form")
	}

	headers := form.File[field]
	out := make([]models.Attachment, 0, len(headers))
	for _, fh := range headers {
		att, err := h.ingestPart(c, fh)
		if err != nil {
			h.Attachments.Discard(c.UserContext(), out)
			return nil, err
		}
		out = append(out, att)
	}
	return out, nil
}

func (h *ApprovalsHandler) ingestPart(c *fiber.Ctx, fh *multipart.FileHeader) (models.Attachment, error) {
	stream, err := fh.Open()
	if err != nil {
		return models.Attachment{}, models.NewStoreError("open upload", err)
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return models.Attachment{}, models.NewStoreError("read upload", err)
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(fh.Filename))
	}
	return h.Attachments.Ingest(c.UserContext(), fh.Filename, contentType, data)
}

// inlineAttachments accepts only data URI handles from clients; blob
// references are issued by the server alone.
func inlineAttachments(files []models.Attachment) ([]models.Attachment, error) {
	out := make([]models.Attachment, 0, len(files))
	for _, f := range files {
		if _, _, err := storage.DecodeDataURI(f.ContentHandle); err != nil {
			return nil, models.NewValidationError("file " + strings.TrimSpace(f.Name) + " must be a data URI")
		}
		out = append(out, f)
	}
	return out, nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

func filterByStatus(rows []models.Approval, status models.ApprovalStatus) []models.Approval {
	out := make([]models.Approval, 0, len(rows))
	for _, a := range rows {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out
}
