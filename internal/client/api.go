package client

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
)

func (c *Client) Signup(ctx context.Context, name, email, password, role string) (*PendingUser, error) {
	var resp Response[PendingUser]
	body := map[string]string{"name": name, "email": email, "password": password, "role": role}
	if err := c.Post(ctx, "/auth/signup", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var resp Response[LoginResult]
	if err := c.Post(ctx, "/auth/login", map[string]string{"email": email, "password": password}, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.Post(ctx, "/auth/logout", nil, nil)
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var resp Response[User]
	if err := c.Get(ctx, "/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) Dashboard(ctx context.Context) (*Dashboard, error) {
	var resp Response[Dashboard]
	if err := c.Get(ctx, "/dashboard", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) Approvers(ctx context.Context) ([]User, error) {
	var resp Response[[]User]
	if err := c.Get(ctx, "/approvers", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ListApprovals fetches one page of approvals in scope; empty scope and
// status use the server defaults.
func (c *Client) ListApprovals(ctx context.Context, scope, status string, page, limit int) ([]Approval, *Pagination, error) {
	params := url.Values{}
	if scope != "" {
		params.Set("scope", scope)
	}
	if status != "" {
		params.Set("status", status)
	}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var resp Response[[]Approval]
	if err := c.Get(ctx, "/approvals", params, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Data, resp.Pagination, nil
}

func (c *Client) GetApproval(ctx context.Context, id string) (*Approval, error) {
	var resp Response[Approval]
	if err := c.Get(ctx, "/approvals/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// SubmitApproval uploads the request and its files as one multipart form.
func (c *Client) SubmitApproval(ctx context.Context, title, description, approverID string, paths []string) (*Approval, error) {
	files := make([]FilePart, 0, len(paths))
	for _, p := range paths {
		files = append(files, FilePart{Field: "files", Path: p})
	}

	var resp Response[Approval]
	err := c.Upload(ctx, "/approvals", map[string]string{
		"title":              title,
		"description":        description,
		"assignedApproverId": approverID,
	}, files, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// ProcessApproval sends a decision. Signed files are only uploaded with an approval.
func (c *Client) ProcessApproval(ctx context.Context, id, decision string, feedback *string, signedPaths []string) (*Approval, error) {
	fields := map[string]string{"decision": decision}
	if feedback != nil {
		fields["feedback"] = *feedback
	}
	files := make([]FilePart, 0, len(signedPaths))
	for _, p := range signedPaths {
		files = append(files, FilePart{Field: "signedFiles", Path: p})
	}

	var resp Response[Approval]
	if err := c.Upload(ctx, "/approvals/"+url.PathEscape(id)+"/process", fields, files, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) DownloadAttachment(ctx context.Context, id string, index int, signed bool, dest io.Writer) (string, error) {
	kind := "files"
	if signed {
		kind = "signed-files"
	}
	return c.Download(ctx, fmt.Sprintf("/approvals/%s/%s/%d", url.PathEscape(id), kind, index), dest)
}

func (c *Client) Notifications(ctx context.Context, unreadOnly bool) ([]Notification, error) {
	params := url.Values{}
	if unreadOnly {
		params.Set("unread", "true")
	}
	params.Set("limit", "100")

	var resp Response[[]Notification]
	if err := c.Get(ctx, "/notifications", params, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	var resp Response[struct {
		Count int64 `json:"count"`
	}]
	if err := c.Get(ctx, "/notifications/unread-count", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Data.Count, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.Put(ctx, "/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) (int64, error) {
	var resp Response[struct {
		Updated int64 `json:"updated"`
	}]
	if err := c.Put(ctx, "/notifications/read-all", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Data.Updated, nil
}

func (c *Client) ClearNotifications(ctx context.Context) (int64, error) {
	var resp Response[struct {
		Deleted int64 `json:"deleted"`
	}]
	if err := c.Delete(ctx, "/notifications", &resp); err != nil {
		return 0, err
	}
	return resp.Data.Deleted, nil
}

func (c *Client) Users(ctx context.Context, role string) ([]User, error) {
	params := url.Values{}
	if role != "" {
		params.Set("role", role)
	}
	params.Set("limit", "100")

	var resp Response[[]User]
	if err := c.Get(ctx, "/users", params, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) RegisterUser(ctx context.Context, name, email, password, role string) (*User, error) {
	var resp Response[User]
	body := map[string]string{
		"name":            name,
		"email":           email,
		"password":        password,
		"passwordConfirm": password,
		"role":            role,
	}
	if err := c.Post(ctx, "/users", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) ChangeRole(ctx context.Context, id, role string) (*User, error) {
	var resp Response[User]
	if err := c.Put(ctx, "/users/"+url.PathEscape(id)+"/role", map[string]string{"role": role}, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.Delete(ctx, "/users/"+url.PathEscape(id), nil)
}

func (c *Client) PendingUsers(ctx context.Context) ([]PendingUser, error) {
	var resp Response[[]PendingUser]
	if err := c.Get(ctx, "/pending-users", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) ApprovePendingUser(ctx context.Context, id string) (*User, error) {
	var resp Response[User]
	if err := c.Post(ctx, "/pending-users/"+url.PathEscape(id)+"/approve", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) RejectPendingUser(ctx context.Context, id string) error {
	return c.Delete(ctx, "/pending-users/"+url.PathEscape(id), nil)
}
