package api

import (
	"context"
	"fmt"
	"net/http"
)

// GetTaskStatus fetches the current status of a caption generation task.
func (c *Client) GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
	var resp TaskStatusResponse
	err := c.DoJSON(ctx, Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/tasks/%s/status", taskID),
	}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("server reported failure fetching status for task %s", taskID)
	}
	return &resp.Status, nil
}

// CancelTask requests cancellation of a running task.
func (c *Client) CancelTask(ctx context.Context, taskID string) (*ActionResponse, error) {
	var resp ActionResponse
	err := c.DoJSON(ctx, Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/api/tasks/%s/cancel", taskID),
	}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("cancel failed: %s", resp.Error)
	}
	return &resp, nil
}

// RetryTask re-invokes a failed task with its original parameters.
// The server re-creates the task and returns the new task ID.
func (c *Client) RetryTask(ctx context.Context, taskID string) (*ActionResponse, error) {
	var resp ActionResponse
	err := c.DoJSON(ctx, Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/api/tasks/%s/retry", taskID),
	}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("retry failed: %s", resp.Error)
	}
	return &resp, nil
}

// GetRedirectInfo fetches the review destination for a completed task.
// Results are cached; the destination of a completed task is stable.
func (c *Client) GetRedirectInfo(ctx context.Context, taskID string) (*RedirectInfo, error) {
	if cached, ok := c.redirects.Get(taskID); ok {
		info := cached.(RedirectInfo)
		return &info, nil
	}

	var resp RedirectInfoResponse
	err := c.DoJSON(ctx, Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/tasks/%s/redirect-info", taskID),
	}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("server reported failure fetching redirect info for task %s", taskID)
	}

	c.redirects.SetDefault(taskID, resp.RedirectInfo)
	return &resp.RedirectInfo, nil
}
