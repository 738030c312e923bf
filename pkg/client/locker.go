package client

import (
	"context"
	"net/url"
	"time"

	apperrors "yellowbox/pkg/errors"
	"yellowbox/pkg/model"
)

// LockerClient translates booking coordination intents into calls against the
// locker service. Each call is a single blocking request with a bounded
// timeout; there are no retries and no circuit breaking.
type LockerClient struct {
	httpClient *HttpClient
}

func NewLockerClient(baseURL string, timeout time.Duration, maxResponseSize int64) *LockerClient {
	httpClient := NewHttpClient(baseURL, timeout)
	if maxResponseSize > 0 {
		httpClient.MaxResponseSize = maxResponseSize
	}
	return &LockerClient{httpClient: httpClient}
}

func (c *LockerClient) GetStatus(ctx context.Context, lockerID string) (string, error) {
	path := "/api/v1/lockers/" + url.PathEscape(lockerID) + "/status"
	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return "", apperrors.Internal("Locker service request failed", err)
	}
	if resp.StatusCode == 404 {
		return "", apperrors.NotFoundWithID("Locker", lockerID)
	}
	if !resp.IsSuccess() {
		return "", apperrors.Remote("locker", resp.StatusCode, resp.Body)
	}

	var wrapper struct {
		Data model.Locker `json:"data"`
	}
	if err := resp.DecodeJSON(&wrapper); err != nil {
		return "", apperrors.Internal("Failed to decode locker status response", err)
	}
	return wrapper.Data.Status, nil
}

// SetStatus unconditionally writes the locker status. Used for release, where
// setting an already-available locker back to available is harmless and keeps
// the forward-recovery path of end-booking idempotent on the locker side.
func (c *LockerClient) SetStatus(ctx context.Context, lockerID, status string) error {
	return c.patchStatus(ctx, lockerID, model.LockerStatusUpdate{Status: status})
}

// SetStatusIf writes the locker status only if the locker currently holds
// expected. A lost race surfaces as a CONFLICT error.
func (c *LockerClient) SetStatusIf(ctx context.Context, lockerID, expected, status string) error {
	return c.patchStatus(ctx, lockerID, model.LockerStatusUpdate{
		Status:         status,
		ExpectedStatus: expected,
	})
}

func (c *LockerClient) patchStatus(ctx context.Context, lockerID string, update model.LockerStatusUpdate) error {
	path := "/api/v1/lockers/" + url.PathEscape(lockerID) + "/status"
	resp, err := c.httpClient.PATCH(ctx, path, update)
	if err != nil {
		return apperrors.Internal("Locker service request failed", err)
	}

	switch {
	case resp.IsSuccess():
		return nil
	case resp.StatusCode == 404:
		return apperrors.NotFoundWithID("Locker", lockerID)
	case resp.StatusCode == 409:
		return apperrors.Conflict(GetErrorMessage(resp))
	default:
		return apperrors.Remote("locker", resp.StatusCode, resp.Body)
	}
}
