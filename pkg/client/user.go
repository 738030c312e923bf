package client

import (
	"context"
	"net/url"
	"time"

	apperrors "yellowbox/pkg/errors"
	"yellowbox/pkg/model"
)

// UserClient resolves user ids against the user directory service. A lookup
// miss is an absent record, not an error; only transport and unexpected
// responses fail.
type UserClient struct {
	httpClient *HttpClient
}

func NewUserClient(baseURL string, timeout time.Duration, maxResponseSize int64) *UserClient {
	httpClient := NewHttpClient(baseURL, timeout)
	if maxResponseSize > 0 {
		httpClient.MaxResponseSize = maxResponseSize
	}
	return &UserClient{httpClient: httpClient}
}

func (c *UserClient) GetByID(ctx context.Context, userID string) (*model.User, error) {
	path := "/api/v1/users/" + url.PathEscape(userID)
	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return nil, apperrors.Internal("User service request failed", err)
	}
	if resp.StatusCode == 404 {
		return nil, nil
	}
	if !resp.IsSuccess() {
		return nil, apperrors.Remote("user", resp.StatusCode, resp.Body)
	}

	var wrapper struct {
		Data model.User `json:"data"`
	}
	if err := resp.DecodeJSON(&wrapper); err != nil {
		return nil, apperrors.Internal("Failed to decode user response", err)
	}
	if wrapper.Data.ID == "" {
		return nil, nil
	}
	return &wrapper.Data, nil
}
