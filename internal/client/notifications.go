package client

import (
	"context"
	"encoding/json"

	"github.com/Dton04/hoterier-cli/internal/models"
)

// NotificationFeed fetches the authenticated notification feed.
func (c *APIClient) NotificationFeed(ctx context.Context) ([]models.Notification, error) {
	body, err := c.get(ctx, "/notifications/feed")
	if err != nil {
		return nil, err
	}
	return decodeNotifications(body)
}

// PublicLatest fetches the anonymous feed. The endpoint historically returns
// either a list or a single latest item; both shapes are accepted.
func (c *APIClient) PublicLatest(ctx context.Context) ([]models.Notification, error) {
	body, err := c.get(ctx, "/notifications/public/latest")
	if err != nil {
		return nil, err
	}
	return decodeNotifications(body)
}

func decodeNotifications(body []byte) ([]models.Notification, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var list []models.Notification
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}
	var single models.Notification
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, err
	}
	if single.ID == "" {
		return nil, nil
	}
	return []models.Notification{single}, nil
}
