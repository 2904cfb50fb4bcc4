package client

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/Dton04/hoterier-cli/internal/models"
)

// AllUsers lists the user directory for staff/admin conversation initiation.
func (c *APIClient) AllUsers(ctx context.Context) ([]models.User, error) {
	body, err := c.get(ctx, "/users/allusers")
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SearchUsers filters the directory by a free-text query.
func (c *APIClient) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	body, err := c.get(ctx, "/users/search?q="+url.QueryEscape(query))
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, err
	}
	return users, nil
}
