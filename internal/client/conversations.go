package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/patrickmn/go-cache"

	"github.com/Dton04/hoterier-cli/internal/models"
)

const conversationsCacheKey = "conversations"

// Conversations lists the viewer's conversations, serving a short-lived cached
// copy when available.
func (c *APIClient) Conversations(ctx context.Context) ([]models.Conversation, error) {
	if v, ok := c.cache.Get(conversationsCacheKey); ok {
		if convs, ok := v.([]models.Conversation); ok {
			// Return a copy to avoid external mutation of the cached slice.
			cp := append([]models.Conversation(nil), convs...)
			return cp, nil
		}
	}

	body, err := c.get(ctx, "/chats/conversations")
	if err != nil {
		return nil, err
	}
	var convs []models.Conversation
	if err := json.Unmarshal(body, &convs); err != nil {
		return nil, err
	}
	cp := append([]models.Conversation(nil), convs...)
	c.cache.Set(conversationsCacheKey, cp, cache.DefaultExpiration)
	return convs, nil
}

// CreateConversation requests a conversation against a target user or hotel.
// The server owns conversation identity; the returned id is only cached.
func (c *APIClient) CreateConversation(ctx context.Context, targetUserID, hotelID string) (models.Conversation, error) {
	data := map[string]any{}
	if targetUserID != "" {
		data["targetUserId"] = targetUserID
	}
	if hotelID != "" {
		data["hotelId"] = hotelID
	}
	body, err := c.post(ctx, "/chats/conversations", data)
	if err != nil {
		return models.Conversation{}, err
	}
	var conv models.Conversation
	if err := json.Unmarshal(body, &conv); err != nil {
		return models.Conversation{}, err
	}
	c.cache.Delete(conversationsCacheKey)
	return conv, nil
}

// JoinConversation registers server-side room membership. Idempotent.
func (c *APIClient) JoinConversation(ctx context.Context, conversationID string) error {
	_, err := c.post(ctx, fmt.Sprintf("/chats/conversations/%s/join", conversationID), nil)
	if err == nil {
		c.cache.Delete(conversationsCacheKey)
	}
	return err
}
