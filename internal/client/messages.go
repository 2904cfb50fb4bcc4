package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Dton04/hoterier-cli/internal/models"
)

// Messages fetches the full history of one conversation. No pagination; the
// server returns the whole thread.
func (c *APIClient) Messages(ctx context.Context, conversationID string) ([]models.Message, error) {
	body, err := c.get(ctx, fmt.Sprintf("/chats/conversations/%s/messages", conversationID))
	if err != nil {
		return nil, err
	}
	var msgs []models.Message
	if err := json.Unmarshal(body, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendMessage posts a text message over REST and returns the stored message.
func (c *APIClient) SendMessage(ctx context.Context, conversationID, content string) (models.Message, error) {
	body, err := c.post(ctx, fmt.Sprintf("/chats/conversations/%s/messages", conversationID), map[string]any{
		"content": content,
	})
	if err != nil {
		return models.Message{}, err
	}
	var msg models.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// SendImage uploads an image attachment with an optional caption. Always a
// REST round-trip; there is no realtime path for attachments.
func (c *APIClient) SendImage(ctx context.Context, conversationID, filename string, file io.Reader, caption string) (models.Message, error) {
	body, err := c.postMultipart(ctx,
		fmt.Sprintf("/chats/conversations/%s/messages/image", conversationID),
		filename, file, map[string]string{"content": caption})
	if err != nil {
		return models.Message{}, err
	}
	var msg models.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}
