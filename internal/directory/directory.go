package directory

import (
	"context"
	"fmt"

	"github.com/Dton04/hoterier-cli/internal/models"
)

// API is the slice of the REST client the directory needs.
type API interface {
	Conversations(ctx context.Context) ([]models.Conversation, error)
	CreateConversation(ctx context.Context, targetUserID, hotelID string) (models.Conversation, error)
	JoinConversation(ctx context.Context, conversationID string) error
	AllUsers(ctx context.Context) ([]models.User, error)
	SearchUsers(ctx context.Context, query string) ([]models.User, error)
}

// Directory lists and creates conversations for the current identity. It is
// fetched once per session mount; callers re-fetch for stronger freshness.
type Directory struct {
	api API
}

func New(api API) *Directory {
	return &Directory{api: api}
}

// List returns the viewer's conversations.
func (d *Directory) List(ctx context.Context) ([]models.Conversation, error) {
	return d.api.Conversations(ctx)
}

// CreateWithUser requests a conversation against a target user id.
func (d *Directory) CreateWithUser(ctx context.Context, targetUserID string) (models.Conversation, error) {
	if targetUserID == "" {
		return models.Conversation{}, fmt.Errorf("target user id is required")
	}
	return d.api.CreateConversation(ctx, targetUserID, "")
}

// CreateWithHotel requests a support conversation for a hotel.
func (d *Directory) CreateWithHotel(ctx context.Context, hotelID string) (models.Conversation, error) {
	if hotelID == "" {
		return models.Conversation{}, fmt.Errorf("hotel id is required")
	}
	return d.api.CreateConversation(ctx, "", hotelID)
}

// Join registers server-side room membership; the server makes it idempotent.
func (d *Directory) Join(ctx context.Context, conversationID string) error {
	return d.api.JoinConversation(ctx, conversationID)
}

// Users lists the directory for staff/admin conversation initiation.
func (d *Directory) Users(ctx context.Context) ([]models.User, error) {
	return d.api.AllUsers(ctx)
}

// SearchUsers filters the directory by query.
func (d *Directory) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	return d.api.SearchUsers(ctx, query)
}
