package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dton04/hoterier-cli/internal/models"
)

func supportConversation(withHotel bool) models.Conversation {
	conv := models.Conversation{
		ID: "c1",
		Participants: []models.Participant{
			{User: models.User{ID: "guest-1", Name: "Minh Pham", Avatar: "/a/minh.png"}},
			{User: models.User{ID: "staff-1", Name: "An Tran", Role: models.RoleStaff}},
		},
	}
	if withHotel {
		conv.Hotel = &models.Hotel{
			ID:        "hotel-1",
			Name:      "Hoterier Saigon Central",
			ImageURLs: []string{"/img/front.jpg", "/img/lobby.jpg"},
		}
	}
	return conv
}

func TestGuestSeesHotelIdentityWhenAttached(t *testing.T) {
	got := ResolveCounterpart(supportConversation(true), "guest-1", models.RoleUser)

	assert.True(t, got.IsHotel)
	assert.Equal(t, "hotel-1", got.ID)
	assert.Equal(t, "Hoterier Saigon Central", got.Name)
	// First hotel image serves as the avatar.
	assert.Equal(t, "/img/front.jpg", got.Avatar)
}

func TestGuestFallsBackToHumanCounterpart(t *testing.T) {
	got := ResolveCounterpart(supportConversation(false), "guest-1", models.RoleUser)

	assert.False(t, got.IsHotel)
	assert.Equal(t, "staff-1", got.ID)
	assert.Equal(t, "An Tran", got.Name)
	assert.Nil(t, got.Hotel)
}

func TestStaffSeesGuestWithHotelMetadata(t *testing.T) {
	got := ResolveCounterpart(supportConversation(true), "staff-1", models.RoleStaff)

	assert.False(t, got.IsHotel)
	assert.Equal(t, "guest-1", got.ID)
	assert.Equal(t, "Minh Pham", got.Name)
	if assert.NotNil(t, got.Hotel) {
		assert.Equal(t, "hotel-1", got.Hotel.ID)
	}
}

func TestAdminGetsStaffView(t *testing.T) {
	got := ResolveCounterpart(supportConversation(true), "staff-1", models.RoleAdmin)
	assert.Equal(t, "guest-1", got.ID)
	assert.False(t, got.IsHotel)
}

func TestStaffWithNoCounterpartFallsBackToHotel(t *testing.T) {
	conv := models.Conversation{
		ID:           "c1",
		Participants: []models.Participant{{User: models.User{ID: "staff-1"}}},
		Hotel:        &models.Hotel{ID: "hotel-1", Name: "Hoterier Saigon Central"},
	}

	got := ResolveCounterpart(conv, "staff-1", models.RoleStaff)
	assert.True(t, got.IsHotel)
	assert.Equal(t, "hotel-1", got.ID)
	assert.Empty(t, got.Avatar)
}

func TestEmptyConversationResolvesToNothing(t *testing.T) {
	got := ResolveCounterpart(models.Conversation{ID: "c1"}, "guest-1", models.RoleUser)
	assert.Equal(t, DisplayIdentity{}, got)
}
