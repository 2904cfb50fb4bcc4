package directory

import (
	"github.com/Dton04/hoterier-cli/internal/models"
)

// DisplayIdentity is what a conversation listing renders for "the other side".
type DisplayIdentity struct {
	ID      string
	Name    string
	Avatar  string
	IsHotel bool
	// Hotel context, attached as metadata when the human counterpart is shown.
	Hotel *models.Hotel
}

// ResolveCounterpart decides what a viewer sees as the other side of a
// conversation. Staff and admin views prefer the human counterpart with the
// hotel as metadata; guest views prefer the hotel identity when one is
// attached, else the counterpart. The logic lives here once, instead of being
// re-derived by every listing surface.
func ResolveCounterpart(conv models.Conversation, viewerID string, viewerRole models.Role) DisplayIdentity {
	counterpart, found := conv.Counterpart(viewerID)

	if viewerRole.IsStaff() {
		if found {
			return DisplayIdentity{
				ID:     counterpart.ID,
				Name:   counterpart.Name,
				Avatar: counterpart.Avatar,
				Hotel:  conv.Hotel,
			}
		}
		if conv.Hotel != nil {
			return hotelIdentity(conv.Hotel)
		}
		return DisplayIdentity{}
	}

	if conv.Hotel != nil {
		return hotelIdentity(conv.Hotel)
	}
	if found {
		return DisplayIdentity{
			ID:     counterpart.ID,
			Name:   counterpart.Name,
			Avatar: counterpart.Avatar,
		}
	}
	return DisplayIdentity{}
}

func hotelIdentity(hotel *models.Hotel) DisplayIdentity {
	avatar := ""
	if len(hotel.ImageURLs) > 0 {
		avatar = hotel.ImageURLs[0]
	}
	return DisplayIdentity{
		ID:      hotel.ID,
		Name:    hotel.Name,
		Avatar:  avatar,
		IsHotel: true,
		Hotel:   hotel,
	}
}
