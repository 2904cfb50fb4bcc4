package models

import (
	"github.com/Dton04/hoterier-cli/internal/chat"
	"github.com/Dton04/hoterier-cli/internal/directory"
	"github.com/Dton04/hoterier-cli/internal/notify"
	appmodels "github.com/Dton04/hoterier-cli/internal/models"
)

// Deps bundles everything the screens share. The identity is an injected
// snapshot, not an ambient global, so screens can be constructed with fakes.
type Deps struct {
	Identity  appmodels.Identity
	Directory *directory.Directory
	Session   *chat.Session
	Sync      *notify.Synchronizer
	// SupportAdminID is the configured default counterpart for guest-initiated
	// support conversations. Empty disables initiation with an explanation.
	SupportAdminID string
}
