package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/Dton04/hoterier-cli/internal/chat"
	"github.com/Dton04/hoterier-cli/internal/client"
	"github.com/Dton04/hoterier-cli/internal/directory"
	"github.com/Dton04/hoterier-cli/internal/logger"
	"github.com/Dton04/hoterier-cli/internal/notify"
	"github.com/Dton04/hoterier-cli/internal/realtime"
	"github.com/Dton04/hoterier-cli/internal/session"
	tuimodels "github.com/Dton04/hoterier-cli/internal/tui/models"
)

const feedRefreshInterval = 5 * time.Minute

func main() {
	_ = godotenv.Load()
	logger.Init()

	tokenFlag := flag.String("token", "", "save a bearer token to the session store and exit")
	logoutFlag := flag.Bool("logout", false, "clear the stored session and exit")
	adminFlag := flag.String("support-admin", "", "persist the default support admin id and exit")
	flag.Parse()

	store := session.NewStore()

	if *logoutFlag {
		if err := store.Clear(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to clear session: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Signed out.")
		return
	}

	if *tokenFlag != "" || *adminFlag != "" {
		if err := updateSession(store, *tokenFlag, *adminFlag); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		fmt.Println("Session saved.")
		return
	}

	record, err := store.Load()
	if err != nil {
		logger.Log.WithError(err).Warn("could not read session record, continuing anonymously")
	}
	identity := record.Identity()

	apiClient, err := client.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot reach the Hoterier server: %v\n", err)
		os.Exit(1)
	}
	apiClient.SetToken(identity.Token)

	// One socket per authenticated session; anonymous sessions stay REST-only.
	var transport *realtime.Transport
	if !identity.Anonymous() {
		transport, err = realtime.New(os.Getenv("HOTERIER_SERVER_URL"), identity.Token)
		if err != nil {
			logger.Log.WithError(err).Warn("realtime channel unavailable, running REST-only")
			transport = nil
		}
	}

	sync := notify.New(apiClient, notify.NewFileStore(notify.DefaultSnapshotPath()), identity)
	sync.HydrateFromCache()

	sess := chat.NewSession(apiClient, transportOrNil(transport))
	defer sess.Close()

	if transport != nil {
		unbind := sync.Bind(transport)
		defer unbind()
		transport.Connect()
		defer transport.Close()
	} else {
		// No connect event will ever trigger the pull; do it here.
		if err := sync.PullFeed(context.Background()); err != nil {
			logger.Log.WithError(err).Debug("initial feed pull failed")
		}
	}
	sync.StartAutoRefresh(feedRefreshInterval)
	defer sync.Stop()

	deps := tuimodels.Deps{
		Identity:       identity,
		Directory:      directory.New(apiClient),
		Session:        sess,
		Sync:           sync,
		SupportAdminID: supportAdminID(record),
	}

	program := tea.NewProgram(tuimodels.NewConversationsModel(deps), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func updateSession(store *session.Store, token, adminID string) error {
	record, err := store.Load()
	if err != nil {
		record = session.Record{}
	}
	if token != "" {
		identity, err := session.IdentityFromToken(token)
		if err != nil {
			return fmt.Errorf("invalid token: %w", err)
		}
		record.UserID = identity.UserID
		record.Role = identity.Role
		record.Token = token
	}
	if adminID != "" {
		record.SupportAdminID = adminID
	}
	return store.Save(record)
}

func supportAdminID(record session.Record) string {
	if record.SupportAdminID != "" {
		return record.SupportAdminID
	}
	return os.Getenv("HOTERIER_SUPPORT_ADMIN_ID")
}

// transportOrNil keeps a typed nil out of the chat.Transport interface.
func transportOrNil(t *realtime.Transport) chat.Transport {
	if t == nil {
		return nil
	}
	return t
}
