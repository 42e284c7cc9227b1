package main

import (
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/cobra"

	"roomsync/feed"
	"roomsync/identity"
	"roomsync/internal"
	"roomsync/repositories"
	"roomsync/runtime"
	"roomsync/services"
)

// app holds the wired components shared by the commands. Setup happens
// lazily in the root command's PersistentPreRunE so that a plain --help
// never touches the database.
type app struct {
	config internal.Config
	log    *slog.Logger

	db       *badger.DB
	local    *feed.Local
	profiles *identity.Store
	service  *services.RoomService
}

func newApp(config internal.Config) *app {
	return &app{
		config: config,
		log:    logs.GetLoggerFromString(config.LogLevel),
	}
}

func (a *app) setup() error {
	db, err := badger.Open(badger.DefaultOptions(a.config.DataDir).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	a.db = db

	store := repositories.NewFeedStore(db, a.log)
	a.local = feed.NewLocal(a.log, feed.WithStore(store))
	a.profiles = identity.NewStore(db, a.log)

	me := a.profiles.Resolve()
	name := a.profiles.DisplayName()
	if name == "" {
		name = shortName(me.ID)
	}

	session := runtime.NewSession(a.log, a.local.Connect(), me, name, a.config.MessageRetention)
	a.service = services.NewRoomService(a.log, session, a.profiles)
	return nil
}

func (a *app) teardown() {
	if a.db != nil {
		a.log.Info("Closing database")
		_ = a.db.Close()
		a.db = nil
	}
}

// shortName derives a readable default from the identity when no display
// name was configured yet.
func shortName(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return "guest-" + id
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "roomchat",
		Short:         "Create or join a room and exchange messages in near-real time",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	root.AddCommand(
		newCreateCmd(a),
		newJoinCmd(a),
		newNameCmd(a),
	)
	return root
}
