// Command sessiondemo walks the session lifecycle end to end: it opens
// simulated tabs over one shared store, logs in on the first, restores the
// session elsewhere, then closes tabs one by one to show the last-tab
// teardown.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cleanflow/go-client-session/auth"
	"github.com/cleanflow/go-client-session/internal/config"
	"github.com/cleanflow/go-client-session/kvstore"
	"github.com/cleanflow/go-client-session/kvstore/memstore"
	"github.com/cleanflow/go-client-session/kvstore/sqlitestore"
	"github.com/cleanflow/go-client-session/relations"
	fakeloader "github.com/cleanflow/go-client-session/relations/loaderfake"
	"github.com/cleanflow/go-client-session/users"
	fakeuserrepo "github.com/cleanflow/go-client-session/users/repofake"
	"github.com/cleanflow/go-client-session/verifier"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("demo failed")
	}
}

func run() error {
	c := config.New()
	displayAppname(c.GetAppName())

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	shared, cleanup, err := openSharedStore(c)
	if err != nil {
		return err
	}
	defer cleanup()

	creds, loader, err := seedAccounts()
	if err != nil {
		return err
	}

	ctx := context.Background()

	// First tab: log in.
	tabA, err := auth.OpenTab(c, shared, nil, creds, loader)
	if err != nil {
		return err
	}
	tabA.Controller.Subscribe(func(state auth.State) {
		log.Info().Bool("authenticated", state.IsAuthenticated).Bool("loading", state.Loading).Msg("tab A state")
	})
	tabA.Controller.Init(ctx)

	if err := tabA.Controller.Login(ctx, "admin@cleanflow.com", "Admin1234"); err != nil {
		return err
	}
	log.Info().Str("route", tabA.Controller.DashboardRoute()).Msg("tab A logged in")

	// Second tab: sees the first tab in the registry, restores independently.
	tabB, err := auth.OpenTab(c, shared, nil, creds, loader)
	if err != nil {
		return err
	}
	tabB.Controller.Init(ctx)
	log.Info().Bool("registry_empty", tabB.Registry.IsEmpty()).Msg("tab B open")

	// Close tab B: one tab remains, session must survive.
	tabB.Controller.Dispose()
	log.Info().Bool("registry_empty", tabA.Registry.IsEmpty()).Msg("tab B closed")

	// Close tab A: last tab, registry deleted, session cleared.
	tabA.Controller.Dispose()
	log.Info().Bool("registry_empty", tabA.Registry.IsEmpty()).
		Bool("session_present", tabA.Sessions.Read() != nil).
		Msg("tab A closed - last tab teardown done")

	return nil
}

// openSharedStore uses the durable SQLite store when FOLDER is set, an
// in-memory one otherwise.
func openSharedStore(c config.Config) (kvstore.Store, func(), error) {
	if os.Getenv("FOLDER") == "" {
		return memstore.New(), func() {}, nil
	}
	store, err := sqlitestore.Open(filepath.Join(c.GetDataFolder(), "shared.db"))
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

func seedAccounts() (auth.Verifier, relations.Loader, error) {
	repo := fakeuserrepo.NewFakeUserRepo()

	hash, err := users.HashPassword("Admin1234")
	if err != nil {
		return nil, nil, err
	}
	now := time.Now()
	if err := repo.Upsert(&users.User{
		Email:        "admin@cleanflow.com",
		Username:     "admin",
		PasswordHash: hash,
		Name:         "Platform Admin",
		Role:         users.RoleAdmin,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		return nil, nil, err
	}

	creds, err := verifier.New(repo)
	if err != nil {
		return nil, nil, err
	}
	return creds, fakeloader.NewFakeLoader(), nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
