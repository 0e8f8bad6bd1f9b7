package auth

import (
	"github.com/rs/zerolog/log"

	"github.com/cleanflow/go-client-session/internal/config"
	"github.com/cleanflow/go-client-session/kvstore"
	"github.com/cleanflow/go-client-session/kvstore/memstore"
	"github.com/cleanflow/go-client-session/relations"
	"github.com/cleanflow/go-client-session/sessions"
	"github.com/cleanflow/go-client-session/tabs"
	"github.com/cleanflow/go-client-session/token"
)

// Tab bundles the per-tab object graph: the controller plus the stores and
// registry it runs on.
type Tab struct {
	Controller *Controller
	Registry   *tabs.Registry
	Sessions   *sessions.Store
}

// OpenTab wires up everything one tab needs. The shared store is the
// origin-scoped storage every tab of the application points at; local holds
// this tab's private state and defaults to a fresh in-memory store, the
// tab-scoped scoping most hosts want. Wiring several tabs onto one local
// store reproduces the duplicated-tab case where they see the same session
// entry.
func OpenTab(cfg config.Config, shared, local kvstore.Store, verifier Verifier, loader relations.Loader, options ...ControllerOption) (*Tab, error) {
	if local == nil {
		local = memstore.New()
	}

	issuer := token.New(
		token.NewHMACSigner(cfg.GetSigningSecret()),
		token.WithExpiry(cfg.GetSessionTTL()),
		token.WithIssuer(cfg.GetAppName()),
	)

	sessionStore := sessions.NewStore(local,
		sessions.WithKey(cfg.GetSessionKey()),
		sessions.WithLogger(log.With().Str("component", "sessions").Logger()),
	)

	registry := tabs.NewRegistry(shared, local,
		tabs.WithRegistryKey(cfg.GetRegistryKey()),
		tabs.WithTabKey(cfg.GetTabKey()),
		tabs.WithReconcileInterval(cfg.GetReconcileInterval()),
		tabs.WithLogger(log.With().Str("component", "tabs").Logger()),
		tabs.WithOnEmpty(func() {
			if err := sessionStore.Clear(); err != nil {
				log.Warn().Err(err).Msg("failed clearing session on last tab close")
			}
		}),
	)

	controller, err := New(Deps{
		Verifier:  verifier,
		Relations: loader,
		Sessions:  sessionStore,
		Tabs:      registry,
		Tokens:    issuer,
	}, options...)
	if err != nil {
		return nil, err
	}

	return &Tab{
		Controller: controller,
		Registry:   registry,
		Sessions:   sessionStore,
	}, nil
}
