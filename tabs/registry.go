// Package tabs answers "is this the last open tab?" without a server, by
// keeping a shared list of open-tab identifiers in origin-scoped storage.
// When removing an identifier empties the list, the registry fires its
// OnEmpty hook - the mechanism by which closing the application's last tab
// logs the user out even without explicit action.
package tabs

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cleanflow/go-client-session/kvstore"
)

const (
	// DefaultRegistryKey is the shared entry holding the open-tab id list.
	DefaultRegistryKey = "cleanflow_tabs"

	// DefaultTabKey is the tab-scoped entry holding this tab's own id.
	DefaultTabKey = "tab_id"

	// DefaultReconcileInterval is how often the registry re-checks that its
	// own id is still listed.
	DefaultReconcileInterval = 30 * time.Second
)

// Registry tracks this tab's membership in the shared open-tab list.
//
// Every update is a read-modify-write with no transactional guarantee, so
// two tabs closing simultaneously can lose an update. The reconciler bounds
// the damage: a wrongly removed id is re-added within one interval, and a
// missed last-tab detection only means the session lives until its expiry.
// Storage failures are swallowed and logged - the feature degrades to
// "sessions persist until explicit logout" rather than crashing.
type Registry struct {
	shared      kvstore.Store // origin-scoped, visible to every tab
	local       kvstore.Store // tab-scoped, holds only this tab's id
	registryKey string
	tabKey      string
	id          string
	onEmpty     func()
	interval    time.Duration
	logger      zerolog.Logger

	stopChan chan struct{}
	wg       sync.WaitGroup
	once     sync.Once // Prevent double-close panic on Stop()
}

type RegistryOption func(*Registry)

// WithOnEmpty sets the hook fired when removing this tab's id leaves the
// registry empty.
func WithOnEmpty(hook func()) RegistryOption {
	return func(r *Registry) {
		r.onEmpty = hook
	}
}

// WithReconcileInterval sets the self-healing check interval.
func WithReconcileInterval(interval time.Duration) RegistryOption {
	return func(r *Registry) {
		r.interval = interval
	}
}

// WithRegistryKey overrides the shared list entry name.
func WithRegistryKey(key string) RegistryOption {
	return func(r *Registry) {
		r.registryKey = key
	}
}

// WithTabKey overrides the tab-scoped id entry name.
func WithTabKey(key string) RegistryOption {
	return func(r *Registry) {
		r.tabKey = key
	}
}

// WithLogger sets the logger used for swallowed storage failures.
func WithLogger(logger zerolog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates a registry for one tab. A fresh random id is generated
// and stored in the tab-scoped store; a v4 UUID's collision odds across
// concurrently opening tabs are negligible, which is all last-tab detection
// needs.
func NewRegistry(shared, local kvstore.Store, options ...RegistryOption) *Registry {
	r := &Registry{
		shared:      shared,
		local:       local,
		registryKey: DefaultRegistryKey,
		tabKey:      DefaultTabKey,
		id:          uuid.New().String(),
		interval:    DefaultReconcileInterval,
		logger:      zerolog.Nop(),
		stopChan:    make(chan struct{}),
	}
	for _, opt := range options {
		opt(r)
	}
	if err := r.local.Set(r.tabKey, r.id); err != nil {
		r.logger.Warn().Err(err).Msg("failed storing tab id")
	}
	return r
}

// ID returns this tab's identifier.
func (r *Registry) ID() string {
	return r.id
}

// AddSelf appends this tab's id to the shared list. Registration is
// append-only and does not deduplicate other tabs' entries; only "empty"
// matters downstream.
func (r *Registry) AddSelf() {
	ids, ok := r.readList()
	if !ok {
		return
	}
	r.writeList(append(ids, r.id))
}

// RemoveSelf removes this tab's id from the shared list. If the resulting
// list is empty, the registry entry is deleted and the OnEmpty hook fires.
// Safe to call more than once: unload signals are delivered redundantly.
// When the registry cannot be read the removal is skipped entirely - a
// session outliving its ideal logout point beats a spurious teardown.
func (r *Registry) RemoveSelf() {
	ids, ok := r.readList()
	if !ok {
		return
	}

	remaining := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != r.id {
			remaining = append(remaining, id)
		}
	}

	if len(remaining) > 0 {
		r.writeList(remaining)
		return
	}

	if err := r.shared.Delete(r.registryKey); err != nil {
		r.logger.Warn().Err(err).Msg("failed deleting tab registry entry")
	}
	if r.onEmpty != nil {
		r.onEmpty()
	}
}

// IsEmpty reports whether no tab id is currently registered. An unreadable
// registry counts as non-empty so nothing downstream tears a session down
// on a storage failure.
func (r *Registry) IsEmpty() bool {
	ids, ok := r.readList()
	return ok && len(ids) == 0
}

// Reconcile re-inserts this tab's id if a previous unload handler removed it
// erroneously while the tab is in fact still open.
func (r *Registry) Reconcile() {
	storedID, present, err := r.local.Get(r.tabKey)
	if err != nil || !present {
		return
	}
	ids, ok := r.readList()
	if !ok {
		return
	}
	for _, id := range ids {
		if id == storedID {
			return
		}
	}
	r.logger.Debug().Str("tab_id", storedID).Msg("re-adding missing tab id to registry")
	r.writeList(append(ids, storedID))
}

// StartReconciler runs Reconcile on a fixed interval until the context is
// cancelled or Stop is called.
func (r *Registry) StartReconciler(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stopChan:
				return
			case <-ticker.C:
				r.Reconcile()
			}
		}
	}()
}

// Stop stops the reconciler goroutine and waits for it to exit.
// Safe to call multiple times.
func (r *Registry) Stop() {
	r.once.Do(func() {
		close(r.stopChan)
	})
	r.wg.Wait()
}

// readList returns the registered ids and whether the registry was
// readable. A missing or malformed entry reads as an empty list; only a
// storage failure reports not-ok.
func (r *Registry) readList() ([]string, bool) {
	raw, ok, err := r.shared.Get(r.registryKey)
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed reading tab registry")
		return nil, false
	}
	if !ok {
		return nil, true
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		r.logger.Debug().Err(err).Msg("malformed tab registry entry, treating as empty")
		return nil, true
	}
	return ids, true
}

func (r *Registry) writeList(ids []string) {
	data, err := json.Marshal(ids)
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed serializing tab registry")
		return
	}
	if err := r.shared.Set(r.registryKey, string(data)); err != nil {
		r.logger.Warn().Err(err).Msg("failed writing tab registry")
	}
}
