package sessions

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/cleanflow/go-client-session/kvstore"
)

// DefaultKey is the fixed entry name the serialized session lives under.
const DefaultKey = "cleanflow_session"

// Store persists one Session in a tab-scoped key/value store. Tabs do not
// share a live session object: each one restores and validates its own
// entry, so there is nothing to race on. Expiry is lazy - enforced at read
// time, never by a background timer.
type Store struct {
	kv      kvstore.Store
	key     string
	nowFunc func() time.Time
	logger  zerolog.Logger
}

type StoreOption func(*Store)

// WithKey overrides the storage entry name.
func WithKey(key string) StoreOption {
	return func(s *Store) {
		s.key = key
	}
}

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowFunc = now
	}
}

// WithLogger sets the logger used for swallowed storage failures.
func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

func NewStore(kv kvstore.Store, options ...StoreOption) *Store {
	s := &Store{
		kv:      kv,
		key:     DefaultKey,
		nowFunc: time.Now,
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Save overwrites any existing session entry.
func (s *Store) Save(session *Session) error {
	if session == nil || session.User == nil || session.Token == "" {
		return errors.New("[Store.Save] session must be fully populated")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "[Store.Save] serializing session")
	}
	if err := s.kv.Set(s.key, string(data)); err != nil {
		return errors.Wrap(err, "[Store.Save] writing session entry")
	}
	return nil
}

// Read returns the current session, or nil when no entry exists, the entry
// fails to parse, or the session has expired. Malformed data is treated
// identically to "no session"; an expired entry is deleted as a side effect.
func (s *Store) Read() *Session {
	raw, ok, err := s.kv.Get(s.key)
	if err != nil {
		s.logger.Warn().Err(err).Msg("session read failed, treating as absent")
		return nil
	}
	if !ok {
		return nil
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		s.logger.Debug().Err(err).Msg("malformed session entry, treating as absent")
		return nil
	}
	if session.User == nil || session.Token == "" {
		s.logger.Debug().Msg("incomplete session entry, treating as absent")
		return nil
	}

	if session.Expired(s.nowFunc()) {
		if err := s.kv.Delete(s.key); err != nil {
			s.logger.Warn().Err(err).Msg("failed deleting expired session entry")
		}
		return nil
	}
	return &session
}

// Clear deletes the session entry. Idempotent.
func (s *Store) Clear() error {
	if err := s.kv.Delete(s.key); err != nil {
		return errors.Wrap(err, "[Store.Clear] deleting session entry")
	}
	return nil
}
