package config

import (
	"os"
	"time"
)

type SessionConfig interface {
	GetSigningSecret() string
	GetSessionTTL() time.Duration
	GetReconcileInterval() time.Duration
	GetSessionKey() string
	GetRegistryKey() string
	GetTabKey() string
}

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetSigningSecret() string {
	return GetEnv("SESSION_SECRET", "dev-only-secret")
}

// GetSessionTTL returns the session lifetime. Sessions expire 24 hours after
// login regardless of tab activity.
func (Session) GetSessionTTL() time.Duration {
	return getDuration("SESSION_TTL", 24*time.Hour)
}

// GetReconcileInterval returns how often a tab re-checks its registry entry.
func (Session) GetReconcileInterval() time.Duration {
	return getDuration("RECONCILE_INTERVAL", 30*time.Second)
}

func (Session) GetSessionKey() string {
	return GetEnv("SESSION_KEY", "cleanflow_session")
}

func (Session) GetRegistryKey() string {
	return GetEnv("TABS_KEY", "cleanflow_tabs")
}

func (Session) GetTabKey() string {
	return GetEnv("TAB_ID_KEY", "tab_id")
}

func getDuration(envVar string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(envVar)
	if raw == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return parsed
}
