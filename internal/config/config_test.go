package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("TALENT_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadAppliesDefaultsAndOverrides(t *testing.T) {
	t.Setenv("TALENT_JWT_SECRET", "secret")
	t.Setenv("TALENT_APP_PUBLIC_ORIGIN", "https://deals.example.com/")
	t.Setenv("TALENT_MAIL_MAX_ATTEMPTS", "5")
	t.Setenv("TALENT_ANALYTICS_CACHE_TTL", "30s")
	t.Setenv("TALENT_PIPELINE_REVOKE_PREVIOUS_LINKS", "false")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://deals.example.com", cfg.PublicOrigin)
	require.Equal(t, 5, cfg.MailMaxAttempts)
	require.Equal(t, 30*time.Second, cfg.AnalyticsCacheTTL)
	require.Equal(t, 5*time.Second, cfg.StoreTimeout)
	require.True(t, cfg.EnforceStageWeights)
	require.False(t, cfg.RevokePreviousLinks)
	require.Equal(t, ":8080", cfg.HTTPAddress())
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	t.Setenv("TALENT_JWT_SECRET", "secret")
	t.Setenv("TALENT_STORE_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
}
