package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 0.2, cfg.Monitoring.RelevanceThreshold)
	assert.Equal(t, 0.25, cfg.Monitoring.HighRelevanceThreshold)
	assert.Equal(t, 50, cfg.Monitoring.MaxPostsPerSubreddit)
	assert.Equal(t, 72, cfg.Monitoring.MaxPostAgeHours)
	assert.Equal(t, time.Second, cfg.Monitoring.PacingDelay())
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	raw := `
server:
  addr: ":9090"
monitoring:
  keywords: [gtm, "go to market"]
  relevanceThreshold: 0.3
ai:
  provider: gemini
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	t.Setenv(configPathEnv, path)
	t.Setenv(aiProviderEnv, "GROQ")
	t.Setenv(keywordsEnv, "launch, positioning , ")
	t.Setenv(slackWebhookEnv, "https://hooks.slack.com/services/T/B/x")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 0.3, cfg.Monitoring.RelevanceThreshold)
	// Unset in file and env, so the default survives the merge.
	assert.Equal(t, 0.25, cfg.Monitoring.HighRelevanceThreshold)
	// Env wins over the file value and is normalized.
	assert.Equal(t, "groq", cfg.AI.Provider)
	assert.Equal(t, []string{"launch", "positioning"}, cfg.Monitoring.Keywords)
	assert.Equal(t, "https://hooks.slack.com/services/T/B/x", cfg.Slack.WebhookURL)
}

func TestLoadSurvivesBrokenConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0o644))

	t.Setenv(configPathEnv, path)

	cfg := Load()
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestBindTimezoneFallsBackToUTC(t *testing.T) {
	cfg := defaultConfig()
	cfg.Scheduler.Timezone = "Not/AZone"
	cfg.bindTimezone()

	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
}
