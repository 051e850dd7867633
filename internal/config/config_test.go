package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dot-mike/ta-scripts/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load_FromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := `TA_URL=http://ta.example.com/
TA_API_TOKEN=secret-token
ES_HOST=http://es.example.com:9200
ES_USER=elastic
ES_PASSWORD=hunter2
IMPORT_PARALLELISM=8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	// Trailing slash is normalised away so URL joining stays simple.
	assert.Equal(t, "http://ta.example.com", cfg.TaURL)
	assert.Equal(t, "secret-token", cfg.TaAPIToken)
	assert.Equal(t, "http://es.example.com:9200", cfg.EsHost)
	assert.Equal(t, 8, cfg.ImportParallelism)
	assert.Equal(t, 2, cfg.APIThrottleSeconds)

	assert.NoError(t, cfg.RequireAPI())
	assert.NoError(t, cfg.RequireIndex())
}

func Test_Load_MissingExplicitFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.env"))
	assert.Error(t, err)
}

func Test_Load_InvalidURLRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TA_URL=not a url\n"), 0o600))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func Test_RequireGuards(t *testing.T) {
	cfg := &config.Config{}
	assert.ErrorIs(t, cfg.RequireAPI(), config.ErrAPINotConfigured)
	assert.ErrorIs(t, cfg.RequireIndex(), config.ErrIndexNotConfigured)

	cfg.TaURL = "http://ta.example.com"
	assert.ErrorIs(t, cfg.RequireAPI(), config.ErrAPINotConfigured)

	cfg.TaAPIToken = "token"
	assert.NoError(t, cfg.RequireAPI())
}
