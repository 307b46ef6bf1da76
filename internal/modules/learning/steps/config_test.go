package steps

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPipelineConfigDefaults(t *testing.T) {
	cfg, err := LoadPipelineConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPipelineConfig(), cfg)
	assert.Equal(t, 8, cfg.Search.TopK)
	assert.Equal(t, 600*time.Millisecond, cfg.Expander.RetryBackoff)
}

func TestLoadPipelineConfigOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
search:
  top_k: 5
writer:
  parallel: 4
expander:
  retry_backoff: 2s
`), 0o600))

	cfg, err := LoadPipelineConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Search.TopK)
	assert.Equal(t, 0.3, cfg.Search.ScoreMin)
	assert.Equal(t, 4, cfg.Writer.Parallel)
	assert.Equal(t, 10, cfg.Writer.MaxLessons)
	assert.Equal(t, 2*time.Second, cfg.Expander.RetryBackoff)
}

func TestLoadPipelineConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("writer:\n  parallel: 0\n"), 0o600))
	_, err := LoadPipelineConfig(path)
	require.Error(t, err)

	_, err = LoadPipelineConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
