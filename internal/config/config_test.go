package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ModeOffline, c.Mode)
	require.Equal(t, ":8080", c.HTTPAddr)
	require.Equal(t, "sqlite", c.DBDriver)
	require.Equal(t, "fs", c.BlobDriver)
	require.Equal(t, 5*time.Minute, c.RedisTTL)
	require.Equal(t, 1, c.GradingMaxEdit)
	require.Equal(t, "local", c.SiteID)
	require.True(t, c.SeedDemo)
	require.Equal(t, []string{"http://localhost:3000", "http://localhost:3010"}, c.CORSOrigins())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quiz.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default_question: capitals
db:
  driver: memory
cors:
  origins_offline: [http://a.test, http://b.test]
grading:
  max_edit: 2
`), 0o644))

	t.Setenv("QUIZ_DB_DRIVER", "postgres")
	t.Setenv("QUIZ_CLIENT_TIMEOUT", "3s")

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "capitals", c.DefaultQuestion)
	require.Equal(t, "postgres", c.DBDriver)
	require.Equal(t, 2, c.GradingMaxEdit)
	require.Equal(t, 3*time.Second, c.ClientTimeout)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, c.CORSOriginsOffline)
}

func TestLoad_Rejects(t *testing.T) {
	t.Chdir(t.TempDir())
	cases := map[string]string{
		"QUIZ_MODE":        "hybrid",
		"QUIZ_DB_DRIVER":   "mysql",
		"QUIZ_BLOB_DRIVER": "gcs",
		"QUIZ_SEED_WATCH":  "true",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			_, err := Load("")
			require.Error(t, err)
		})
	}

	t.Run("online needs a secret", func(t *testing.T) {
		t.Setenv("QUIZ_MODE", "online")
		_, err := Load("")
		require.ErrorContains(t, err, "hmac_secret")
	})
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
