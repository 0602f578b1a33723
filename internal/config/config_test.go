package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/simonvc/ledgerbook/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults when no file or env", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("HOME", t.TempDir())

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "ledger.db", cfg.Book)
		assert.Equal(t, ledger.StandardEnterprise2018, cfg.Standard)
		assert.Equal(t, "warn", cfg.Log.Level)
		assert.Equal(t, "console", cfg.Log.Format)
		assert.Equal(t, "stderr", cfg.Log.Output)
		assert.Equal(t, "127.0.0.1:8888", cfg.Server.Addr)
	})

	t.Run("file in working directory", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		t.Setenv("HOME", t.TempDir())
		writeFile(t, filepath.Join(dir, "ledgerbook.yaml"), `
book: acme.db
standard: 小企业会计准则
log:
  level: debug
  format: json
server:
  addr: ":9000"
`)

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "acme.db", cfg.Book)
		assert.Equal(t, ledger.StandardSmallBusiness, cfg.Standard)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "json", cfg.Log.Format)
		assert.Equal(t, "stderr", cfg.Log.Output)
		assert.Equal(t, ":9000", cfg.Server.Addr)
	})

	t.Run("env overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.yaml")
		writeFile(t, path, "book: file.db\nlog:\n  level: info\n")
		t.Setenv("LEDGERBOOK_BOOK", "env.db")
		t.Setenv("LEDGERBOOK_LOG_LEVEL", "error")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "env.db", cfg.Book)
		assert.Equal(t, "error", cfg.Log.Level)
	})

	t.Run("explicit missing file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("unknown standard", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("HOME", t.TempDir())
		t.Setenv("LEDGERBOOK_STANDARD", "GAAP")

		_, err := Load("")
		assert.ErrorIs(t, err, ledger.ErrInvalidStandard)
	})

	t.Run("unknown log format", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("HOME", t.TempDir())
		t.Setenv("LEDGERBOOK_LOG_FORMAT", "xml")

		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestLogConfig(t *testing.T) {
	lc := LogConfig{Level: "debug", Format: "json", Output: "stdout"}.Logger()
	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, "json", lc.Format)
	assert.Equal(t, "stdout", lc.Output)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
