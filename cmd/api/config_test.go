package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ADMIN_NUMBER", "919000000001, 919000000002")

	cfg, err := ReadConfig("missing.toml")
	require.NoError(t, err)

	assert.Equal(t, []string{"919000000001", "919000000002"}, cfg.AdminNumbers)
	assert.Equal(t, 8080, cfg.HttpPort)
	assert.Equal(t, "91", cfg.DefaultCountryCode)
	assert.Equal(t, "excel", cfg.LogStore)
	assert.Equal(t, 60*time.Second, cfg.RenderTimeout)
	assert.Equal(t, 5*time.Minute, cfg.CancelTTL)
	assert.Equal(t, 2*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
}

func TestReadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_port = 9090
admin_numbers = ["919000000001"]
log_store = "postgres"
cancel_ttl = "10m"
verify_token = "from-file"
`), 0o644))
	t.Setenv("VERIFY_TOKEN", "from-env")

	cfg, err := ReadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HttpPort)
	assert.Equal(t, "postgres", cfg.LogStore)
	assert.Equal(t, 10*time.Minute, cfg.CancelTTL)
	assert.Equal(t, "from-env", cfg.VerifyToken)
}

func TestReadConfigDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ADMIN_NUMBER=919000000009\nPHONE_NUMBER_ID=555\n"), 0o644))
	t.Setenv("ADMIN_NUMBER", "")
	t.Setenv("PHONE_NUMBER_ID", "")
	os.Unsetenv("ADMIN_NUMBER")
	os.Unsetenv("PHONE_NUMBER_ID")

	cfg, err := ReadConfig("")
	require.NoError(t, err)
	assert.Equal(t, []string{"919000000009"}, cfg.AdminNumbers)
	assert.Equal(t, "555", cfg.PhoneNumberID)
}

func TestReadConfigRequiresAdmin(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ADMIN_NUMBER", "")

	_, err := ReadConfig("")
	assert.Error(t, err)
}

func TestReadConfigBadDuration(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`admin_numbers = ["919000000001"]
sweep_interval = "often"`), 0o644))

	_, err := ReadConfig(path)
	assert.Error(t, err)
}
