package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unset clears key for the test and restores it afterwards.
func unset(t *testing.T, keys ...string) {
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	unset(t, "PT_SERVER", "PT_PORT", "PT_SCENARIO", "PT_SIDE", "PT_RFQ_SYMBOLS", "PT_CONFIRM_BACKOFF", "PT_CANCEL_ORDER")

	cfg := FromEnv()
	assert.Equal(t, 2021, cfg.Port)
	assert.Equal(t, "PT-OE", cfg.TargetCompID)
	assert.Equal(t, 30, cfg.LogonEpochs)
	assert.Equal(t, 5*time.Second, cfg.ConfirmBackoff)
	assert.True(t, cfg.CancelOrder)
	assert.Equal(t, "sell", cfg.Trading.Side)
	assert.Equal(t, []string{"ETH-USD", "SOL-USD", "DOGE-USD"}, cfg.Trading.RFQTopics)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PT_PORT", "4000")
	t.Setenv("PT_SCENARIO", "rfq_listen")
	t.Setenv("PT_CONFIRM_BACKOFF", "2")
	t.Setenv("PT_LOGON_BACKOFF", "250ms")
	t.Setenv("PT_CANCEL_ORDER", "false")
	t.Setenv("PT_RFQ_SYMBOLS", " BTC-USD, ,ETH-USD ")

	cfg := FromEnv()
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, ScenarioRFQListen, cfg.Scenario)
	assert.Equal(t, 2*time.Second, cfg.ConfirmBackoff)
	assert.Equal(t, 250*time.Millisecond, cfg.LogonBackoff)
	assert.False(t, cfg.CancelOrder)
	assert.Equal(t, []string{"BTC-USD", "ETH-USD"}, cfg.Trading.RFQTopics)
}

func TestValidate_ReportsAllMissing(t *testing.T) {
	cfg := &Config{Scenario: ScenarioRFQQuote}

	err := cfg.Validate()
	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{"PT_SERVER", "PT_API_KEY", "PT_PEM_FILE", "PT_PUBLISH_EPOCH"}, cfgErr.Missing)

	cfg = &Config{Server: "fix.example.com", APIKey: "k", PemFile: "key.pem", Scenario: ScenarioOrder}
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ReadsDotenvWithoutOverriding(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.test"),
		[]byte("PT_SERVER=dotenv.example.com\nPT_API_KEY=from-file\n"), 0600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	unset(t, "PT_SERVER")
	t.Setenv("PT_API_KEY", "from-env")

	cfg, err := Load("test")
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "dotenv.example.com", cfg.Server)
	assert.Equal(t, "from-env", cfg.APIKey)
}

func TestLoad_MissingFileTolerated(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	_, err = Load("production")
	require.NoError(t, err)

	_, err = Load("staging")
	assert.Error(t, err)
}
