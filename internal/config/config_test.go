package config

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesm/agendaview/internal/filter"
	"github.com/wesm/agendaview/internal/source"
	"github.com/wesm/agendaview/internal/window"
)

var envKeys = []string{
	"AGENDAVIEW_TIMEZONE",
	"AGENDAVIEW_SOURCE",
	"GOOGLE_CLIENT_ID",
	"AGENDAVIEW_SPREADSHEET_ID",
	"AGENDAVIEW_SHEET_NAME",
	"GOOGLE_OAUTH_TOKEN",
	"AGENDAVIEW_SHEETS_URL",
	"AGENDAVIEW_SOURCE_PATH",
	"AGENDAVIEW_SQLITE_TABLE",
	"AGENDAVIEW_TIME_MODE",
	"AGENDAVIEW_REFRESH_INTERVAL",
}

// setupTestEnv points the data dir and env file at temp paths
// and clears every variable Load reads.
func setupTestEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AGENDAVIEW_DATA_DIR", dir)
	t.Setenv("AGENDAVIEW_ENV_FILE", filepath.Join(dir, ".env"))
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return dir
}

func writeConfig(t *testing.T, dir string, data any) {
	t.Helper()
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, configFileName), b, 0o600,
	))
}

func readConfigMap(t *testing.T, dir string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, configFileName))
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestLoadDefaults(t *testing.T) {
	dir := setupTestEnv(t)

	cfg, err := LoadMinimal()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, source.KindMock, cfg.SourceKind)
	assert.Equal(t, "entrada", cfg.SheetName)
	assert.Equal(t, filter.KindRules, cfg.TimeMode)
	assert.Equal(t, 300*time.Second, cfg.RefreshInterval)
	assert.Equal(t, window.DefaultSchedule(), cfg.BusinessHours)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadFileLayer(t *testing.T) {
	dir := setupTestEnv(t)
	writeConfig(t, dir, map[string]any{
		"port":                     9090,
		"timezone":                 "America/Sao_Paulo",
		"source":                   "csv",
		"source_path":              "/tmp/events.csv",
		"spreadsheet_id":           "sheet-123",
		"time_mode":                "business_hours",
		"refresh_interval_seconds": 60,
		"business_hours": map[string]any{
			"1": map[string]int{"start": 9, "end": 17},
			"9": map[string]int{"start": 9, "end": 17},
		},
	})

	cfg, err := LoadMinimal()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "America/Sao_Paulo", cfg.Timezone)
	assert.Equal(t, source.KindCSV, cfg.SourceKind)
	assert.Equal(t, "/tmp/events.csv", cfg.SourcePath)
	assert.Equal(t, "sheet-123", cfg.SpreadsheetID)
	assert.Equal(t, filter.KindBusinessHours, cfg.TimeMode)
	assert.Equal(t, time.Minute, cfg.RefreshInterval)
	assert.Equal(t, window.Schedule{1: {Start: 9, End: 17}},
		cfg.BusinessHours, "out-of-range weekday dropped")
}

func TestLoadInvalidFile(t *testing.T) {
	dir := setupTestEnv(t)
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, configFileName), []byte("{bad"), 0o600,
	))
	_, err := LoadMinimal()
	assert.ErrorContains(t, err, "parsing config")
}

func TestEnvOverridesFile(t *testing.T) {
	dir := setupTestEnv(t)
	writeConfig(t, dir, map[string]any{
		"source":     "csv",
		"sheet_name": "from-file",
	})
	t.Setenv("AGENDAVIEW_SOURCE", "SQLite")
	t.Setenv("AGENDAVIEW_SHEET_NAME", "from-env")
	t.Setenv("AGENDAVIEW_REFRESH_INTERVAL", "90s")

	cfg, err := LoadMinimal()
	require.NoError(t, err)
	assert.Equal(t, source.KindSQLite, cfg.SourceKind)
	assert.Equal(t, "from-env", cfg.SheetName)
	assert.Equal(t, 90*time.Second, cfg.RefreshInterval)
}

func TestDotEnvLayer(t *testing.T) {
	dir := setupTestEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(
		"GOOGLE_OAUTH_TOKEN=tok-from-file\n"+
			"AGENDAVIEW_SPREADSHEET_ID=from-dotenv\n",
	), 0o600))
	t.Setenv("AGENDAVIEW_SPREADSHEET_ID", "from-process")

	cfg, err := LoadMinimal()
	require.NoError(t, err)
	assert.Equal(t, "tok-from-file", cfg.SheetsToken)
	assert.Equal(t, "from-process", cfg.SpreadsheetID,
		"process env wins over .env")
}

func TestFlagsOverrideEverything(t *testing.T) {
	dir := setupTestEnv(t)
	writeConfig(t, dir, map[string]any{"port": 9090, "host": "0.0.0.0"})

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	RegisterServeFlags(fs)
	require.NoError(t, fs.Parse([]string{
		"-port", "7000", "-source", "json", "-mode", "business_hours",
		"-tz", "Europe/Lisbon",
	}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "0.0.0.0", cfg.Host, "unset flag keeps file value")
	assert.Equal(t, source.KindJSON, cfg.SourceKind)
	assert.Equal(t, filter.KindBusinessHours, cfg.TimeMode)
	assert.Equal(t, "Europe/Lisbon", cfg.Location().String())
}

func TestLocationFallback(t *testing.T) {
	assert.Equal(t, time.UTC, Config{Timezone: "Not/AZone"}.Location())
	assert.Equal(t, time.UTC, Config{}.Location())
}

func TestSourceSettings(t *testing.T) {
	cfg := Config{
		SourceKind:    source.KindSheets,
		ClientID:      "cid",
		SpreadsheetID: "sid",
		SheetName:     "entrada",
		SheetsToken:   "tok",
	}
	s := cfg.SourceSettings()
	assert.True(t, source.Ready(s))

	cfg.SpreadsheetID = ""
	assert.False(t, source.Ready(cfg.SourceSettings()))
}

func TestSaveSourcePreservesUnknownKeys(t *testing.T) {
	dir := setupTestEnv(t)
	writeConfig(t, dir, map[string]any{
		"custom_key": "keep me",
		"port":       9090,
	})
	cfg, err := LoadMinimal()
	require.NoError(t, err)

	updated, err := cfg.SaveSource(SourceFields{
		ClientID:      "cid",
		SpreadsheetID: "sid",
		SheetName:     "aba",
	})
	require.NoError(t, err)
	assert.Equal(t, "sid", updated.SpreadsheetID)
	assert.Empty(t, cfg.SpreadsheetID, "receiver is not modified")

	m := readConfigMap(t, dir)
	assert.Equal(t, "keep me", m["custom_key"])
	assert.Equal(t, float64(9090), m["port"])
	assert.Equal(t, "aba", m["sheet_name"])

	info, err := os.Stat(filepath.Join(dir, configFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reloaded, err := LoadMinimal()
	require.NoError(t, err)
	assert.Equal(t, updated.Source(), reloaded.Source())
}

func TestSaveSourceInvalidExisting(t *testing.T) {
	dir := setupTestEnv(t)
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, configFileName), []byte("not json"), 0o600,
	))
	cfg := Config{DataDir: dir}
	_, err := cfg.SaveSource(SourceFields{SheetName: "x"})
	assert.ErrorContains(t, err, "existing config is invalid")
}
