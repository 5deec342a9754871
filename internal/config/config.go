package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/wesm/agendaview/internal/filter"
	"github.com/wesm/agendaview/internal/source"
	"github.com/wesm/agendaview/internal/window"
)

const (
	configFileName = "config.json"
	defaultEnvFile = ".env"
)

// Config holds all application configuration. It is loaded once
// at startup and passed explicitly.
type Config struct {
	Host            string          `json:"host"`
	Port            int             `json:"port"`
	DataDir         string          `json:"-"`
	WriteTimeout    time.Duration   `json:"-"`
	Timezone        string          `json:"timezone"`
	RefreshInterval time.Duration   `json:"-"`
	SourceKind      source.Kind     `json:"source"`
	ClientID        string          `json:"client_id"`
	SpreadsheetID   string          `json:"spreadsheet_id"`
	SheetName       string          `json:"sheet_name"`
	SheetsToken     string          `json:"-"`
	SheetsBaseURL   string          `json:"sheets_base_url,omitempty"`
	SourcePath      string          `json:"source_path,omitempty"`
	SQLiteTable     string          `json:"sqlite_table,omitempty"`
	TimeMode        filter.Kind     `json:"time_mode"`
	BusinessHours   window.Schedule `json:"business_hours"`
}

// Default returns a Config with default values.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf(
			"determining home directory: %w", err,
		)
	}
	return Config{
		Host:            "127.0.0.1",
		Port:            8080,
		DataDir:         filepath.Join(home, ".agendaview"),
		WriteTimeout:    30 * time.Second,
		Timezone:        "UTC",
		RefreshInterval: 300 * time.Second,
		SourceKind:      source.KindMock,
		SheetName:       "entrada",
		TimeMode:        filter.KindRules,
		BusinessHours:   window.DefaultSchedule(),
	}, nil
}

// Load builds a Config by layering: defaults < config file <
// .env < environment < flags. The provided FlagSet must already
// be parsed by the caller. Only flags that were explicitly set
// override the lower layers.
func Load(fs *flag.FlagSet) (Config, error) {
	cfg, err := LoadMinimal()
	if err != nil {
		return cfg, err
	}
	applyFlags(&cfg, fs)
	return cfg, nil
}

// LoadMinimal builds a Config from defaults, config file, .env
// and environment, without parsing CLI flags. Use this for
// subcommands that manage their own flag sets.
func LoadMinimal() (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	env, err := newEnv()
	if err != nil {
		return cfg, fmt.Errorf("loading env file: %w", err)
	}
	if v := env.get("AGENDAVIEW_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if err := cfg.loadFile(); err != nil {
		return cfg, fmt.Errorf("loading config file: %w", err)
	}
	cfg.loadEnv(env)
	cfg.BusinessHours = cfg.BusinessHours.Clean()
	return cfg, nil
}

// env resolves variables from the process environment, falling
// back to a .env file.
type env struct {
	file map[string]string
}

func newEnv() (env, error) {
	path := os.Getenv("AGENDAVIEW_ENV_FILE")
	if path == "" {
		path = defaultEnvFile
	}
	vals, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return env{}, nil
	}
	if err != nil {
		return env{}, fmt.Errorf("%s: %w", path, err)
	}
	return env{file: vals}, nil
}

func (e env) get(key string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return e.file[key]
}

func (c *Config) configPath() string {
	return filepath.Join(c.DataDir, configFileName)
}

func (c *Config) loadFile() error {
	data, err := os.ReadFile(c.configPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var file struct {
		Host            string          `json:"host"`
		Port            int             `json:"port"`
		Timezone        string          `json:"timezone"`
		RefreshInterval int             `json:"refresh_interval_seconds"`
		SourceKind      source.Kind     `json:"source"`
		ClientID        string          `json:"client_id"`
		SpreadsheetID   string          `json:"spreadsheet_id"`
		SheetName       string          `json:"sheet_name"`
		SheetsBaseURL   string          `json:"sheets_base_url"`
		SourcePath      string          `json:"source_path"`
		SQLiteTable     string          `json:"sqlite_table"`
		TimeMode        string          `json:"time_mode"`
		BusinessHours   window.Schedule `json:"business_hours"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	setString(&c.Host, file.Host)
	if file.Port > 0 {
		c.Port = file.Port
	}
	setString(&c.Timezone, file.Timezone)
	if file.RefreshInterval > 0 {
		c.RefreshInterval = time.Duration(file.RefreshInterval) * time.Second
	}
	if file.SourceKind != "" {
		c.SourceKind = file.SourceKind
	}
	setString(&c.ClientID, file.ClientID)
	setString(&c.SpreadsheetID, file.SpreadsheetID)
	setString(&c.SheetName, file.SheetName)
	setString(&c.SheetsBaseURL, file.SheetsBaseURL)
	setString(&c.SourcePath, file.SourcePath)
	setString(&c.SQLiteTable, file.SQLiteTable)
	c.TimeMode = filter.ParseKind(file.TimeMode, c.TimeMode)
	if file.BusinessHours != nil {
		c.BusinessHours = file.BusinessHours
	}
	return nil
}

func (c *Config) loadEnv(e env) {
	setString(&c.Timezone, e.get("AGENDAVIEW_TIMEZONE"))
	if v := e.get("AGENDAVIEW_SOURCE"); v != "" {
		c.SourceKind = source.Kind(strings.ToLower(v))
	}
	setString(&c.ClientID, e.get("GOOGLE_CLIENT_ID"))
	setString(&c.SpreadsheetID, e.get("AGENDAVIEW_SPREADSHEET_ID"))
	setString(&c.SheetName, e.get("AGENDAVIEW_SHEET_NAME"))
	setString(&c.SheetsToken, e.get("GOOGLE_OAUTH_TOKEN"))
	setString(&c.SheetsBaseURL, e.get("AGENDAVIEW_SHEETS_URL"))
	setString(&c.SourcePath, e.get("AGENDAVIEW_SOURCE_PATH"))
	setString(&c.SQLiteTable, e.get("AGENDAVIEW_SQLITE_TABLE"))
	c.TimeMode = filter.ParseKind(e.get("AGENDAVIEW_TIME_MODE"), c.TimeMode)
	if v := e.get("AGENDAVIEW_REFRESH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.RefreshInterval = d
		}
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// RegisterServeFlags registers serve-command flags on fs.
// The caller must call fs.Parse before passing fs to Load.
func RegisterServeFlags(fs *flag.FlagSet) {
	fs.String("host", "127.0.0.1", "Host to bind to")
	fs.Int("port", 8080, "Port to listen on")
	RegisterSourceFlags(fs)
}

// RegisterSourceFlags registers the data source flags shared by
// every subcommand.
func RegisterSourceFlags(fs *flag.FlagSet) {
	fs.String("source", "", "Data source: sheets, csv, json, sqlite, mock")
	fs.String("path", "", "File path for csv, json and sqlite sources")
	fs.String("table", "", "Table name for the sqlite source")
	fs.String("tz", "", "Display timezone (IANA name)")
	fs.String("mode", "", "Time constraint mode: rules or business_hours")
}

// applyFlags copies explicitly-set flags from fs into cfg.
func applyFlags(cfg *Config, fs *flag.FlagSet) {
	if fs == nil {
		return
	}
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.String()
		switch f.Name {
		case "host":
			cfg.Host = v
		case "port":
			// flag already validated the int; ignore parse error
			cfg.Port, _ = strconv.Atoi(v)
		case "source":
			cfg.SourceKind = source.Kind(strings.ToLower(v))
		case "path":
			cfg.SourcePath = v
		case "table":
			cfg.SQLiteTable = v
		case "tz":
			cfg.Timezone = v
		case "mode":
			cfg.TimeMode = filter.ParseKind(v, cfg.TimeMode)
		}
	})
}

// Location returns the display timezone, falling back to UTC
// when Timezone does not name a known zone.
func (c Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SourceSettings returns the adapter settings for the configured
// source.
func (c Config) SourceSettings() source.Settings {
	return source.Settings{
		Kind:          c.SourceKind,
		ClientID:      c.ClientID,
		SpreadsheetID: c.SpreadsheetID,
		SheetName:     c.SheetName,
		Token:         c.SheetsToken,
		BaseURL:       c.SheetsBaseURL,
		Path:          c.SourcePath,
		Table:         c.SQLiteTable,
	}
}

// SourceFields is the user-editable part of the Sheets source
// settings.
type SourceFields struct {
	ClientID      string `json:"client_id"`
	SpreadsheetID string `json:"spreadsheet_id"`
	SheetName     string `json:"sheet_name"`
}

// Source returns the current user-editable source fields.
func (c Config) Source() SourceFields {
	return SourceFields{
		ClientID:      c.ClientID,
		SpreadsheetID: c.SpreadsheetID,
		SheetName:     c.SheetName,
	}
}

// SaveSource persists the source fields to the config file,
// preserving unknown keys, and returns the updated Config.
func (c Config) SaveSource(f SourceFields) (Config, error) {
	if err := c.mergeFile(map[string]any{
		"client_id":      f.ClientID,
		"spreadsheet_id": f.SpreadsheetID,
		"sheet_name":     f.SheetName,
	}); err != nil {
		return c, err
	}
	c.ClientID = f.ClientID
	c.SpreadsheetID = f.SpreadsheetID
	c.SheetName = f.SheetName
	return c, nil
}

func (c Config) mergeFile(updates map[string]any) error {
	if err := os.MkdirAll(c.DataDir, 0o700); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	existing := make(map[string]any)
	data, err := os.ReadFile(c.configPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(data, &existing); err != nil {
			return fmt.Errorf(
				"existing config is invalid, cannot update: %w",
				err,
			)
		}
	}

	for k, v := range updates {
		existing[k] = v
	}
	out, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(c.configPath(), out, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
