package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livinlefevreloca/crmsync/internal/pipeline"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Remote.BaseURL = "https://api.example.com"

	assert.NoError(t, cfg.Validate())
}

func TestScheduleFor_Defaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultListSchedule, cfg.ScheduleFor(pipeline.FunnelsJobName))
	assert.Equal(t, DefaultListSchedule, cfg.ScheduleFor(pipeline.SalesRepsJobName))
	assert.Equal(t, DefaultOpportunitiesSchedule, cfg.ScheduleFor(pipeline.OpportunitiesJobName))
}

func TestScheduleFor_Override(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sync.Schedules[pipeline.FunnelsJobName] = "30 2 * * *"

	assert.Equal(t, "30 2 * * *", cfg.ScheduleFor(pipeline.FunnelsJobName))
	assert.Equal(t, DefaultListSchedule, cfg.ScheduleFor(pipeline.ColumnsJobName))
}

func TestLoadConfig_File(t *testing.T) {
	content := `
[database]
dsn = "test.db"

[remote]
base_url = "https://api.example.com"
api_token = "secret"
group_id = "g1"
page_size = 50

[sync]
timezone = "America/Sao_Paulo"

[sync.schedules]
"opportunities-sync" = "0 */2 * * *"

[logging]
level = "debug"
`
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "test.db", cfg.Database.DSN)
	assert.Equal(t, "sqlite3", cfg.Database.Driver, "defaults survive partial files")
	assert.Equal(t, "secret", cfg.Remote.APIToken)
	assert.Equal(t, 50, cfg.Remote.PageSize)
	assert.Equal(t, "0 */2 * * *", cfg.ScheduleFor(pipeline.OpportunitiesJobName))
	assert.Equal(t, "debug", cfg.Logging.Level)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Sao_Paulo", loc.String())

	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("/does/not/exist.toml")
	assert.Error(t, err)
}

func TestLoadConfig_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "crmsync.db", cfg.Database.DSN)
	assert.Equal(t, 100, cfg.Remote.PageSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Remote.PageDelay)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing base url", mutate: func(c *Config) { c.Remote.BaseURL = "" }},
		{name: "bad driver", mutate: func(c *Config) { c.Database.Driver = "postgres" }},
		{name: "empty dsn", mutate: func(c *Config) { c.Database.DSN = "" }},
		{name: "zero page size", mutate: func(c *Config) { c.Remote.PageSize = 0 }},
		{name: "bad timezone", mutate: func(c *Config) { c.Sync.Timezone = "Mars/Olympus" }},
		{name: "unknown job schedule", mutate: func(c *Config) { c.Sync.Schedules["bogus"] = "0 * * * *" }},
		{name: "empty schedule", mutate: func(c *Config) { c.Sync.Schedules[pipeline.FunnelsJobName] = "" }},
		{name: "bad http port", mutate: func(c *Config) { c.HTTP.Port = 0 }},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Remote.BaseURL = "https://api.example.com"
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
