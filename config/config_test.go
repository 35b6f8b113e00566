package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(newViper(map[string]any{
		"DATABASE_URL": "postgres://localhost/mentoring",
	}))
	require.NoError(t, err)

	assert.Equal(t, "Asia/Seoul", cfg.App.Timezone)
	assert.NotNil(t, cfg.App.Location)
	assert.Equal(t, 24*time.Hour, cfg.Mentoring.AutoCancelDelay)
	assert.Equal(t, int64(100000), cfg.Mentoring.RatePerHour)
	assert.Equal(t, 4*time.Hour, cfg.Mentoring.DailyCap)
	assert.Equal(t, 10*time.Hour, cfg.Mentoring.MonthlyCap)
	assert.Equal(t, 2, cfg.Mentoring.MaxImages)
	assert.Equal(t, "0 9 1 * *", cfg.Scheduler.SettlementCron)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_BuildsDatabaseURLFromParts(t *testing.T) {
	cfg, err := load(newViper(map[string]any{
		"DB_HOST":     "db",
		"DB_USER":     "hub",
		"DB_PASSWORD": "secret",
	}))
	require.NoError(t, err)
	assert.Equal(t, "postgres://hub:secret@db:5432/postgres?sslmode=require", cfg.Database.URL)
}

func TestLoad_DurationFromString(t *testing.T) {
	cfg, err := load(newViper(map[string]any{
		"DATABASE_URL":                "postgres://localhost/mentoring",
		"MENTORING_AUTO_CANCEL_DELAY": "90m",
	}))
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, cfg.Mentoring.AutoCancelDelay)
}

func TestValidate(t *testing.T) {
	_, err := load(newViper(map[string]any{
		"MENTORING_RATE_PER_HOUR": 0,
		"MENTORING_DAILY_CAP":     "0s",
	}))
	require.Error(t, err)

	msg := err.Error()
	assert.True(t, strings.Contains(msg, "DATABASE_URL is required"))
	assert.True(t, strings.Contains(msg, "MENTORING_RATE_PER_HOUR"))
	assert.True(t, strings.Contains(msg, "MENTORING_DAILY_CAP"))
}
