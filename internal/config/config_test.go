package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 72*time.Hour, cfg.EmergencyRequestTTL)
	assert.Equal(t, 20, cfg.ContactsMax)
	assert.Equal(t, 200, cfg.Inventory.RBCVolume)
	assert.Equal(t, 5*24*time.Hour, cfg.Inventory.PlateletsShelfLife)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CONTACTS_MAX", "5")
	t.Setenv("CONTACTS_RADIUS_KM", "12.5")
	t.Setenv("SWEEP_INTERVAL", "30s")
	t.Setenv("SEPARATION_PLASMA_VOLUME", "not-a-number")
	t.Setenv("ENVIRONMENT", "production")

	cfg := Load()

	assert.Equal(t, 5, cfg.ContactsMax)
	assert.Equal(t, 12.5, cfg.ContactsRadiusKm)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	assert.Equal(t, 200, cfg.Inventory.PlasmaVolume)
	assert.True(t, cfg.IsProduction())
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", "console", "blood-api")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	logger, err = NewLogger("nonsense", "json", "")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))
}

func TestNewPostgresDB_RequiresURL(t *testing.T) {
	_, err := NewPostgresDB(&Config{})
	assert.Error(t, err)
}

func TestImageReadPolicy_OnlyUploadPrefixes(t *testing.T) {
	raw, err := imageReadPolicy("blood", CampaignImagePrefix, BlogImagePrefix)
	require.NoError(t, err)

	var policy bucketPolicy
	require.NoError(t, json.Unmarshal([]byte(raw), &policy))
	require.Len(t, policy.Statement, 1)
	st := policy.Statement[0]
	assert.Equal(t, []string{"s3:GetObject"}, st.Action)
	assert.Equal(t, []string{
		"arn:aws:s3:::blood/campaigns/*",
		"arn:aws:s3:::blood/blogs/*",
	}, st.Resource)
	assert.NotContains(t, st.Resource, "arn:aws:s3:::blood/*")
}
