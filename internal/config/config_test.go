package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOYALTY_SERVER_SERVICETOKEN", "chat-token")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, int64(250), cfg.Points.WelcomeBonus)
	assert.Equal(t, int64(100), cfg.Points.ReferrerBonus)
	assert.Equal(t, int64(50), cfg.Points.NewUserBonus)
	assert.Equal(t, 24*time.Hour, cfg.Admin.TokenTTL)
	assert.True(t, cfg.Relay.Mock)
	assert.Empty(t, cfg.Admin.OperatorIDs)
	assert.False(t, cfg.Server.InsecureChat)
}

func TestLoadRequiresServiceToken(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOYALTY_SERVER_SERVICETOKEN", "")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serviceToken")

	t.Setenv("LOYALTY_SERVER_INSECURECHAT", "true")
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, cfg.Server.ServiceToken)
	assert.True(t, cfg.Server.InsecureChat)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()

	yaml := []byte(`
server:
  port: "9000"
  serviceToken: file-token
points:
  welcomeBonus: 300
admin:
  operatorIds: [11, 22]
  jwtSecret: file-secret
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))
	t.Setenv("LOYALTY_POINTS_REFERRERBONUS", "75")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "file-token", cfg.Server.ServiceToken)
	assert.Equal(t, int64(300), cfg.Points.WelcomeBonus)
	assert.Equal(t, int64(75), cfg.Points.ReferrerBonus)
	assert.Equal(t, []int64{11, 22}, cfg.Admin.OperatorIDs)
	assert.True(t, cfg.IsOperator(22))
	assert.False(t, cfg.IsOperator(33))
}

func TestValidate(t *testing.T) {
	server := ServerConfig{ServiceToken: "t"}

	cfg := &Config{Server: server, Database: DatabaseConfig{Driver: "postgres"}}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Server: server, Database: DatabaseConfig{Driver: DriverSQLite}, Points: PointsConfig{WelcomeBonus: -1}}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Server: server, Database: DatabaseConfig{Driver: DriverSQLite}, Admin: AdminConfig{OperatorIDs: []int64{1}}}
	assert.Error(t, cfg.Validate())

	cfg.Admin.JWTSecret = "s"
	assert.NoError(t, cfg.Validate())

	cfg.Server.ServiceToken = ""
	assert.Error(t, cfg.Validate())

	cfg.Server.InsecureChat = true
	assert.NoError(t, cfg.Validate())
}

func TestSearchPaths(t *testing.T) {
	t.Setenv(ConfigDirEnv, "")
	assert.Equal(t, []string{"."}, SearchPaths())

	t.Setenv(ConfigDirEnv, strings.Join([]string{"/etc/loyalty", " ", "conf"}, string(os.PathListSeparator)))
	assert.Equal(t, []string{"/etc/loyalty", "conf", "."}, SearchPaths())
}

func TestLoadFromConfigDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  serviceToken: dir-token\n"), 0o600))
	t.Setenv(ConfigDirEnv, dir)
	t.Setenv("LOYALTY_SERVER_SERVICETOKEN", "")

	cfg, err := Load(SearchPaths()...)
	require.NoError(t, err)
	assert.Equal(t, "dir-token", cfg.Server.ServiceToken)
}
