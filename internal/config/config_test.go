package config

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vancomm/aplenty-server/internal/workflow"
)

func TestNewAppDefaults(t *testing.T) {
	cfg, err := NewApp()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "in", cfg.EntryRule)
	assert.Equal(t, workflow.FullBox(1, 4001), cfg.DefaultBox())
}

func TestNewAppFromEnv(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("BOX_LOW", "10")
	t.Setenv("BOX_HIGH", "20")
	t.Setenv("DEVELOPMENT", "true")

	cfg, err := NewApp()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr())
	assert.True(t, cfg.Development)
	assert.Equal(t, workflow.FullBox(10, 20), cfg.DefaultBox())
}

func TestNewAppInvertedBox(t *testing.T) {
	t.Setenv("BOX_LOW", "20")
	t.Setenv("BOX_HIGH", "10")

	_, err := NewApp()
	assert.Error(t, err)
}

func TestNewAppOverflowingBox(t *testing.T) {
	t.Setenv("BOX_LOW", "1")
	t.Setenv("BOX_HIGH", "65537")

	_, err := NewApp()
	assert.ErrorIs(t, err, workflow.ErrVolumeOverflow)
}

func TestDbURL(t *testing.T) {
	t.Setenv("POSTGRES_USER", "aplenty")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_DB", "workflows")
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")

	dbURL, err := DbURL()
	require.NoError(t, err)
	assert.Equal(t, "postgres://aplenty:secret@db:5432/workflows?sslmode=disable", dbURL)

	t.Setenv("POSTGRES_PASSWORD", "p@ss word")
	dbURL, err = DbURL()
	require.NoError(t, err)
	u, err := url.Parse(dbURL)
	require.NoError(t, err)
	password, _ := u.User.Password()
	assert.Equal(t, "p@ss word", password)

	t.Setenv("DATABASE_URL", "postgres://other")
	dbURL, err = DbURL()
	require.NoError(t, err)
	assert.Equal(t, "postgres://other", dbURL)
}

func TestDbURLMissing(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")
	t.Setenv("POSTGRES_USER", "")
	os.Unsetenv("POSTGRES_USER")

	_, err := DbURL()
	assert.ErrorContains(t, err, "POSTGRES_USER")
}

func TestJWTRoundTrip(t *testing.T) {
	j := NewJWTWithSecret([]byte("secret"))
	token, err := j.Sign(NewAuthorClaims("alice", time.Hour))
	require.NoError(t, err)

	var claims AuthorClaims
	_, err = j.ParseWithClaims(token, &claims)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)

	other := NewJWTWithSecret([]byte("other"))
	_, err = other.ParseWithClaims(token, &AuthorClaims{})
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestNewJWTDisabled(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")
	t.Setenv("JWT_SECRET_FILE", "")
	os.Unsetenv("JWT_SECRET_FILE")
	j, err := NewJWT()
	require.NoError(t, err)
	assert.Nil(t, j)
}

func TestNewJWTFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(path, []byte("from-file\n"), 0o600))
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")
	t.Setenv("JWT_SECRET_FILE", path)

	j, err := NewJWT()
	require.NoError(t, err)
	require.NotNil(t, j)
	assert.Equal(t, []byte("from-file"), j.secret)
}

func TestSetupLogging(t *testing.T) {
	log := logrus.New()
	require.NoError(t, SetupLogging(log, false, "warn", ""))
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())

	require.NoError(t, SetupLogging(log, true, "info", ""))
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	assert.Error(t, SetupLogging(log, false, "loud", ""))

	file := filepath.Join(t.TempDir(), "aplenty.log")
	require.NoError(t, SetupLogging(log, false, "info", file))
	log.Info("hello")
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}
