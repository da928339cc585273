package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestParseDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "vidshare", cfg.MongoDatabase)
	assert.False(t, cfg.MongoTransactions)
	assert.Equal(t, StorageLocal, cfg.StorageBackend)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestParseRequiresSecret(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "")

	_, err := Parse()
	assert.Error(t, err)
}

func TestParseOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("MONGO_TRANSACTIONS", "true")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("STORAGE_BACKEND", "S3")
	t.Setenv("S3_BUCKET", "videos")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.MongoTransactions)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, StorageS3, cfg.StorageBackend)
}

func TestValidateStorage(t *testing.T) {
	cfg := &Config{JWTSecret: "s", Port: 8080, StorageBackend: "s3"}
	assert.Error(t, cfg.Validate(), "s3 without bucket")

	cfg = &Config{JWTSecret: "s", Port: 8080, StorageBackend: "ftp"}
	assert.Error(t, cfg.Validate())

	cfg = &Config{JWTSecret: "s", Port: 0, StorageBackend: "local"}
	assert.Error(t, cfg.Validate())

	cfg = &Config{JWTSecret: "s", Port: 8080, StorageBackend: " Local "}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, StorageLocal, cfg.StorageBackend)
}
