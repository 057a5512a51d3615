// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/alfurqan/internal/platform/config"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/alfurqan")
	t.Setenv("JWT_PRIVATE_KEY_PATH", "/keys/private.pem")
	t.Setenv("JWT_PUBLIC_KEY_PATH", "/keys/public.pem")
}

/*
TestLoad_Defaults verifies that optional settings fall back to their defaults.
*/
func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Empty(t, cfg.RedisURL)
	assert.Nil(t, cfg.Brokers())
	assert.Equal(t, "moderation.decisions", cfg.KafkaTopic)
}

func TestLoad_MissingDatabase(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_URL", "")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestConfig_Lists(t *testing.T) {
	setRequired(t)
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092 ,")
	t.Setenv("EXTRA_ORIGINS", "https://alfurqan.app")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers())
	assert.Equal(t, []string{"https://alfurqan.app"}, cfg.Origins())
}

func TestLoadDatabase_WithoutKeys(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/alfurqan")
	t.Setenv("JWT_PRIVATE_KEY_PATH", "")
	t.Setenv("JWT_PUBLIC_KEY_PATH", "")

	cfg, err := config.LoadDatabase()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/alfurqan", cfg.DatabaseURL)
	assert.Equal(t, "./data/migrations", cfg.MigrationPath)

	full, err := config.Load()
	assert.Error(t, err)
	assert.Nil(t, full)
}
