package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lucid-arena/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 44, cfg.Game.TileCount)
	assert.Equal(t, 5, cfg.Game.WinningScore)
	assert.Equal(t, "arena-game-events", cfg.Kafka.EventsTopic)
	assert.Equal(t, "arena-minigame-results", cfg.Kafka.ResultsTopic)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Zero(t, cfg.Game.InstructionDelay)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("ARENA_JWT_SECRET", "s3cret")
	path := writeConfig(t, "auth:\n  jwt_secret: ${ARENA_JWT_SECRET}\ngame:\n  instruction_delay: 1s\n  winning_score: 3\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, time.Second, cfg.Game.InstructionDelay)
	assert.Equal(t, 3, cfg.Game.WinningScore)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestPassScores(t *testing.T) {
	cfg := DefaultConfig()
	scores := cfg.Game.PassScores()

	assert.Equal(t, 80, scores[domain.MiniGameClicker])
	assert.Equal(t, 10, scores[domain.MiniGameRaining])
	assert.True(t, cfg.Sync.Enabled)
}

func TestLoadKeepsExplicitZeroPassScore(t *testing.T) {
	path := writeConfig(t, "game:\n  clicker_pass_score: 0\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Game.ClickerPassScore)
	assert.Equal(t, domain.DefaultRainingPassScore, cfg.Game.RainingPassScore)
	assert.Equal(t, 44, cfg.Game.TileCount)
}

func TestLoadRejectsInvalidGameRules(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero tiles", "game:\n  tile_count: 0\n"},
		{"negative tiles", "game:\n  tile_count: -3\n"},
		{"zero winning score", "game:\n  winning_score: 0\n"},
		{"negative pass score", "game:\n  raining_pass_score: -1\n"},
		{"negative delay", "game:\n  instruction_delay: -1s\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestDefaultGameConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Game.Validate())
}
