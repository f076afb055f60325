package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "openai", cfg.TTS.Provider)
	assert.Equal(t, uint(5), cfg.TTS.MaxAttempts)
	assert.Equal(t, 350*time.Millisecond, cfg.Merge.GapDuration)
	assert.Equal(t, 60*time.Second, cfg.Merge.StepTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Jobs.StaleAfter)
	assert.False(t, cfg.Merge.RemoteEnabled())
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("MERGE_WORKER_URL", "https://merge.example.com/jobs")
	t.Setenv("MERGE_GAP_DURATION", "1s")
	t.Setenv("TTS_PROVIDER", " ElevenLabs ")
	t.Setenv("BASE_URL", "https://studio.example.com/")

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	cfg := fromViper(v)

	assert.True(t, cfg.Merge.RemoteEnabled())
	assert.Equal(t, time.Second, cfg.Merge.GapDuration)
	assert.Equal(t, "elevenlabs", cfg.TTS.Provider)
	assert.Equal(t, "https://studio.example.com", cfg.BaseURL)
}
