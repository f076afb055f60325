package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds application-wide configuration populated from the environment.
type Config struct {
	Port             string
	BaseURL          string
	DatabaseURL      string
	RedisAddr        string
	TelegramBotToken string
	LogLevel         string
	LogFormat        string

	TTS     TTSConfig
	Storage StorageConfig
	Merge   MergeConfig
	Jobs    JobsConfig

	RateLimitRPS   float64
	RateLimitBurst int
}

type TTSConfig struct {
	Provider          string
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string
	ElevenLabsAPIKey  string
	ElevenLabsModel   string
	ElevenLabsBaseURL string
	Format            string
	SampleRate        int
	MaxAttempts       uint
	RetryBaseDelay    time.Duration
	RetryMaxJitter    time.Duration
	Timeout           time.Duration
}

type StorageConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
}

type MergeConfig struct {
	// WorkerURL selects remote mode when set.
	WorkerURL     string
	WorkerToken   string
	WorkerAPIKey  string
	CallbackToken string
	GapDuration   time.Duration
	StepTimeout   time.Duration
	WorkDir       string
	FFmpegPath    string
	FFprobePath   string
}

type JobsConfig struct {
	Timeout    time.Duration
	StaleAfter time.Duration
}

// RemoteEnabled reports whether merges are offloaded to a remote worker.
func (m MergeConfig) RemoteEnabled() bool {
	return strings.TrimSpace(m.WorkerURL) != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("REDIS_ADDR", "127.0.0.1:6379")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	v.SetDefault("TTS_PROVIDER", "openai")
	v.SetDefault("OPENAI_TTS_MODEL", "tts-1-hd")
	v.SetDefault("ELEVENLABS_MODEL", "eleven_multilingual_v2")
	v.SetDefault("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io/v1")
	v.SetDefault("TTS_FORMAT", "mp3")
	v.SetDefault("TTS_SAMPLE_RATE", 44100)
	v.SetDefault("TTS_MAX_ATTEMPTS", 5)
	v.SetDefault("TTS_RETRY_BASE_DELAY", time.Second)
	v.SetDefault("TTS_RETRY_MAX_JITTER", 500*time.Millisecond)
	v.SetDefault("TTS_TIMEOUT", 120*time.Second)

	v.SetDefault("STORAGE_BUCKET", "audiobooks")
	v.SetDefault("STORAGE_USE_SSL", false)

	v.SetDefault("MERGE_GAP_DURATION", 350*time.Millisecond)
	v.SetDefault("MERGE_STEP_TIMEOUT", 60*time.Second)
	v.SetDefault("MERGE_WORK_DIR", os.TempDir())

	v.SetDefault("AUDIO_JOB_TIMEOUT", 10*time.Minute)
	v.SetDefault("AUDIO_STALE_AFTER", 30*time.Minute)

	v.SetDefault("RATE_LIMIT_RPS", 1.0)
	v.SetDefault("RATE_LIMIT_BURST", 5)
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Error loading .env file")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Port:             v.GetString("PORT"),
		BaseURL:          strings.TrimRight(v.GetString("BASE_URL"), "/"),
		DatabaseURL:      v.GetString("DATABASE_URL"),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		TelegramBotToken: v.GetString("TELEGRAM_BOT_TOKEN"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogFormat:        v.GetString("LOG_FORMAT"),
		TTS: TTSConfig{
			Provider:          strings.ToLower(strings.TrimSpace(v.GetString("TTS_PROVIDER"))),
			OpenAIAPIKey:      v.GetString("OPENAI_API_KEY"),
			OpenAIModel:       v.GetString("OPENAI_TTS_MODEL"),
			OpenAIBaseURL:     v.GetString("OPENAI_BASE_URL"),
			ElevenLabsAPIKey:  v.GetString("ELEVENLABS_API_KEY"),
			ElevenLabsModel:   v.GetString("ELEVENLABS_MODEL"),
			ElevenLabsBaseURL: v.GetString("ELEVENLABS_BASE_URL"),
			Format:            v.GetString("TTS_FORMAT"),
			SampleRate:        v.GetInt("TTS_SAMPLE_RATE"),
			MaxAttempts:       v.GetUint("TTS_MAX_ATTEMPTS"),
			RetryBaseDelay:    v.GetDuration("TTS_RETRY_BASE_DELAY"),
			RetryMaxJitter:    v.GetDuration("TTS_RETRY_MAX_JITTER"),
			Timeout:           v.GetDuration("TTS_TIMEOUT"),
		},
		Storage: StorageConfig{
			Endpoint:      v.GetString("STORAGE_ENDPOINT"),
			AccessKey:     v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey:     v.GetString("STORAGE_SECRET_KEY"),
			Bucket:        v.GetString("STORAGE_BUCKET"),
			UseSSL:        v.GetBool("STORAGE_USE_SSL"),
			PublicBaseURL: v.GetString("STORAGE_PUBLIC_BASE_URL"),
		},
		Merge: MergeConfig{
			WorkerURL:     v.GetString("MERGE_WORKER_URL"),
			WorkerToken:   v.GetString("MERGE_WORKER_TOKEN"),
			WorkerAPIKey:  v.GetString("MERGE_WORKER_API_KEY"),
			CallbackToken: v.GetString("MERGE_CALLBACK_TOKEN"),
			GapDuration:   v.GetDuration("MERGE_GAP_DURATION"),
			StepTimeout:   v.GetDuration("MERGE_STEP_TIMEOUT"),
			WorkDir:       v.GetString("MERGE_WORK_DIR"),
			FFmpegPath:    v.GetString("FFMPEG_PATH"),
			FFprobePath:   v.GetString("FFPROBE_PATH"),
		},
		Jobs: JobsConfig{
			Timeout:    v.GetDuration("AUDIO_JOB_TIMEOUT"),
			StaleAfter: v.GetDuration("AUDIO_STALE_AFTER"),
		},
		RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
	}
}

// SetupLogging configures the global logger.
func (c *Config) SetupLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}
}
