package main

import (
	"net/http"
	"net/url"

	"audiobook-studio/internal/audio"
	"audiobook-studio/internal/config"
	"audiobook-studio/internal/db"
	"audiobook-studio/internal/handlers"
	"audiobook-studio/internal/media"
	"audiobook-studio/internal/middleware"
	"audiobook-studio/internal/remote"
	"audiobook-studio/internal/storage"
	"audiobook-studio/internal/tts"

	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

const callbackPath = "/api/audio/merge/callback"

type App struct {
	handlers *handlers.Handlers
	limiter  *middleware.RateLimiterMiddleware
	botToken string
}

func (a *App) routes() *mux.Router {
	r := mux.NewRouter()

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/rss/{feedToken}", a.handlers.GetBookFeed).Methods(http.MethodGet)
	r.HandleFunc(callbackPath, a.handlers.MergeCallback).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.AuthMiddleware(a.botToken))
	api.HandleFunc("/books/{bookId}/audio", a.handlers.ListBookAudio).Methods(http.MethodGet)
	api.HandleFunc("/audio/jobs/{jobId}", a.handlers.GetAudioJob).Methods(http.MethodGet)

	limited := api.NewRoute().Subrouter()
	limited.Use(a.limiter.Middleware)
	limited.HandleFunc("/audio/generate", a.handlers.GenerateAudio).Methods(http.MethodPost)
	limited.HandleFunc("/books/{bookId}/audio/merge", a.handlers.MergeBookAudio).Methods(http.MethodPost)

	return r
}

// callbackURL is where the remote merge worker reports back.
func callbackURL(baseURL, token string) string {
	u := baseURL + callbackPath
	if token != "" {
		u += "?token=" + url.QueryEscape(token)
	}
	return u
}

func main() {
	cfg := config.Load()
	cfg.SetupLogging()

	db.InitDB(cfg.DatabaseURL)
	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer asynqClient.Close()

	store, err := storage.NewMinioStore(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to create object store: %v", err)
	}

	// The worker owns the provider; here it only gates generation requests.
	_, providerErr := tts.NewProviderFromConfig(cfg.TTS)
	if providerErr != nil {
		log.Warnf("Voice provider unavailable, audio generation requests will fail: %v", providerErr)
	}

	var dispatcher audio.Dispatcher
	if cfg.Merge.RemoteEnabled() {
		dispatcher = remote.NewClient(cfg.Merge.WorkerURL, cfg.Merge.WorkerToken, cfg.Merge.WorkerAPIKey, cfg.Merge.StepTimeout)
		log.Printf("Remote merge worker enabled at %s", cfg.Merge.WorkerURL)
	}

	merger := audio.NewMergeCoordinator(
		store,
		audio.HTTPFetcher{Client: &http.Client{Timeout: cfg.Merge.StepTimeout}},
		media.NewFFmpeg(cfg.Merge),
		dispatcher,
		audio.MergeConfig{
			Bucket:      cfg.Storage.Bucket,
			GapDuration: cfg.Merge.GapDuration,
			StepTimeout: cfg.Merge.StepTimeout,
			WorkDir:     cfg.Merge.WorkDir,
			CallbackURL: callbackURL(cfg.BaseURL, cfg.Merge.CallbackToken),
		},
	)
	requester := audio.NewRequester(store, cfg.Storage.Bucket, asynqClient, cfg.Jobs.Timeout)

	if cfg.TelegramBotToken == "" {
		log.Warn("TELEGRAM_BOT_TOKEN is not set, API requests will be rejected")
	}

	app := &App{
		handlers: handlers.New(requester, merger, providerErr, cfg.Merge.CallbackToken, cfg.BaseURL),
		limiter:  middleware.NewRateLimiterMiddleware(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		botToken: cfg.TelegramBotToken,
	}

	log.Printf("Starting server on :%s (commit: %s)", cfg.Port, CommitSHA)
	if err := http.ListenAndServe(":"+cfg.Port, app.routes()); err != nil {
		log.Fatal(err)
	}
}
