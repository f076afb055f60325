package middleware

import (
	"context"
	"net/http"
	"strings"

	"audiobook-studio/internal/db"
	"audiobook-studio/internal/models"

	log "github.com/sirupsen/logrus"
	initdata "github.com/telegram-mini-apps/init-data-golang"
)

// AuthMiddleware validates the Telegram Mini App initData and upserts the user.
func AuthMiddleware(botToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header is required", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "tma" {
				http.Error(w, "Authorization header format must be 'tma <initData>'", http.StatusUnauthorized)
				return
			}
			initData := parts[1]

			if botToken == "" {
				log.Error("TELEGRAM_BOT_TOKEN is not set")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			if err := initdata.Validate(initData, botToken, 0); err != nil {
				log.Printf("Invalid init data: %v", err)
				http.Error(w, "Invalid init data", http.StatusUnauthorized)
				return
			}

			data, err := initdata.Parse(initData)
			if err != nil {
				log.Printf("Error parsing init data: %v", err)
				http.Error(w, "Error parsing init data", http.StatusBadRequest)
				return
			}

			user, err := db.UpsertUser(r.Context(), data.User.ID, data.User.Username)
			if err != nil {
				http.Error(w, "Failed to authenticate user", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), models.UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
