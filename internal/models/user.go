package models

import "time"

type contextKey string

// UserContextKey is the key for the authenticated user in the request context.
const UserContextKey = contextKey("user")

// User represents a user in the database.
type User struct {
	ID               int64     `db:"id"`
	TelegramUsername string    `db:"telegram_username"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}
