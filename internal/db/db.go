package db

import (
	_ "embed"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // The database driver
	log "github.com/sirupsen/logrus"
)

//go:embed schema.sql
var schema string

// DB is the global database connection.
var DB *sqlx.DB

// InitDB initializes the database connection.
func InitDB(databaseURL string) {
	var err error
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	DB, err = sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err = DB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	log.Println("Database connection established")
}

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate() error {
	_, err := DB.Exec(schema)
	return err
}
