package models

import "time"

// Book is owned by a user and holds an optional introduction plus ordered chapters.
type Book struct {
	ID           string    `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"userId"`
	Title        string    `db:"title" json:"title"`
	Introduction *string   `db:"introduction" json:"introduction,omitempty"`
	FeedToken    string    `db:"feed_token" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Chapter belongs to one book. Order is 1-based and drives narration and merge sequencing.
type Chapter struct {
	ID        string    `db:"id" json:"id"`
	BookID    string    `db:"book_id" json:"bookId"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"-"`
	Order     int       `db:"chapter_order" json:"order"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
