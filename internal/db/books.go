package db

import (
	"context"

	"audiobook-studio/internal/models"
)

func GetBookByID(ctx context.Context, id string) (models.Book, error) {
	book := models.Book{}
	err := DB.GetContext(ctx, &book, "SELECT * FROM books WHERE id = $1", id)
	return book, err
}

func GetBookByFeedToken(ctx context.Context, token string) (models.Book, error) {
	book := models.Book{}
	err := DB.GetContext(ctx, &book, "SELECT * FROM books WHERE feed_token = $1", token)
	return book, err
}

func GetChapterByID(ctx context.Context, id string) (models.Chapter, error) {
	chapter := models.Chapter{}
	err := DB.GetContext(ctx, &chapter, "SELECT * FROM chapters WHERE id = $1", id)
	return chapter, err
}
