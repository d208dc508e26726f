package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Cerega32/Bucket-List/internal/middleware"
	"github.com/Cerega32/Bucket-List/internal/models"
	"github.com/Cerega32/Bucket-List/internal/storage"
)

// Upload folders.
const (
	FolderAvatars       = "avatars"
	FolderCovers        = "covers"
	FolderGoals         = "goals"
	FolderLists         = "goal-lists"
	FolderCommentPhotos = "comment-photos"
)

// MaxCommentPhotos caps the photos attached to one comment.
const MaxCommentPhotos = 10

// Upload is an image received from a client.
type Upload struct {
	ContentType string
	Size        int64
	Body        io.Reader
}

// uploader stores validated images.
type uploader struct {
	storage  storage.Storage
	maxBytes int64
}

func (u uploader) validate(up Upload) error {
	if _, ok := storage.ImageExtension(up.ContentType); !ok {
		return models.NewValidationError("Unsupported image type")
	}
	if u.maxBytes > 0 && up.Size > u.maxBytes {
		return models.NewValidationError(fmt.Sprintf("Image exceeds %d MB", u.maxBytes>>20))
	}
	return nil
}

func (u uploader) put(ctx context.Context, folder string, up Upload) (key, url string, err error) {
	if err := u.validate(up); err != nil {
		return "", "", err
	}
	key, url, err = storage.Upload(ctx, u.storage, folder, up.ContentType, up.Body)
	if err != nil {
		return "", "", models.NewInternalError(err)
	}
	return key, url, nil
}

// remove deletes a stored blob. Failures only leave an orphan object, so
// they are logged.
func (u uploader) remove(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := u.storage.Delete(ctx, key); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to delete blob", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// removeURL deletes the blob behind a URL this storage produced.
func (u uploader) removeURL(ctx context.Context, url string) {
	u.remove(ctx, storage.KeyFromURL(u.storage, url))
}
