// Package media stores uploaded avatars, cover images, videos and thumbnails.
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Kind groups objects by purpose; it is the first segment of the object key.
type Kind string

const (
	KindAvatar    Kind = "avatars"
	KindCover     Kind = "covers"
	KindVideo     Kind = "videos"
	KindThumbnail Kind = "thumbnails"
)

// File is an upload received from a client.
type File struct {
	Name        string // original file name, only the extension is kept
	ContentType string
	Size        int64
	Body        io.Reader
}

// Storage persists media objects and hands out their public URLs.
type Storage interface {
	// Upload stores f and returns its public URL.
	Upload(ctx context.Context, kind Kind, f File) (string, error)
	// Delete removes the object behind url; unknown URLs are ignored.
	Delete(ctx context.Context, url string) error
}

// objectKey builds kind/yyyy/mm/dd/<uuid><ext>.
func objectKey(kind Kind, name string, now time.Time) (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(path.Ext(name))
	if len(ext) > 10 {
		ext = ""
	}
	return fmt.Sprintf("%s/%04d/%02d/%02d/%s%s", kind, now.Year(), now.Month(), now.Day(), id, ext), nil
}
