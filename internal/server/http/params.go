package httpserver

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/media"
)

func idParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.FromString(c.Param(name))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, errs.Validation("invalid " + name)
	}
	return id, nil
}

func intQuery(c *gin.Context, name string) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return n
}

// bindJSON decodes the body into dst.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return errs.Validation("request body too large")
		}
		return errs.Validation("invalid request body")
	}
	return nil
}

// formFile opens an optional multipart file. The returned closer is never nil.
func formFile(c *gin.Context, field string) (*media.File, func(), error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, func() {}, errs.Validation("upload too large")
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, errs.Validation("multipart form expected")
		}
		return nil, func() {}, errs.Validation("invalid " + field + " upload")
	}
	return openUpload(fh)
}

func openUpload(fh *multipart.FileHeader) (*media.File, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, errs.Validation("cannot read " + fh.Filename)
	}
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &media.File{Name: fh.Filename, ContentType: ct, Size: fh.Size, Body: f}, func() { _ = f.Close() }, nil
}

// optionalForm returns a pointer to the form or JSON field when present.
func optionalForm(c *gin.Context, name string) *string {
	if v, ok := c.GetPostForm(name); ok {
		return &v
	}
	return nil
}
