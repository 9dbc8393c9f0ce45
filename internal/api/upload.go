package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipebox/backend/internal/service"
)

func isMultipart(c *gin.Context) bool {
	return c.ContentType() == gin.MIMEMultipartPOSTForm
}

func badRequest(field string, err error) error {
	return &service.ValidationError{Field: field, Message: err.Error()}
}

// bindBody decodes the JSON request fields into dst. Multipart requests carry
// them as a JSON document in the form field named field.
func bindBody(c *gin.Context, field string, dst any) error {
	if isMultipart(c) {
		raw := c.PostForm(field)
		if raw == "" {
			return nil
		}
		if err := json.Unmarshal([]byte(raw), dst); err != nil {
			return badRequest(field, err)
		}
		return nil
	}
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		return badRequest("body", err)
	}
	return nil
}

// readImage returns the uploaded file in field, or nil when the request has
// none. At most limit+1 bytes are read so oversized files fail validation
// without being buffered whole.
func readImage(c *gin.Context, field string, limit int64) (*service.ImageUpload, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, badRequest(field, err)
	}

	f, err := header.Open()
	if err != nil {
		return nil, badRequest(field, err)
	}
	defer f.Close()

	var r io.Reader = f
	if limit > 0 {
		r = io.LimitReader(f, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, badRequest(field, err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || strings.HasPrefix(contentType, "application/octet-stream") {
		contentType = http.DetectContentType(data)
	}
	return &service.ImageUpload{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}
