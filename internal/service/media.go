package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/pageza/recipebox/backend/internal/metrics"
)

const (
	// DefaultMaxImageBytes is the largest accepted image (5 MiB).
	DefaultMaxImageBytes = 5 << 20
	// DefaultStoreTimeout bounds every call to the blob store.
	DefaultStoreTimeout = 10 * time.Second

	maxNameAttempts = 3
)

// BlobStore is the durable object store holding images.
type BlobStore interface {
	// Put stores data under name and returns its public retrieval URL.
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
	Remove(ctx context.Context, names ...string) error
	Exists(ctx context.Context, name string) (bool, error)
	// NameFromURL maps a retrieval URL produced by Put back to its object name.
	NameFromURL(url string) (string, error)
	// Bucket names the store for logs and metrics.
	Bucket() string
}

// ImageUpload is an image received from a client.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CommitFunc persists a freshly uploaded reference, typically by writing the
// owning row. An error discards the new blob and aborts the replacement.
type CommitFunc func(newRef string) error

// CleanupHook observes blob deletions that failed and were swallowed.
type CleanupHook func(name string, err error)

// MediaManager keeps image references and blob store contents consistent.
// New blobs are always uploaded before old ones are deleted, so a visible
// reference never points at a missing object.
type MediaManager struct {
	store     BlobStore
	maxBytes  int
	timeout   time.Duration
	logger    *slog.Logger
	onCleanup CleanupHook
}

type MediaOption func(*MediaManager)

func WithMaxImageBytes(n int) MediaOption {
	return func(m *MediaManager) {
		if n > 0 {
			m.maxBytes = n
		}
	}
}

func WithStoreTimeout(d time.Duration) MediaOption {
	return func(m *MediaManager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

func WithCleanupHook(h CleanupHook) MediaOption {
	return func(m *MediaManager) { m.onCleanup = h }
}

// NewMediaManager creates a MediaManager over store.
func NewMediaManager(store BlobStore, opts ...MediaOption) *MediaManager {
	m := &MediaManager{
		store:    store,
		maxBytes: DefaultMaxImageBytes,
		timeout:  DefaultStoreTimeout,
		logger:   slog.Default().With("component", "media", "bucket", store.Bucket()),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ValidateImage checks size and content type without touching the store.
func (m *MediaManager) ValidateImage(upload ImageUpload) error {
	if len(upload.Data) == 0 {
		return invalid("image", "file is empty")
	}
	if len(upload.Data) > m.maxBytes {
		return invalid("image", "file size must be at most %d bytes", m.maxBytes)
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(upload.ContentType)), "image/") {
		return invalid("image", "content type %q is not an image", upload.ContentType)
	}
	return nil
}

// Replace uploads a new image for ownerID and returns its reference. The
// order is fixed: upload, then commit (when given), then deletion of oldRef's
// blob. A failed upload or commit leaves oldRef untouched; a failed deletion
// of the old blob is logged and never undoes the new image.
func (m *MediaManager) Replace(ctx context.Context, ownerID string, oldRef *string, upload ImageUpload, commit CommitFunc) (string, error) {
	if err := m.ValidateImage(upload); err != nil {
		return "", err
	}

	name, err := m.freshName(ctx, ownerID, upload)
	if err != nil {
		return "", err
	}

	var url string
	err = m.call(ctx, "put", name, func(ctx context.Context) error {
		var putErr error
		url, putErr = m.store.Put(ctx, name, upload.ContentType, upload.Data)
		return putErr
	})
	if err != nil {
		metrics.MediaUploads.WithLabelValues(m.store.Bucket(), "error").Inc()
		m.logger.Error("upload failed", "object", name, "error", err)
		return "", err
	}
	metrics.MediaUploads.WithLabelValues(m.store.Bucket(), "ok").Inc()
	m.logger.Info("uploaded image", "object", name, "bytes", len(upload.Data))

	if commit != nil {
		if err := commit(url); err != nil {
			m.removeRef(ctx, url)
			return "", err
		}
	}

	if oldRef != nil && *oldRef != "" && *oldRef != url {
		m.removeRef(ctx, *oldRef)
	}
	return url, nil
}

// Remove deletes the blob behind ref. A nil or empty ref is a no-op. It
// reports whether the blob is known to be gone; failures are swallowed.
func (m *MediaManager) Remove(ctx context.Context, ref *string) bool {
	if ref == nil || *ref == "" {
		return true
	}
	return m.removeRef(ctx, *ref)
}

func (m *MediaManager) removeRef(ctx context.Context, ref string) bool {
	// Cleanup runs even if the caller's request was cancelled meanwhile.
	ctx = context.WithoutCancel(ctx)

	name, err := m.store.NameFromURL(ref)
	if err != nil {
		m.cleanupFailed(ref, err)
		return false
	}
	if err := m.call(ctx, "remove", name, func(ctx context.Context) error {
		return m.store.Remove(ctx, name)
	}); err != nil {
		m.cleanupFailed(name, err)
		return false
	}
	m.logger.Info("removed image", "object", name)
	return true
}

// cleanupFailed is the single branch for swallowed deletion errors. The blob
// is left for out-of-band collection.
func (m *MediaManager) cleanupFailed(name string, err error) {
	metrics.MediaCleanupFailures.WithLabelValues(m.store.Bucket()).Inc()
	m.logger.Warn("blob cleanup failed, leaving orphan", "object", name, "error", err)
	if m.onCleanup != nil {
		m.onCleanup(name, err)
	}
}

// freshName generates an object name and checks the store does not hold it yet.
func (m *MediaManager) freshName(ctx context.Context, ownerID string, upload ImageUpload) (string, error) {
	for attempt := 1; attempt <= maxNameAttempts; attempt++ {
		name, err := objectName(ownerID, upload)
		if err != nil {
			return "", fmt.Errorf("generate object name: %w", err)
		}
		var exists bool
		if err := m.call(ctx, "exists", name, func(ctx context.Context) error {
			var existsErr error
			exists, existsErr = m.store.Exists(ctx, name)
			return existsErr
		}); err != nil {
			return "", err
		}
		if !exists {
			return name, nil
		}
		m.logger.Warn("object name collision", "object", name, "attempt", attempt)
	}
	return "", &MediaError{Op: "name", Name: ownerID, Err: errors.New("could not find a free object name")}
}

// call runs one store operation under the store timeout.
func (m *MediaManager) call(ctx context.Context, op, name string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err := fn(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", ErrStoreTimeout, err)
	}
	return &MediaError{Op: op, Name: name, Err: err}
}

// objectName builds "<owner>-<random>.<ext>".
func objectName(ownerID string, upload ImageUpload) (string, error) {
	suffix, err := randomHex(8)
	if err != nil {
		return "", err
	}
	prefix := sanitizeToken(ownerID)
	if prefix == "" {
		if prefix, err = randomHex(4); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%s-%s.%s", prefix, suffix, imageExtension(upload)), nil
}

var preferredExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

func imageExtension(upload ImageUpload) string {
	if ext := sanitizeToken(strings.TrimPrefix(filepath.Ext(upload.Filename), ".")); ext != "" {
		return strings.ToLower(ext)
	}
	ct, _, _ := mime.ParseMediaType(upload.ContentType)
	if ext, ok := preferredExtensions[ct]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(ct); err == nil && len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}
	return "img"
}

func sanitizeToken(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
