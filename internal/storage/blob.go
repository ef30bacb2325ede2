package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("modelhub-storage")

// Namespaces used for blob keys
const (
	NamespaceModels     = "models"
	NamespaceThumbnails = "thumbnails"
)

// BlobStore stores file payloads and hands back a retrieval URL
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
}

// NewKey builds "<namespace>/<uuid>/<filename>".
// The random segment keeps two uploads with the same filename apart.
func NewKey(namespace, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	return fmt.Sprintf("%s/%s/%s", namespace, uuid.New().String(), name)
}

// objectURL joins a base URL and an object key, escaping each key segment
func objectURL(base, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}
