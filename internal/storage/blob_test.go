package storage

import (
	"strings"
	"testing"

	"modelhub-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKey(t *testing.T) {
	key := NewKey(NamespaceModels, "cube.obj")
	parts := strings.Split(key, "/")
	require.Len(t, parts, 3)
	assert.Equal(t, "models", parts[0])
	assert.Len(t, parts[1], 36)
	assert.Equal(t, "cube.obj", parts[2])
}

func TestNewKey_SameFilenameDoesNotCollide(t *testing.T) {
	assert.NotEqual(t, NewKey(NamespaceModels, "model.obj"), NewKey(NamespaceModels, "model.obj"))
}

func TestNewKey_StripsDirectories(t *testing.T) {
	assert.True(t, strings.HasSuffix(NewKey(NamespaceThumbnails, "../../etc/passwd"), "/passwd"))
	assert.True(t, strings.HasSuffix(NewKey(NamespaceThumbnails, `C:\pics\cube.png`), "/cube.png"))
	assert.True(t, strings.HasSuffix(NewKey(NamespaceThumbnails, ""), "/file"))
}

func TestObjectURL_EscapesSegments(t *testing.T) {
	got := objectURL("https://cdn.example.com/", "models/abc/my cube.obj")
	assert.Equal(t, "https://cdn.example.com/models/abc/my%20cube.obj", got)
}

func TestBaseURLs(t *testing.T) {
	assert.Equal(t, "https://bucket.s3.eu-west-1.amazonaws.com",
		s3BaseURL(config.StorageConfig{Bucket: "bucket", Region: "eu-west-1"}))
	assert.Equal(t, "https://s3.example.com/bucket",
		s3BaseURL(config.StorageConfig{Bucket: "bucket", Endpoint: "https://s3.example.com"}))
	assert.Equal(t, "https://cdn.example.com",
		s3BaseURL(config.StorageConfig{Bucket: "bucket", PublicBaseURL: "https://cdn.example.com"}))
	assert.Equal(t, "http://localhost:9000/bucket",
		minioBaseURL(config.StorageConfig{Bucket: "bucket", Endpoint: "localhost:9000"}))
	assert.Equal(t, "https://localhost:9000/bucket",
		minioBaseURL(config.StorageConfig{Bucket: "bucket", Endpoint: "localhost:9000", UseSSL: true}))
}
