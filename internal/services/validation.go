package services

import (
	"fmt"
	"html"
	"math"
	"path"
	"strconv"
	"strings"

	"modelhub-backend/internal/models"

	"github.com/microcosm-cc/bluemonday"
)

const (
	MaxModelFileSize = 100 << 20
	MaxThumbnailSize = 10 << 20

	DefaultCategory = "other"
)

var allowedModelExtensions = map[string]bool{
	".obj": true, ".fbx": true, ".dae": true, ".blend": true, ".3ds": true,
	".max": true, ".c4d": true, ".ma": true, ".mb": true, ".lwo": true,
	".lws": true, ".ply": true, ".stl": true, ".wrl": true, ".x3d": true,
}

var textPolicy = bluemonday.StrictPolicy()

// ValidateModelInput checks upload metadata
func ValidateModelInput(input models.ModelInput) error {
	if SanitizeText(input.Title) == "" {
		return invalid("title", "Please enter a title for your model")
	}
	if input.UserID == "" {
		return invalid("user_id", "You must be logged in to upload models")
	}
	return nil
}

// ValidateModelFile checks the extension and size of a model file
func ValidateModelFile(file *FilePayload) error {
	if file == nil || file.Body == nil {
		return invalid("file", "Please select a 3D model file")
	}
	ext := strings.ToLower(path.Ext(file.Name))
	if !allowedModelExtensions[ext] {
		return invalid("file", "Invalid file type. Please select a 3D model file.")
	}
	if file.Size > MaxModelFileSize {
		return invalid("file", "File size too large. Maximum size is 100MB.")
	}
	return nil
}

// ValidateThumbnail checks the content type and size of a thumbnail
func ValidateThumbnail(thumbnail *FilePayload) error {
	if thumbnail == nil || thumbnail.Body == nil {
		return invalid("thumbnail", "Please select a thumbnail image")
	}
	if !strings.HasPrefix(strings.ToLower(thumbnail.ContentType), "image/") {
		return invalid("thumbnail", "Please select an image file for the thumbnail.")
	}
	if thumbnail.Size > MaxThumbnailSize {
		return invalid("thumbnail", "Thumbnail size too large. Maximum size is 10MB.")
	}
	return nil
}

// ParseTags splits a comma separated tag list, dropping blanks
func ParseTags(raw string) []string {
	tags := make([]string, 0)
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// NormalizeCategory lowercases a category, falling back to "other"
func NormalizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return DefaultCategory
	}
	return category
}

// SanitizeText returns the visible text of user supplied markup
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

// FormatFileSize renders a byte count as "10 KB", "1.5 MB" and so on
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB"}
	value := float64(bytes)
	i := 0
	for value >= 1024 && i < len(units)-1 {
		value /= 1024
		i++
	}
	return fmt.Sprintf("%s %s", strconv.FormatFloat(math.Round(value*100)/100, 'f', -1, 64), units[i])
}
