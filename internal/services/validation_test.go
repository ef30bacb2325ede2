package services

import (
	"testing"

	"modelhub-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, ParseTags("a,b,c"))
	assert.Equal(t, []string{"a", "b", "c"}, ParseTags(" a, b,,c , "))
	assert.Equal(t, []string{}, ParseTags(""))
}

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, "props", NormalizeCategory(" Props "))
	assert.Equal(t, "other", NormalizeCategory(""))
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "Cube", SanitizeText(" <b>Cube</b> "))
	assert.Equal(t, "", SanitizeText(`<script>alert(1)</script>`))
	assert.Equal(t, "Nuts & Bolts", SanitizeText("Nuts & Bolts"))
}

func TestValidateModelInput_Title(t *testing.T) {
	assert.NoError(t, ValidateModelInput(models.ModelInput{Title: "Cube <v2>", UserID: "u"}))
	assert.NoError(t, ValidateModelInput(models.ModelInput{Title: "<b>Cube</b>", UserID: "u"}))
	for _, title := range []string{"", "   ", "<v2>", "<script>alert(1)</script>", "<b> </b>"} {
		assert.Error(t, ValidateModelInput(models.ModelInput{Title: title, UserID: "u"}), title)
	}
}

func TestValidateModelFile_Extensions(t *testing.T) {
	for _, name := range []string{"a.obj", "b.FBX", "c.blend", "d.stl", "e.x3d"} {
		assert.NoError(t, ValidateModelFile(payload(name, "", 1)), name)
	}
	for _, name := range []string{"a.zip", "obj", "c.png", "d.obj.exe"} {
		assert.Error(t, ValidateModelFile(payload(name, "", 1)), name)
	}
}

func TestValidateThumbnail(t *testing.T) {
	assert.NoError(t, ValidateThumbnail(payload("t.png", "image/png", 1)))
	assert.NoError(t, ValidateThumbnail(payload("t.jpg", "IMAGE/JPEG", 1)))
	assert.Error(t, ValidateThumbnail(payload("t.png", "", 1)))

	big := payload("t.png", "image/png", 0)
	big.Size = MaxThumbnailSize + 1
	assert.Error(t, ValidateThumbnail(big))
}

func TestFormatFileSize(t *testing.T) {
	tests := map[int64]string{
		0:               "0 Bytes",
		512:             "512 Bytes",
		1536:            "1.5 KB",
		10240:           "10 KB",
		5 * 1024 * 1024: "5 MB",
		3 << 30:         "3 GB",
		5 << 40:         "5120 GB",
	}
	for bytes, want := range tests {
		assert.Equal(t, want, FormatFileSize(bytes), bytes)
	}
}
