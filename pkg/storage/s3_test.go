package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateKYCFileType(t *testing.T) {
	assert.True(t, ValidateKYCFileType("application/pdf", "passport"))
	assert.True(t, ValidateKYCFileType("image/png; charset=binary", "id"))
	assert.True(t, ValidateKYCFileType("", "licence.JPEG"))
	assert.True(t, ValidateKYCFileType("application/octet-stream", "scan.pdf"))
	assert.False(t, ValidateKYCFileType("video/mp4", "clip.mp4"))
	assert.False(t, ValidateKYCFileType("", "notes.txt"))
}

func TestKYCKey(t *testing.T) {
	assert.Equal(t, "kyc/u1/d1.pdf", KYCKey("u1", "d1", "My Passport.PDF"))
	assert.Equal(t, "kyc/u1/d1", KYCKey("u1", "d1", "noext"))
}

func TestContentTypeForFilename(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentTypeForFilename("a.jpg"))
	assert.Equal(t, "application/octet-stream", ContentTypeForFilename("a.exe"))
}
