package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPublicID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"versioned", "https://res.cloudinary.com/demo/image/upload/v1712/donorhub/avatars/abc.webp", "donorhub/avatars/abc"},
		{"unversioned", "https://res.cloudinary.com/demo/image/upload/covers/x.png", "covers/x"},
		{"folder starting with v", "https://res.cloudinary.com/demo/image/upload/videos/clip.webp", "videos/clip"},
		{"no upload segment", "https://example.com/a/b.png", ""},
		{"nothing after upload", "https://res.cloudinary.com/demo/image/upload", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractPublicID(tt.url))
		})
	}
}
