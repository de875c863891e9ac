package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceListKey(t *testing.T) {
	tests := []struct {
		filename string
		wantExt  string
		wantErr  bool
	}{
		{"prices.yaml", ".yaml", false},
		{"PRICES.YML", ".yml", false},
		{"prices.xlsx", "", true},
		{"prices", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			key, err := PriceListKey(7, tt.filename)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFileType)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(key, "price-lists/7/"))
			assert.True(t, strings.HasSuffix(key, tt.wantExt))
		})
	}
}

func TestPresignPriceListUpload(t *testing.T) {
	s := NewS3Storage("eu-central-1", "orders-bucket", "AKIATEST", "secret", "https://cdn.example.com/")

	resp, err := s.PresignPriceListUpload(context.Background(), 3, "list.yaml")
	require.NoError(t, err)
	assert.Contains(t, resp.UploadURL, "orders-bucket")
	assert.Contains(t, resp.UploadURL, "X-Amz-Signature=")
	assert.Equal(t, "https://cdn.example.com/"+resp.Key, resp.FileURL)
	assert.Equal(t, "application/yaml", resp.ContentType)

	_, err = s.PresignPriceListUpload(context.Background(), 3, "list.csv")
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}
