package recognizer

import (
	"bytes"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreprocess(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		maxDimension int
		wantW, wantH int
	}{
		{"shrinks wide image", 400, 200, 100, 100, 50},
		{"shrinks tall image", 120, 240, 60, 30, 60},
		{"keeps small image", 40, 30, 100, 40, 30},
		{"no limit", 300, 100, 0, 300, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Preprocess(testPNG(t, tt.w, tt.h), tt.maxDimension)
			require.NoError(t, err)

			cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, cfg.Width)
			assert.Equal(t, tt.wantH, cfg.Height)
		})
	}
}

func TestPreprocess_Errors(t *testing.T) {
	_, err := Preprocess(nil, 100)
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = Preprocess([]byte("GIF89a garbage"), 100)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}
