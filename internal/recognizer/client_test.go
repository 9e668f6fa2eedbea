package recognizer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mmynk/splitty/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestHTTPClient_Analyze(t *testing.T) {
	var gotAuth string
	var gotImage []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/analyze_receipt", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		file, _, err := r.FormFile("image")
		if !assert.NoError(t, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotImage, _ = io.ReadAll(file)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, sampleAnalysis)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL + "/")
	r, err := client.Analyze(context.Background(), "tok-123", testPNG(t, 32, 48))
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.NotEmpty(t, gotImage)
	assert.Equal(t, "Joe's Diner", r.Establishment)
	assert.Len(t, r.Items, 3)
}

func TestHTTPClient_RequiresToken(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL).Analyze(context.Background(), "", testPNG(t, 8, 8))
	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.Zero(t, calls.Load())
}

func TestHTTPClient_ServiceErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantMsg  string
	}{
		{"error field", http.StatusBadRequest, `{"error": "no receipt found"}`, "invalid_argument", "no receipt found"},
		{"code and message", http.StatusTooManyRequests, `{"code": "quota", "message": "slow down"}`, "quota", "slow down"},
		{"plain text", http.StatusBadGateway, "upstream down", "unavailable", "upstream down"},
		{"empty body", http.StatusInternalServerError, "", "internal", "Internal Server Error"},
		{"unauthorized", http.StatusUnauthorized, `{"error": "expired"}`, "unauthenticated", "expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewHTTPClient(srv.URL).Analyze(context.Background(), "tok", testPNG(t, 8, 8))
			require.Error(t, err)

			var svcErr *ServiceError
			require.True(t, errors.As(err, &svcErr), "got %T", err)
			assert.Equal(t, tt.status, svcErr.Status)
			assert.Equal(t, tt.wantCode, svcErr.Code)
			assert.Equal(t, tt.wantMsg, svcErr.Message)
		})
	}
}

func TestHTTPClient_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"currency": "$", "items": []}`)
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL).Analyze(context.Background(), "tok", testPNG(t, 8, 8))
	var malformed *models.MalformedReceiptError
	assert.True(t, errors.As(err, &malformed))
}

func TestHTTPClient_RejectsNonImage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL).Analyze(context.Background(), "tok", []byte("not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
	assert.Zero(t, calls.Load())
}

func TestHTTPClient_Canceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPClient(srv.URL).Analyze(ctx, "tok", testPNG(t, 8, 8))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStaticRecognizer(t *testing.T) {
	s := &StaticRecognizer{Receipt: models.Receipt{
		Currency: "$",
		Items:    []models.LineItem{{Name: "Tea", Quantity: 1, PricePerUnit: 2, TotalPrice: 2}},
	}}

	_, err := s.Analyze(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrAuthRequired)

	a, err := s.Analyze(context.Background(), "tok", nil)
	require.NoError(t, err)
	b, err := s.Analyze(context.Background(), "tok", nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.Items[0].Key, b.Items[0].Key)

	s.Err = &ServiceError{Code: "unavailable", Message: "down"}
	_, err = s.Analyze(context.Background(), "tok", nil)
	var svcErr *ServiceError
	assert.True(t, errors.As(err, &svcErr))
}
