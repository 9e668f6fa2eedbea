// Package recognizer talks to the receipt analysis service: it turns a
// receipt photo into a validated models.Receipt.
package recognizer

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/splitty/internal/models"
)

var (
	// ErrAuthRequired is returned before any request is sent when the caller
	// has no bearer token.
	ErrAuthRequired = errors.New("authentication required for receipt analysis")

	// ErrUnsupportedImage is returned when the upload is not a decodable image.
	ErrUnsupportedImage = errors.New("unsupported image")

	ErrEmptyImage = errors.New("image is empty")
)

// Recognizer analyzes a receipt image.
type Recognizer interface {
	Analyze(ctx context.Context, token string, image []byte) (*models.Receipt, error)
}

// ServiceError is a failure reported by the analysis service.
type ServiceError struct {
	Status  int    // HTTP status, 0 if the request never completed
	Code    string // machine-readable code
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("receipt analysis failed (%s): %s", e.Code, e.Message)
}

// StaticRecognizer returns the same receipt for every image.
type StaticRecognizer struct {
	Receipt models.Receipt
	Err     error
}

// Analyze implements Recognizer.
func (s *StaticRecognizer) Analyze(ctx context.Context, token string, image []byte) (*models.Receipt, error) {
	if token == "" {
		return nil, ErrAuthRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return models.NewReceipt(s.Receipt)
}
