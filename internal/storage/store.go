// Package storage defines the persistence collaborator for saved bills and
// user accounts.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitty/internal/auth"
	"github.com/mmynk/splitty/internal/models"
)

// ErrBillNotFound is returned when no bill has the requested ID.
var ErrBillNotFound = errors.New("bill not found")

// BillStore keeps receipts together with their split state.
type BillStore interface {
	// CreateBill persists bill. ID, Timestamp and Title are filled in when
	// empty.
	CreateBill(ctx context.Context, bill *models.SavedBill) error

	// GetBill returns the bill in the shape it was saved in.
	GetBill(ctx context.Context, billID string) (*models.SavedBill, error)

	// ListBills returns ownerID's bills, newest first.
	ListBills(ctx context.Context, ownerID string) ([]models.BillSummary, error)

	DeleteBill(ctx context.Context, billID string) error
}

// Store is everything the server persists.
type Store interface {
	BillStore
	auth.UserStorage

	// Close releases any resources held by the store.
	Close() error
}
