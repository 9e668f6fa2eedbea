package models

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// priceTolerance is how far TotalPrice may drift from Quantity*PricePerUnit
// before it is recomputed.
const priceTolerance = 0.005

// MalformedReceiptError is returned when recognizer output cannot be accepted.
type MalformedReceiptError struct {
	Reason string
}

func (e *MalformedReceiptError) Error() string {
	return "malformed receipt: " + e.Reason
}

// Receipt is the structured result of analyzing a receipt image.
// A Receipt built by NewReceipt must not be modified.
type Receipt struct {
	// Establishment is the store or restaurant name.
	Establishment string `json:"establishment"`

	// Currency is a symbol or code, used for display only.
	Currency string `json:"currency"`

	// Items are the line items in receipt order.
	Items []LineItem `json:"items"`

	// Tax, Tip and AdditionalCharges are shared charges; each may be absent.
	Tax               Amount `json:"tax"`
	Tip               Amount `json:"tip"`
	AdditionalCharges Amount `json:"additional_charges"`

	// ReportedSubtotal and ReportedTotal are what the recognizer read off the
	// receipt. They are only used for consistency checks.
	ReportedSubtotal Amount `json:"subtotal"`
	ReportedTotal    Amount `json:"total"`
}

// LineItem is one purchasable entry on a receipt.
type LineItem struct {
	// Key is the stable identity of the item within a receipt or session.
	Key string `json:"key"`

	// Name is the display name; it is not required to be unique.
	Name string `json:"name"`

	Quantity     int     `json:"quantity"`
	PricePerUnit float64 `json:"price_per_unit"`

	// TotalPrice is Quantity * PricePerUnit.
	TotalPrice float64 `json:"total_price"`

	// Assignees are the people splitting this item, in assignment order.
	// Empty means unassigned.
	Assignees []string `json:"assignees,omitempty"`
}

// Clone returns a deep copy of the item.
func (i LineItem) Clone() LineItem {
	c := i
	if i.Assignees != nil {
		c.Assignees = append([]string(nil), i.Assignees...)
	}
	return c
}

// Normalize checks quantity and prices and restores the
// TotalPrice == Quantity*PricePerUnit invariant.
// A zero unit price with a positive total is derived from the total.
func (i *LineItem) Normalize() error {
	if i.Quantity < 1 {
		return fmt.Errorf("item %q: quantity must be at least 1, got %d", i.Name, i.Quantity)
	}
	if math.IsNaN(i.PricePerUnit) || math.IsInf(i.PricePerUnit, 0) || i.PricePerUnit < 0 {
		return fmt.Errorf("item %q: price per unit must be a non-negative number, got %v", i.Name, i.PricePerUnit)
	}
	if math.IsNaN(i.TotalPrice) || math.IsInf(i.TotalPrice, 0) || i.TotalPrice < 0 {
		return fmt.Errorf("item %q: total price must be a non-negative number, got %v", i.Name, i.TotalPrice)
	}

	qty := float64(i.Quantity)
	if i.PricePerUnit == 0 && i.TotalPrice > 0 {
		i.PricePerUnit = i.TotalPrice / qty
		return nil
	}
	if expected := qty * i.PricePerUnit; math.Abs(i.TotalPrice-expected) > priceTolerance {
		i.TotalPrice = expected
	}
	return nil
}

// NewReceipt validates r and returns an independent copy of it.
// Items without a key get a generated one; assignees are dropped.
func NewReceipt(r Receipt) (*Receipt, error) {
	if strings.TrimSpace(r.Currency) == "" {
		return nil, &MalformedReceiptError{Reason: "currency is missing"}
	}
	if len(r.Items) == 0 {
		return nil, &MalformedReceiptError{Reason: "receipt has no items"}
	}

	out := r
	out.Items = make([]LineItem, len(r.Items))
	seen := make(map[string]bool, len(r.Items))
	for idx, item := range r.Items {
		item = item.Clone()
		item.Assignees = nil
		if err := item.Normalize(); err != nil {
			return nil, &MalformedReceiptError{Reason: err.Error()}
		}
		if item.Key == "" {
			item.Key = uuid.New().String()
		}
		if seen[item.Key] {
			return nil, &MalformedReceiptError{Reason: fmt.Sprintf("duplicate item key %q at position %d", item.Key, idx)}
		}
		seen[item.Key] = true
		out.Items[idx] = item
	}

	return &out, nil
}

// LineItems returns a copy of the receipt's items, suitable for seeding a
// mutable session.
func (r *Receipt) LineItems() []LineItem {
	items := make([]LineItem, len(r.Items))
	for i, item := range r.Items {
		items[i] = item.Clone()
	}
	return items
}

// SharedCharges returns tax, tip and additional charges in that order.
func (r *Receipt) SharedCharges() []NamedAmount {
	return []NamedAmount{
		{Name: "tax", Amount: r.Tax},
		{Name: "tip", Amount: r.Tip},
		{Name: "additional_charges", Amount: r.AdditionalCharges},
	}
}

// NamedAmount pairs a shared charge with its field name.
type NamedAmount struct {
	Name   string
	Amount Amount
}
