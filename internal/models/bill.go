package models

// SplitState is the mutable part of a split session: who is splitting the
// receipt and which items each of them took.
type SplitState struct {
	// People is the roster in display order.
	People []string `json:"people"`

	// Items is the session's live item list. It starts as a copy of the
	// receipt's items and may diverge through edits. Each item carries its
	// assignees.
	Items []LineItem `json:"items"`
}

// Assignments returns item key to assignees for every assigned item.
func (s SplitState) Assignments() map[string][]string {
	out := make(map[string][]string)
	for _, item := range s.Items {
		if len(item.Assignees) > 0 {
			out[item.Key] = append([]string(nil), item.Assignees...)
		}
	}
	return out
}

// SavedBill is a receipt plus its split state, as kept in bill history.
type SavedBill struct {
	// ID is the unique identifier for the bill (UUID format).
	ID string `json:"id"`

	// OwnerID is the user who saved the bill.
	OwnerID string `json:"owner_id"`

	// Title is a human-readable name. Generated from the establishment when empty.
	Title string `json:"title"`

	// Timestamp is the Unix time the bill was saved.
	Timestamp int64 `json:"timestamp"`

	Receipt    Receipt    `json:"receipt"`
	SplitState SplitState `json:"split_state"`
}

// BillSummary is the list view of a saved bill.
type BillSummary struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Establishment string  `json:"establishment"`
	Currency      string  `json:"currency"`
	Timestamp     int64   `json:"timestamp"`
	PeopleCount   int     `json:"people_count"`
	ItemsTotal    float64 `json:"items_total"`
}
