// Package api defines the request and response messages of the splitty
// Connect services. Messages are plain structs carried as JSON.
package api

// ChargeState says whether a shared charge was on the receipt.
type ChargeState string

const (
	ChargePresent ChargeState = "present"
	ChargeAbsent  ChargeState = "absent"

	// ChargeUnparsed means the charge was printed but could not be read as a
	// number. Raw holds the text and the charge counts as 0.
	ChargeUnparsed ChargeState = "unparsed"
)

// Charge is a tax, tip, additional charge or reported total.
type Charge struct {
	State  ChargeState `json:"state"`
	Amount float64     `json:"amount,omitempty"`
	Raw    string      `json:"raw,omitempty"`
}

// LineItem is an item on a receipt or in a session.
type LineItem struct {
	Key          string   `json:"key"`
	Name         string   `json:"name"`
	Quantity     int      `json:"quantity"`
	PricePerUnit float64  `json:"price_per_unit"`
	TotalPrice   float64  `json:"total_price"`
	Assignees    []string `json:"assignees,omitempty"`
}

// Receipt is a recognized receipt.
type Receipt struct {
	Establishment     string     `json:"establishment"`
	Currency          string     `json:"currency"`
	Items             []LineItem `json:"items"`
	Tax               Charge     `json:"tax"`
	Tip               Charge     `json:"tip"`
	AdditionalCharges Charge     `json:"additional_charges"`
	Subtotal          Charge     `json:"subtotal"`
	Total             Charge     `json:"total"`
}

// ItemSplit is the breakdown of one item.
type ItemSplit struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	TotalPrice  float64  `json:"total_price"`
	SharedShare float64  `json:"shared_share"`
	Assignees   []string `json:"assignees,omitempty"`
	PerAssignee float64  `json:"per_assignee"`
}

// PersonItem is one person's part of an item.
type PersonItem struct {
	Key    string  `json:"key"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// PersonSplit is what one person owes. DisplayTotal is rounded to cents so
// that all displayed totals add up to the displayed grand total.
type PersonSplit struct {
	Name         string       `json:"name"`
	Direct       float64      `json:"direct"`
	Shared       float64      `json:"shared"`
	Total        float64      `json:"total"`
	DisplayTotal string       `json:"display_total"`
	Items        []PersonItem `json:"items,omitempty"`
}

type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Split is a computed split. Amounts are unrounded; Display* fields are
// formatted for presentation.
type Split struct {
	Currency               string        `json:"currency"`
	Subtotal               float64       `json:"subtotal"`
	SharedCharges          float64       `json:"shared_charges"`
	GrandTotal             float64       `json:"grand_total"`
	Items                  []ItemSplit   `json:"items"`
	People                 []PersonSplit `json:"people"`
	UnassignedAmount       float64       `json:"unassigned_amount"`
	UnassignedItems        []string      `json:"unassigned_items,omitempty"`
	UnattributedSharedCost float64       `json:"unattributed_shared_cost"`
	Warnings               []Warning     `json:"warnings,omitempty"`

	DisplaySubtotal     string `json:"display_subtotal"`
	DisplayShared       string `json:"display_shared"`
	DisplayGrandTotal   string `json:"display_grand_total"`
	DisplayUnassigned   string `json:"display_unassigned"`
	DisplayUnattributed string `json:"display_unattributed"`
}

// Transfer is a payment that settles part of a split.
type Transfer struct {
	From          string  `json:"from"`
	To            string  `json:"to"`
	Amount        float64 `json:"amount"`
	DisplayAmount string  `json:"display_amount"`
}

// User is the public view of an account.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// AuthService messages.

type SignupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// SessionService messages.

type CreateSessionRequest struct{}

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

type AnalyzeReceiptRequest struct {
	SessionID string `json:"session_id"`
	// Image is the raw photo; base64 in JSON.
	Image []byte `json:"image"`
}

// SessionResponse describes a session after its receipt changed.
type SessionResponse struct {
	SessionID string   `json:"session_id"`
	Token     uint64   `json:"token"`
	BillID    string   `json:"bill_id,omitempty"`
	Receipt   *Receipt `json:"receipt,omitempty"`
	People    []string `json:"people"`
	Split     *Split   `json:"split,omitempty"`
}

type ResetSessionRequest struct {
	SessionID string `json:"session_id"`
}

type ResetSessionResponse struct {
	Token uint64 `json:"token"`
}

type GetSplitRequest struct {
	SessionID string `json:"session_id"`
}

// SplitResponse is returned by every session mutation. Split is nil while
// the session has no receipt.
type SplitResponse struct {
	People []string   `json:"people"`
	Items  []LineItem `json:"items"`
	Split  *Split     `json:"split,omitempty"`
}

type AddPersonRequest struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

type RemovePersonRequest struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

type AssignPersonRequest struct {
	SessionID string `json:"session_id"`
	ItemKey   string `json:"item_key"`
	Name      string `json:"name"`
}

type UnassignPersonRequest struct {
	SessionID string `json:"session_id"`
	ItemKey   string `json:"item_key"`
	Name      string `json:"name"`
}

type AddItemRequest struct {
	SessionID    string  `json:"session_id"`
	Key          string  `json:"key,omitempty"`
	Name         string  `json:"name"`
	Quantity     int     `json:"quantity"`
	PricePerUnit float64 `json:"price_per_unit"`
	TotalPrice   float64 `json:"total_price"`
}

// EditItemRequest changes the fields that are set.
type EditItemRequest struct {
	SessionID    string   `json:"session_id"`
	ItemKey      string   `json:"item_key"`
	Name         *string  `json:"name,omitempty"`
	Quantity     *int     `json:"quantity,omitempty"`
	PricePerUnit *float64 `json:"price_per_unit,omitempty"`
	TotalPrice   *float64 `json:"total_price,omitempty"`
}

type ItemResponse struct {
	Item  *LineItem      `json:"item"`
	State *SplitResponse `json:"state"`
}

type DeleteItemRequest struct {
	SessionID string `json:"session_id"`
	ItemKey   string `json:"item_key"`
}

type SettleUpRequest struct {
	SessionID string `json:"session_id"`
	Payer     string `json:"payer"`
}

type SettleUpResponse struct {
	Transfers []Transfer `json:"transfers"`
	Split     *Split     `json:"split"`
}

type SaveBillRequest struct {
	SessionID string `json:"session_id"`
	Title     string `json:"title,omitempty"`
}

type SaveBillResponse struct {
	BillID    string `json:"bill_id"`
	Timestamp int64  `json:"timestamp"`
}

type ResumeBillRequest struct {
	BillID string `json:"bill_id"`
}

// HistoryService messages.

type BillSummary struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Establishment string  `json:"establishment"`
	Currency      string  `json:"currency"`
	Timestamp     int64   `json:"timestamp"`
	PeopleCount   int     `json:"people_count"`
	ItemsTotal    float64 `json:"items_total"`
}

type ListBillsRequest struct{}

type ListBillsResponse struct {
	Bills []BillSummary `json:"bills"`
}

type GetBillRequest struct {
	BillID string `json:"bill_id"`
}

// Bill is a saved bill with its split recomputed.
type Bill struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Timestamp int64      `json:"timestamp"`
	Receipt   *Receipt   `json:"receipt"`
	People    []string   `json:"people"`
	Items     []LineItem `json:"items"`
	Split     *Split     `json:"split,omitempty"`
}

type GetBillResponse struct {
	Bill *Bill `json:"bill"`
}

type DeleteBillRequest struct {
	BillID string `json:"bill_id"`
}

type DeleteBillResponse struct{}
