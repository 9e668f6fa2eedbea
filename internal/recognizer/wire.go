package recognizer

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/mmynk/splitty/internal/models"
)

// analysisItem and analysisResponse mirror the JSON the analysis service
// returns. Missing values are reported as "NA".
type analysisItem struct {
	Name         string        `json:"name"`
	Quantity     models.Amount `json:"quantity"`
	PricePerItem models.Amount `json:"price_per_item"`
	TotalPrice   models.Amount `json:"total_price"`
}

type analysisResponse struct {
	NameOfEstablishment string         `json:"name_of_establishment"`
	Currency            string         `json:"currency"`
	Items               []analysisItem `json:"items"`
	NumberOfItems       models.Amount  `json:"number_of_items"`
	Subtotal            models.Amount  `json:"subtotal"`
	Tax                 models.Amount  `json:"tax"`
	Tip                 models.Amount  `json:"tip"`
	AdditionalCharges   models.Amount  `json:"additional_charges"`
	Total               models.Amount  `json:"total"`
}

// DecodeReceipt parses an analysis response and validates it.
func DecodeReceipt(data []byte) (*models.Receipt, error) {
	var resp analysisResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &models.MalformedReceiptError{Reason: fmt.Sprintf("invalid analysis JSON: %v", err)}
	}

	currency := strings.TrimSpace(resp.Currency)
	if strings.EqualFold(currency, "NA") {
		currency = ""
	}

	receipt := models.Receipt{
		Establishment:     strings.TrimSpace(resp.NameOfEstablishment),
		Currency:          currency,
		Items:             make([]models.LineItem, 0, len(resp.Items)),
		Tax:               resp.Tax,
		Tip:               resp.Tip,
		AdditionalCharges: resp.AdditionalCharges,
		ReportedSubtotal:  resp.Subtotal,
		ReportedTotal:     resp.Total,
	}

	for i, wi := range resp.Items {
		item, err := convertItem(i, wi)
		if err != nil {
			return nil, &models.MalformedReceiptError{Reason: err.Error()}
		}
		receipt.Items = append(receipt.Items, item)
	}

	return models.NewReceipt(receipt)
}

func convertItem(idx int, wi analysisItem) (models.LineItem, error) {
	name := strings.TrimSpace(wi.Name)
	if name == "" {
		name = fmt.Sprintf("Item %d", idx+1)
	}

	quantity := 1
	switch {
	case wi.Quantity.IsUnparsed():
		return models.LineItem{}, fmt.Errorf("item %q: quantity %q is not a number", name, wi.Quantity.Raw())
	case wi.Quantity.IsPresent():
		q := wi.Quantity.Float64()
		if q != math.Trunc(q) {
			return models.LineItem{}, fmt.Errorf("item %q: quantity %v is not a whole number", name, q)
		}
		quantity = int(q)
	}

	if wi.PricePerItem.IsUnparsed() {
		return models.LineItem{}, fmt.Errorf("item %q: price %q is not a number", name, wi.PricePerItem.Raw())
	}
	if wi.TotalPrice.IsUnparsed() {
		return models.LineItem{}, fmt.Errorf("item %q: total %q is not a number", name, wi.TotalPrice.Raw())
	}

	return models.LineItem{
		Name:         name,
		Quantity:     quantity,
		PricePerUnit: wi.PricePerItem.Float64(),
		TotalPrice:   wi.TotalPrice.Float64(),
	}, nil
}
