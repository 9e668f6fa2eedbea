package service

import (
	"github.com/mmynk/splitty/internal/calculator"
	"github.com/mmynk/splitty/internal/models"
	"github.com/mmynk/splitty/pkg/api"
)

func toAPICharge(a models.Amount) api.Charge {
	switch {
	case a.IsPresent():
		return api.Charge{State: api.ChargePresent, Amount: a.Float64()}
	case a.IsUnparsed():
		return api.Charge{State: api.ChargeUnparsed, Raw: a.Raw()}
	default:
		return api.Charge{State: api.ChargeAbsent}
	}
}

func toAPIItem(item models.LineItem) api.LineItem {
	return api.LineItem{
		Key:          item.Key,
		Name:         item.Name,
		Quantity:     item.Quantity,
		PricePerUnit: item.PricePerUnit,
		TotalPrice:   item.TotalPrice,
		Assignees:    item.Assignees,
	}
}

func toAPIItems(items []models.LineItem) []api.LineItem {
	out := make([]api.LineItem, len(items))
	for i, item := range items {
		out[i] = toAPIItem(item)
	}
	return out
}

func toAPIReceipt(r *models.Receipt) *api.Receipt {
	if r == nil {
		return nil
	}
	return &api.Receipt{
		Establishment:     r.Establishment,
		Currency:          r.Currency,
		Items:             toAPIItems(r.Items),
		Tax:               toAPICharge(r.Tax),
		Tip:               toAPICharge(r.Tip),
		AdditionalCharges: toAPICharge(r.AdditionalCharges),
		Subtotal:          toAPICharge(r.ReportedSubtotal),
		Total:             toAPICharge(r.ReportedTotal),
	}
}

// toAPISplit converts a result, adding cent-rounded display values whose
// parts add up to the displayed grand total.
func toAPISplit(r *calculator.Result) *api.Split {
	if r == nil {
		return nil
	}
	display := r.Display()
	format := func(cents int64) string { return calculator.FormatCents(cents, r.Currency) }

	split := &api.Split{
		Currency:               r.Currency,
		Subtotal:               r.Subtotal,
		SharedCharges:          r.SharedCharges,
		GrandTotal:             r.GrandTotal,
		Items:                  make([]api.ItemSplit, len(r.Items)),
		People:                 make([]api.PersonSplit, len(r.People)),
		UnassignedAmount:       r.UnassignedAmount,
		UnassignedItems:        r.UnassignedItems,
		UnattributedSharedCost: r.UnattributedSharedCost,
		DisplaySubtotal:        format(display.Subtotal),
		DisplayShared:          format(display.Shared),
		DisplayGrandTotal:      format(display.GrandTotal),
		DisplayUnassigned:      format(display.Unassigned),
		DisplayUnattributed:    format(display.Unattributed),
	}
	for i, item := range r.Items {
		split.Items[i] = api.ItemSplit{
			Key:         item.Key,
			Name:        item.Name,
			TotalPrice:  item.TotalPrice,
			SharedShare: item.SharedShare,
			Assignees:   item.Assignees,
			PerAssignee: item.PerAssignee,
		}
	}
	for i, p := range r.People {
		items := make([]api.PersonItem, len(p.Items))
		for j, it := range p.Items {
			items[j] = api.PersonItem{Key: it.Key, Name: it.Name, Amount: it.Amount}
		}
		split.People[i] = api.PersonSplit{
			Name:         p.Name,
			Direct:       p.Direct,
			Shared:       p.Shared,
			Total:        p.Total,
			DisplayTotal: format(display.People[i].Total),
			Items:        items,
		}
	}
	for _, w := range r.Warnings {
		split.Warnings = append(split.Warnings, api.Warning{Code: string(w.Code), Message: w.Message})
	}
	return split
}

func toAPITransfers(transfers []calculator.Transfer, currency string) []api.Transfer {
	out := make([]api.Transfer, len(transfers))
	for i, t := range transfers {
		out[i] = api.Transfer{
			From:          t.From,
			To:            t.To,
			Amount:        t.Amount,
			DisplayAmount: calculator.FormatCents(calculator.ToCents(t.Amount), currency),
		}
	}
	return out
}

func toAPIUser(u *models.User) *api.User {
	return &api.User{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName}
}

func toAPISummary(s models.BillSummary) api.BillSummary {
	return api.BillSummary{
		ID:            s.ID,
		Title:         s.Title,
		Establishment: s.Establishment,
		Currency:      s.Currency,
		Timestamp:     s.Timestamp,
		PeopleCount:   s.PeopleCount,
		ItemsTotal:    s.ItemsTotal,
	}
}
