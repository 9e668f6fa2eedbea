package calculator

import (
	"errors"
	"fmt"

	"github.com/mmynk/splitty/internal/assignment"
	"github.com/mmynk/splitty/internal/models"
)

// ItemSplit is the allocation of one line item.
type ItemSplit struct {
	Key        string
	Name       string
	TotalPrice float64

	// SharedShare is the item's prorated part of the shared charges.
	SharedShare float64

	Assignees []string

	// PerAssignee is TotalPrice divided equally among the assignees,
	// 0 when the item is unassigned.
	PerAssignee float64
}

// PersonItem represents an item's share for one person.
type PersonItem struct {
	Key    string
	Name   string
	Amount float64 // This person's share of the item
}

// PersonSplit represents the calculated split for one person
type PersonSplit struct {
	Name string

	// Direct is the sum of this person's item shares.
	Direct float64

	// Shared is this person's flat share of tax, tip and additional charges.
	Shared float64

	// Total is Direct + Shared.
	Total float64

	Items []PersonItem
}

// Result is the full cost breakdown of a split session.
// All amounts are unrounded.
type Result struct {
	Currency string

	// Subtotal is the sum of the session's live item totals.
	Subtotal float64

	// SharedCharges is tax + tip + additional charges.
	SharedCharges float64

	// GrandTotal is Subtotal + SharedCharges.
	GrandTotal float64

	Items  []ItemSplit
	People []PersonSplit

	// UnassignedAmount is the item value nobody has been assigned.
	UnassignedAmount float64
	UnassignedItems  []string

	// UnattributedSharedCost is the shared charges left over when there is
	// nobody to split them with.
	UnattributedSharedCost float64

	Warnings []Warning
}

// Person returns the split for name.
func (r *Result) Person(name string) (PersonSplit, bool) {
	for _, p := range r.People {
		if p.Name == name {
			return p, true
		}
	}
	return PersonSplit{}, false
}

// ComputeSplit computes how much each person owes.
//
// Algorithm:
//   - subtotal = sum of live item totals
//   - shared = tax + tip + additional charges (absent or unreadable count as 0)
//   - each item's shared share = shared * item_total / subtotal (0 when subtotal is 0)
//   - each assignee of an item owes item_total / assignee_count
//   - shared charges are split equally by headcount
//
// The result is checked for reconciliation before it is returned.
func ComputeSplit(receipt *models.Receipt, store *assignment.Store) (*Result, error) {
	if receipt == nil || store == nil {
		return nil, errors.New("receipt and assignment store are required")
	}

	items := store.Items()
	people := store.People()

	result := &Result{
		Currency: receipt.Currency,
		Items:    make([]ItemSplit, len(items)),
		People:   make([]PersonSplit, len(people)),
	}

	for _, item := range items {
		result.Subtotal += item.TotalPrice
	}

	for _, charge := range receipt.SharedCharges() {
		if charge.Amount.IsUnparsed() {
			result.Warnings = append(result.Warnings, Warning{
				Code:    WarningNonNumericCharge,
				Message: fmt.Sprintf("%s %q is not a number and was counted as 0", charge.Name, charge.Amount.Raw()),
			})
			continue
		}
		result.SharedCharges += charge.Amount.Float64()
	}

	result.GrandTotal = result.Subtotal + result.SharedCharges

	// Initialize splits for all people
	index := make(map[string]int, len(people))
	for i, name := range people {
		result.People[i] = PersonSplit{Name: name}
		index[name] = i
	}

	for i, item := range items {
		split := ItemSplit{
			Key:        item.Key,
			Name:       item.Name,
			TotalPrice: item.TotalPrice,
			Assignees:  item.Assignees,
		}
		if result.Subtotal != 0 {
			split.SharedShare = result.SharedCharges * (item.TotalPrice / result.Subtotal)
		}

		if len(item.Assignees) == 0 {
			result.UnassignedAmount += item.TotalPrice
			result.UnassignedItems = append(result.UnassignedItems, item.Key)
			result.Items[i] = split
			continue
		}

		// Split item among assigned people
		split.PerAssignee = item.TotalPrice / float64(len(item.Assignees))
		for _, name := range item.Assignees {
			p, ok := index[name]
			if !ok {
				return nil, fmt.Errorf("item %q is assigned to %q who is not on the roster", item.Key, name)
			}
			result.People[p].Direct += split.PerAssignee
			result.People[p].Items = append(result.People[p].Items, PersonItem{
				Key:    item.Key,
				Name:   item.Name,
				Amount: split.PerAssignee,
			})
		}
		result.Items[i] = split
	}

	if len(people) == 0 {
		result.UnattributedSharedCost = result.SharedCharges
	} else {
		perPerson := result.SharedCharges / float64(len(people))
		for i := range result.People {
			result.People[i].Shared = perPerson
		}
	}

	for i := range result.People {
		result.People[i].Total = result.People[i].Direct + result.People[i].Shared
	}

	if len(result.UnassignedItems) > 0 {
		result.Warnings = append(result.Warnings, Warning{
			Code: WarningUnassignedItems,
			Message: fmt.Sprintf("%d item(s) worth %.2f are not assigned to anyone",
				len(result.UnassignedItems), result.UnassignedAmount),
		})
	}
	if w := checkReportedTotal(receipt.ReportedTotal, result.GrandTotal); w != nil {
		result.Warnings = append(result.Warnings, *w)
	}

	if err := Reconcile(result); err != nil {
		return nil, err
	}
	return result, nil
}
