package calculator

import (
	"errors"
	"fmt"
	"sort"
)

// settleEpsilon drops transfers and balances below half a cent.
const settleEpsilon = 0.005

var ErrUnknownPayer = errors.New("payer is not on the roster")

// Transfer is a payment from one person to another to settle the receipt.
type Transfer struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount float64
}

type balance struct {
	name   string
	amount float64
}

// SettleUp returns the transfers needed when payer paid the whole receipt.
func SettleUp(r *Result, payer string) ([]Transfer, error) {
	return Settle(r, map[string]float64{payer: r.GrandTotal})
}

// Settle computes who pays whom given what each person actually paid.
//
// Algorithm:
//   - net balance = paid - owed (positive = owed money)
//   - creditors and debtors are sorted by amount, largest first
//   - greedy matching of largest debts with largest credits
//
// Amounts nobody owes (unassigned items, unattributed charges) stay with
// whoever paid them.
func Settle(r *Result, paid map[string]float64) ([]Transfer, error) {
	net := make(map[string]float64, len(r.People))
	for _, p := range r.People {
		net[p.Name] = -p.Total
	}
	for name, amount := range paid {
		if _, ok := net[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPayer, name)
		}
		if amount < 0 {
			return nil, fmt.Errorf("payment by %s cannot be negative", name)
		}
		net[name] += amount
	}

	var creditors, debtors []balance
	for _, p := range r.People {
		switch amount := net[p.Name]; {
		case amount > settleEpsilon:
			creditors = append(creditors, balance{name: p.Name, amount: amount})
		case amount < -settleEpsilon:
			debtors = append(debtors, balance{name: p.Name, amount: -amount})
		}
	}
	byAmount := func(list []balance) func(i, j int) bool {
		return func(i, j int) bool { return list[i].amount > list[j].amount }
	}
	sort.SliceStable(creditors, byAmount(creditors))
	sort.SliceStable(debtors, byAmount(debtors))

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		// Amount to settle is minimum of what debtor owes and creditor is owed
		amount := min(debtors[i].amount, creditors[j].amount)
		if amount > settleEpsilon {
			transfers = append(transfers, Transfer{
				From:   debtors[i].name,
				To:     creditors[j].name,
				Amount: amount,
			})
		}

		debtors[i].amount -= amount
		creditors[j].amount -= amount

		// Move to next debtor/creditor if fully settled
		if debtors[i].amount <= settleEpsilon {
			i++
		}
		if creditors[j].amount <= settleEpsilon {
			j++
		}
	}

	return transfers, nil
}
