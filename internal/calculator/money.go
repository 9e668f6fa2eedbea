package calculator

import (
	"fmt"
	"math"
	"sort"
)

// RoundCents rounds a float to 2 decimal places.
func RoundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// ToCents converts an amount to whole cents, rounding half away from zero.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FormatCents renders cents with the receipt currency, e.g. "$3.34".
func FormatCents(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%s%d.%02d", sign, currency, cents/100, cents%100)
}

// DisplayCents converts amounts to cents so that the parts add up to the
// rounded total. Cents left over after truncation go to the amounts with the
// largest fractional remainder; ties go to the earlier amount.
//
// $10.00 split three ways displays as 3.34, 3.33, 3.33.
func DisplayCents(amounts []float64, total float64) []int64 {
	out := make([]int64, len(amounts))
	if len(amounts) == 0 {
		return out
	}

	type remainder struct {
		idx  int
		frac float64
	}
	rems := make([]remainder, len(amounts))
	var sum int64
	for i, a := range amounts {
		scaled := a * 100
		whole := math.Floor(scaled)
		out[i] = int64(whole)
		sum += out[i]
		rems[i] = remainder{idx: i, frac: scaled - whole}
	}

	diff := ToCents(total) - sum
	if diff == 0 {
		return out
	}

	sort.SliceStable(rems, func(i, j int) bool { return rems[i].frac > rems[j].frac })
	step := int64(1)
	if diff < 0 {
		// Take cents back from the smallest remainders first.
		step = -1
		for l, r := 0, len(rems)-1; l < r; l, r = l+1, r-1 {
			rems[l], rems[r] = rems[r], rems[l]
		}
	}
	for n := 0; diff != 0; n++ {
		out[rems[n%len(rems)].idx] += step
		diff -= step
	}
	return out
}

// Display is a Result rounded for presentation. The parts add up to
// GrandTotal exactly, and so do Subtotal and Shared.
type Display struct {
	Currency     string
	Subtotal     int64
	Shared       int64
	GrandTotal   int64
	People       []PersonDisplay
	Unassigned   int64
	Unattributed int64
}

// PersonDisplay is one person's rounded total.
type PersonDisplay struct {
	Name  string
	Total int64
}

// Display rounds the result to cents at presentation time.
func (r *Result) Display() Display {
	amounts := make([]float64, 0, len(r.People)+2)
	for _, p := range r.People {
		amounts = append(amounts, p.Total)
	}
	amounts = append(amounts, r.UnassignedAmount, r.UnattributedSharedCost)
	cents := DisplayCents(amounts, r.GrandTotal)

	d := Display{
		Currency:     r.Currency,
		Subtotal:     ToCents(r.Subtotal),
		Shared:       ToCents(r.GrandTotal) - ToCents(r.Subtotal),
		GrandTotal:   ToCents(r.GrandTotal),
		People:       make([]PersonDisplay, len(r.People)),
		Unassigned:   cents[len(r.People)],
		Unattributed: cents[len(r.People)+1],
	}
	for i, p := range r.People {
		d.People[i] = PersonDisplay{Name: p.Name, Total: cents[i]}
	}
	return d
}
