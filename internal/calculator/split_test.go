package calculator

import (
	"errors"
	"math"
	"testing"

	"github.com/mmynk/splitty/internal/assignment"
	"github.com/mmynk/splitty/internal/models"
)

type assign struct {
	item   string
	people []string
}

func dinerReceipt(t *testing.T) *models.Receipt {
	t.Helper()
	r, err := models.NewReceipt(models.Receipt{
		Establishment: "Diner",
		Currency:      "$",
		Items: []models.LineItem{
			{Key: "burger", Name: "Burger", Quantity: 1, PricePerUnit: 10, TotalPrice: 10},
			{Key: "fries", Name: "Fries", Quantity: 1, PricePerUnit: 5, TotalPrice: 5},
		},
		Tax:               models.Present(1),
		Tip:               models.Present(2),
		AdditionalCharges: models.Absent(),
		ReportedTotal:     models.Present(18),
	})
	if err != nil {
		t.Fatalf("NewReceipt() error = %v", err)
	}
	return r
}

func buildStore(t *testing.T, r *models.Receipt, people []string, assigns []assign) *assignment.Store {
	t.Helper()
	s := assignment.NewStore(r.LineItems())
	for _, p := range people {
		if err := s.AddPerson(p); err != nil {
			t.Fatalf("AddPerson(%q) error = %v", p, err)
		}
	}
	for _, a := range assigns {
		for _, p := range a.people {
			if err := s.AssignPerson(a.item, p); err != nil {
				t.Fatalf("AssignPerson(%q, %q) error = %v", a.item, p, err)
			}
		}
	}
	return s
}

func near(got, want float64) bool {
	return math.Abs(got-want) <= 1e-9
}

func checkPerson(t *testing.T, r *Result, name string, direct, shared, total float64) {
	t.Helper()
	p, ok := r.Person(name)
	if !ok {
		t.Fatalf("missing split for %s", name)
	}
	if !near(p.Direct, direct) {
		t.Errorf("%s direct = %v, want %v", name, p.Direct, direct)
	}
	if !near(p.Shared, shared) {
		t.Errorf("%s shared = %v, want %v", name, p.Shared, shared)
	}
	if !near(p.Total, total) {
		t.Errorf("%s total = %v, want %v", name, p.Total, total)
	}
}

func TestComputeSplit(t *testing.T) {
	tests := []struct {
		name         string
		receipt      func(t *testing.T) *models.Receipt
		people       []string
		assigns      []assign
		validateFunc func(t *testing.T, r *Result)
	}{
		{
			name:    "burger and fries between two people",
			receipt: dinerReceipt,
			people:  []string{"Alice", "Bob"},
			assigns: []assign{{"burger", []string{"Alice"}}, {"fries", []string{"Bob"}}},
			validateFunc: func(t *testing.T, r *Result) {
				// Subtotal 15, shared 3 split 1.50 each
				if !near(r.Subtotal, 15) || !near(r.SharedCharges, 3) || !near(r.GrandTotal, 18) {
					t.Errorf("totals = %v/%v/%v, want 15/3/18", r.Subtotal, r.SharedCharges, r.GrandTotal)
				}
				checkPerson(t, r, "Alice", 10, 1.5, 11.5)
				checkPerson(t, r, "Bob", 5, 1.5, 6.5)
				if r.UnassignedAmount != 0 || r.UnattributedSharedCost != 0 {
					t.Errorf("unassigned = %v, unattributed = %v, want 0", r.UnassignedAmount, r.UnattributedSharedCost)
				}
				if len(r.Warnings) != 0 {
					t.Errorf("unexpected warnings: %+v", r.Warnings)
				}
			},
		},
		{
			name:    "no people leaves everything unattributed",
			receipt: dinerReceipt,
			validateFunc: func(t *testing.T, r *Result) {
				if len(r.People) != 0 {
					t.Errorf("people = %d, want 0", len(r.People))
				}
				if !near(r.UnattributedSharedCost, 3) {
					t.Errorf("unattributed = %v, want 3", r.UnattributedSharedCost)
				}
				if !near(r.UnassignedAmount, 15) {
					t.Errorf("unassigned = %v, want 15", r.UnassignedAmount)
				}
				if !near(r.UnassignedAmount+r.UnattributedSharedCost, r.GrandTotal) {
					t.Errorf("unassigned + unattributed = %v, want %v", r.UnassignedAmount+r.UnattributedSharedCost, r.GrandTotal)
				}
				if !r.HasWarning(WarningUnassignedItems) {
					t.Error("expected unassigned items warning")
				}
			},
		},
		{
			name: "nine dollars three ways",
			receipt: func(t *testing.T) *models.Receipt {
				return mustReceipt(t, []models.LineItem{{Key: "pizza", Name: "Pizza", Quantity: 1, PricePerUnit: 9}}, models.Absent())
			},
			people:  []string{"A", "B", "C"},
			assigns: []assign{{"pizza", []string{"A", "B", "C"}}},
			validateFunc: func(t *testing.T, r *Result) {
				for _, name := range []string{"A", "B", "C"} {
					p, _ := r.Person(name)
					if p.Direct != 3.0 {
						t.Errorf("%s direct = %v, want exactly 3", name, p.Direct)
					}
				}
			},
		},
		{
			name: "ten dollars three ways reconciles",
			receipt: func(t *testing.T) *models.Receipt {
				return mustReceipt(t, []models.LineItem{{Key: "pizza", Name: "Pizza", Quantity: 1, PricePerUnit: 10}}, models.Absent())
			},
			people:  []string{"A", "B", "C"},
			assigns: []assign{{"pizza", []string{"A", "B", "C"}}},
			validateFunc: func(t *testing.T, r *Result) {
				var sum float64
				for _, p := range r.People {
					sum += p.Total
				}
				if math.Abs(sum-10) > ReconciliationTolerance {
					t.Errorf("sum of totals = %v, want 10", sum)
				}
				d := r.Display()
				want := []int64{334, 333, 333}
				for i, p := range d.People {
					if p.Total != want[i] {
						t.Errorf("%s displayed = %d, want %d", p.Name, p.Total, want[i])
					}
				}
			},
		},
		{
			name: "shared item and unassigned item",
			receipt: func(t *testing.T) *models.Receipt {
				return mustReceipt(t, []models.LineItem{
					{Key: "pizza", Name: "Pizza", Quantity: 1, PricePerUnit: 20},
					{Key: "salad", Name: "Salad", Quantity: 1, PricePerUnit: 10},
					{Key: "wine", Name: "Wine", Quantity: 2, PricePerUnit: 7.5},
				}, models.Present(4.5))
			},
			people:  []string{"Alice", "Bob"},
			assigns: []assign{{"pizza", []string{"Alice", "Bob"}}, {"salad", []string{"Alice"}}},
			validateFunc: func(t *testing.T, r *Result) {
				// Alice: 10 + 10 + 2.25, Bob: 10 + 2.25, wine unassigned
				checkPerson(t, r, "Alice", 20, 2.25, 22.25)
				checkPerson(t, r, "Bob", 10, 2.25, 12.25)
				if !near(r.UnassignedAmount, 15) {
					t.Errorf("unassigned = %v, want 15", r.UnassignedAmount)
				}
				if len(r.UnassignedItems) != 1 || r.UnassignedItems[0] != "wine" {
					t.Errorf("unassigned items = %v, want [wine]", r.UnassignedItems)
				}
				alice, _ := r.Person("Alice")
				if len(alice.Items) != 2 {
					t.Errorf("Alice items = %d, want 2", len(alice.Items))
				}
			},
		},
		{
			name: "zero subtotal has no prorated shares",
			receipt: func(t *testing.T) *models.Receipt {
				return mustReceipt(t, []models.LineItem{
					{Key: "water", Name: "Water", Quantity: 2, PricePerUnit: 0},
				}, models.Present(3))
			},
			people:  []string{"Alice", "Bob"},
			assigns: []assign{{"water", []string{"Alice"}}},
			validateFunc: func(t *testing.T, r *Result) {
				if r.Items[0].SharedShare != 0 {
					t.Errorf("item share = %v, want 0", r.Items[0].SharedShare)
				}
				checkPerson(t, r, "Alice", 0, 1.5, 1.5)
				checkPerson(t, r, "Bob", 0, 1.5, 1.5)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			receipt := tt.receipt(t)
			store := buildStore(t, receipt, tt.people, tt.assigns)

			result, err := ComputeSplit(receipt, store)
			if err != nil {
				t.Fatalf("ComputeSplit() error = %v", err)
			}
			tt.validateFunc(t, result)
		})
	}
}

func mustReceipt(t *testing.T, items []models.LineItem, tax models.Amount) *models.Receipt {
	t.Helper()
	r, err := models.NewReceipt(models.Receipt{Currency: "$", Items: items, Tax: tax})
	if err != nil {
		t.Fatalf("NewReceipt() error = %v", err)
	}
	return r
}

func TestComputeSplit_ProratedSharesSumToSharedCharges(t *testing.T) {
	receipt := mustReceipt(t, []models.LineItem{
		{Key: "a", Name: "A", Quantity: 3, PricePerUnit: 3.33},
		{Key: "b", Name: "B", Quantity: 1, PricePerUnit: 17.01},
		{Key: "c", Name: "C", Quantity: 7, PricePerUnit: 0.99},
	}, models.Present(2.87))
	store := buildStore(t, receipt, nil, nil)

	result, err := ComputeSplit(receipt, store)
	if err != nil {
		t.Fatalf("ComputeSplit() error = %v", err)
	}

	var sum float64
	for _, item := range result.Items {
		sum += item.SharedShare
	}
	if math.Abs(sum-result.SharedCharges) > ReconciliationTolerance {
		t.Errorf("sum of item shares = %v, want %v", sum, result.SharedCharges)
	}
}

func TestComputeSplit_ChargeHandling(t *testing.T) {
	tests := []struct {
		name        string
		tax, tip    models.Amount
		extra       models.Amount
		reported    models.Amount
		wantShared  float64
		wantWarning []WarningCode
	}{
		{
			name:       "absent charges count as zero",
			tax:        models.Absent(),
			tip:        models.Absent(),
			extra:      models.Absent(),
			wantShared: 0,
		},
		{
			name:        "non-numeric tip is zero and flagged",
			tax:         models.Present(1),
			tip:         models.Unparsed("ten percent"),
			extra:       models.Present(0.5),
			wantShared:  1.5,
			wantWarning: []WarningCode{WarningNonNumericCharge},
		},
		{
			name:        "reported total far from computed",
			tax:         models.Present(1),
			reported:    models.Present(25),
			wantShared:  1,
			wantWarning: []WarningCode{WarningTotalMismatch},
		},
		{
			name:       "reported total within one percent",
			tax:        models.Present(1),
			reported:   models.Present(16.1),
			wantShared: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			receipt, err := models.NewReceipt(models.Receipt{
				Currency: "€",
				Items: []models.LineItem{
					{Key: "x", Name: "X", Quantity: 1, PricePerUnit: 15},
				},
				Tax:               tt.tax,
				Tip:               tt.tip,
				AdditionalCharges: tt.extra,
				ReportedTotal:     tt.reported,
			})
			if err != nil {
				t.Fatalf("NewReceipt() error = %v", err)
			}
			store := buildStore(t, receipt, []string{"Alice"}, []assign{{"x", []string{"Alice"}}})

			result, err := ComputeSplit(receipt, store)
			if err != nil {
				t.Fatalf("ComputeSplit() error = %v", err)
			}
			if !near(result.SharedCharges, tt.wantShared) {
				t.Errorf("shared = %v, want %v", result.SharedCharges, tt.wantShared)
			}
			if len(result.Warnings) != len(tt.wantWarning) {
				t.Fatalf("warnings = %+v, want %v", result.Warnings, tt.wantWarning)
			}
			for _, code := range tt.wantWarning {
				if !result.HasWarning(code) {
					t.Errorf("missing warning %s", code)
				}
			}
		})
	}
}

func TestComputeSplit_RecomputesAfterMutation(t *testing.T) {
	receipt := dinerReceipt(t)
	store := buildStore(t, receipt, []string{"Alice", "Bob"},
		[]assign{{"burger", []string{"Alice"}}, {"fries", []string{"Alice", "Bob"}}})

	qty := 2
	if _, err := store.EditItem("burger", assignment.ItemPatch{Quantity: &qty}); err != nil {
		t.Fatalf("EditItem() error = %v", err)
	}
	result, err := ComputeSplit(receipt, store)
	if err != nil {
		t.Fatalf("ComputeSplit() error = %v", err)
	}
	if !near(result.Subtotal, 25) {
		t.Errorf("subtotal after edit = %v, want 25", result.Subtotal)
	}
	checkPerson(t, result, "Alice", 22.5, 1.5, 24)

	store.RemovePerson("Alice")
	result, err = ComputeSplit(receipt, store)
	if err != nil {
		t.Fatalf("ComputeSplit() error = %v", err)
	}
	if _, ok := result.Person("Alice"); ok {
		t.Error("Alice still present after removal")
	}
	// Burger is now unassigned; Bob keeps the fries and all shared charges.
	checkPerson(t, result, "Bob", 5, 3, 8)
	if !near(result.UnassignedAmount, 20) {
		t.Errorf("unassigned = %v, want 20", result.UnassignedAmount)
	}

	for _, item := range store.Items() {
		if err := store.DeleteItem(item.Key); err != nil {
			t.Fatalf("DeleteItem() error = %v", err)
		}
	}
	result, err = ComputeSplit(receipt, store)
	if err != nil {
		t.Fatalf("ComputeSplit() error = %v", err)
	}
	if result.Subtotal != 0 || !near(result.GrandTotal, 3) {
		t.Errorf("subtotal/grand = %v/%v, want 0/3", result.Subtotal, result.GrandTotal)
	}
}

func TestComputeSplit_RequiresInputs(t *testing.T) {
	if _, err := ComputeSplit(nil, assignment.NewStore(nil)); err == nil {
		t.Error("expected error for nil receipt")
	}
}

func TestReconcile(t *testing.T) {
	good := &Result{
		Subtotal:      10,
		SharedCharges: 2,
		GrandTotal:    12,
		Items:         []ItemSplit{{SharedShare: 2}},
		People:        []PersonSplit{{Name: "A", Total: 7}, {Name: "B", Total: 5}},
	}
	if err := Reconcile(good); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	bad := *good
	bad.People = []PersonSplit{{Name: "A", Total: 7}, {Name: "B", Total: 4.99}}
	err := Reconcile(&bad)
	var recErr *ReconciliationError
	if !errors.As(err, &recErr) {
		t.Fatalf("Reconcile() error = %v, want ReconciliationError", err)
	}
	if recErr.Check != "grand total" {
		t.Errorf("check = %q, want grand total", recErr.Check)
	}

	badShares := *good
	badShares.Items = []ItemSplit{{SharedShare: 1.5}}
	if err := Reconcile(&badShares); !errors.As(err, &recErr) || recErr.Check != "prorated shares" {
		t.Errorf("Reconcile() error = %v, want prorated shares failure", err)
	}

	nonFinite := []struct {
		name string
		r    Result
	}{
		{"infinite totals", Result{GrandTotal: math.Inf(1), People: []PersonSplit{{Name: "A", Total: math.Inf(1)}}}},
		{"NaN person total", Result{GrandTotal: 12, People: []PersonSplit{{Name: "A", Total: math.NaN()}}}},
		{"NaN shares", Result{Subtotal: 10, SharedCharges: 2, GrandTotal: 12,
			Items: []ItemSplit{{SharedShare: math.NaN()}}, People: []PersonSplit{{Name: "A", Total: 12}}}},
	}
	for _, tt := range nonFinite {
		t.Run(tt.name, func(t *testing.T) {
			if err := Reconcile(&tt.r); !errors.As(err, &recErr) {
				t.Errorf("Reconcile() error = %v, want ReconciliationError", err)
			}
		})
	}
}
