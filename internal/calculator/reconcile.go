package calculator

import (
	"fmt"
	"math"

	"github.com/mmynk/splitty/internal/models"
)

// ReconciliationTolerance is the absolute tolerance for reconciliation checks.
const ReconciliationTolerance = 1e-6

// Reported totals may drift from the computed total by this ratio, with a
// floor of one cent, before a warning is raised.
const (
	mismatchRatio = 0.01
	mismatchFloor = 0.01
)

// WarningCode identifies a non-fatal problem with a split.
type WarningCode string

const (
	WarningNonNumericCharge WarningCode = "non_numeric_charge"
	WarningTotalMismatch    WarningCode = "total_mismatch"
	WarningUnassignedItems  WarningCode = "unassigned_items"
)

// Warning accompanies a valid result.
type Warning struct {
	Code    WarningCode
	Message string
}

// HasWarning reports whether the result carries a warning with code.
func (r *Result) HasWarning(code WarningCode) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// ReconciliationError means the computed allocation does not add up.
// It indicates a bug in the engine, not bad input.
type ReconciliationError struct {
	Check    string
	Expected float64
	Actual   float64
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("split does not reconcile (%s): expected %.9f, got %.9f",
		e.Check, e.Expected, e.Actual)
}

// Reconcile verifies that
//
//	sum(person totals) + unassigned + unattributed == grand total
//
// and, when the subtotal is positive, that the prorated item shares add up to
// the shared charges.
func Reconcile(r *Result) error {
	attributed := r.UnassignedAmount + r.UnattributedSharedCost
	for _, p := range r.People {
		attributed += p.Total
	}
	if !within(attributed, r.GrandTotal) || math.IsInf(r.GrandTotal, 0) {
		return &ReconciliationError{Check: "grand total", Expected: r.GrandTotal, Actual: attributed}
	}

	if r.Subtotal > 0 {
		var prorated float64
		for _, item := range r.Items {
			prorated += item.SharedShare
		}
		if !within(prorated, r.SharedCharges) {
			return &ReconciliationError{Check: "prorated shares", Expected: r.SharedCharges, Actual: prorated}
		}
	}
	return nil
}

// within is false for NaN and infinite differences.
func within(a, b float64) bool {
	return math.Abs(a-b) <= ReconciliationTolerance
}

// checkReportedTotal compares the recognizer's total with the computed one.
func checkReportedTotal(reported models.Amount, grandTotal float64) *Warning {
	if !reported.IsPresent() {
		return nil
	}
	tolerance := math.Max(math.Abs(grandTotal)*mismatchRatio, mismatchFloor)
	diff := reported.Float64() - grandTotal
	if math.Abs(diff) <= tolerance {
		return nil
	}
	return &Warning{
		Code: WarningTotalMismatch,
		Message: fmt.Sprintf("receipt total %.2f differs from computed total %.2f by %.2f",
			reported.Float64(), grandTotal, diff),
	}
}
