package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type amountState uint8

const (
	amountAbsent amountState = iota
	amountPresent
	amountUnparsed
)

// Amount is an optional money value reported by the recognizer.
// The zero value is absent.
type Amount struct {
	state amountState
	value float64
	raw   string
}

// Present returns an Amount holding v.
func Present(v float64) Amount {
	return Amount{state: amountPresent, value: v}
}

// Absent returns an Amount marked "not applicable".
func Absent() Amount {
	return Amount{}
}

// Unparsed returns an Amount that was reported but could not be read as a number.
func Unparsed(raw string) Amount {
	return Amount{state: amountUnparsed, raw: raw}
}

// IsPresent reports whether the amount holds a number.
func (a Amount) IsPresent() bool { return a.state == amountPresent }

// IsAbsent reports whether the amount is "not applicable".
func (a Amount) IsAbsent() bool { return a.state == amountAbsent }

// IsUnparsed reports whether the amount was reported with a non-numeric value.
func (a Amount) IsUnparsed() bool { return a.state == amountUnparsed }

// Float64 returns the numeric value, or 0 when the amount is absent or unparsed.
func (a Amount) Float64() float64 {
	if a.state != amountPresent {
		return 0
	}
	return a.value
}

// Raw returns the original text of an unparsed amount.
func (a Amount) Raw() string { return a.raw }

// String formats the amount for display: "NA" when absent.
func (a Amount) String() string {
	switch a.state {
	case amountPresent:
		return strconv.FormatFloat(a.value, 'f', 2, 64)
	case amountUnparsed:
		return a.raw
	default:
		return "NA"
	}
}

// MarshalJSON encodes absent as null, present as a number and unparsed as
// the original string.
func (a Amount) MarshalJSON() ([]byte, error) {
	switch a.state {
	case amountPresent:
		return []byte(strconv.FormatFloat(a.value, 'f', -1, 64)), nil
	case amountUnparsed:
		return json.Marshal(a.raw)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts numbers, numeric strings, null and "NA".
// Any other value becomes an unparsed amount rather than an error.
func (a *Amount) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*a = Absent()
		return nil
	}

	var num float64
	if err := json.Unmarshal(trimmed, &num); err == nil {
		*a = Present(num)
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		*a = ParseAmount(s)
		return nil
	}

	*a = Unparsed(string(trimmed))
	return nil
}

// ParseAmount reads a textual amount. Blank, "NA" and "N/A" are absent.
func ParseAmount(s string) Amount {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "NA") || strings.EqualFold(s, "N/A") {
		return Absent()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Unparsed(s)
	}
	return Present(v)
}

// Scan implements sql.Scanner. It reads what Value writes: NULL is absent,
// a finite number is present and text is unparsed. The column must not
// convert text to numbers (BLOB affinity in SQLite).
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Absent()
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			*a = Unparsed(strconv.FormatFloat(v, 'g', -1, 64))
			return nil
		}
		*a = Present(v)
	case int64:
		*a = Present(float64(v))
	case string:
		*a = Unparsed(v)
	case []byte:
		*a = Unparsed(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Amount", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (a Amount) Value() (driver.Value, error) {
	switch a.state {
	case amountPresent:
		return a.value, nil
	case amountUnparsed:
		return a.raw, nil
	default:
		return nil, nil
	}
}
