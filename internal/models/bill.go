package models

import "math"

// DefaultItemName is used when a line is committed without a name.
const DefaultItemName = "Item"

// LineItem represents one entry of the working bill.
type LineItem struct {
	// ItemName is the display name shown on the bill.
	// Falls back to DefaultItemName when blank.
	ItemName string `json:"itemName"`

	// Grams is the optional weighed quantity. Informational only.
	Grams *float64 `json:"grams"`

	// Price is the optional raw price operand before rounding.
	Price *float64 `json:"price"`

	// LineTotal is the rounded amount in whole currency units.
	// It is the only value that contributes to the bill total and it
	// never changes after the line is committed.
	LineTotal int64 `json:"lineTotal"`
}

// Clone returns a copy of the line that shares no pointers with l.
func (l LineItem) Clone() LineItem {
	out := LineItem{ItemName: l.ItemName, LineTotal: l.LineTotal}
	if l.Grams != nil {
		g := *l.Grams
		out.Grams = &g
	}
	if l.Price != nil {
		p := *l.Price
		out.Price = &p
	}
	return out
}

// CloneLines deep-copies a slice of lines. A nil slice becomes an empty one
// so the JSON form is always an array.
func CloneLines(lines []LineItem) []LineItem {
	out := make([]LineItem, len(lines))
	for i, l := range lines {
		out[i] = l.Clone()
	}
	return out
}

// SumLines returns the sum of all line totals, saturating at math.MaxInt64.
// Negative line totals are ignored.
func SumLines(lines []LineItem) int64 {
	var total int64
	for _, l := range lines {
		if l.LineTotal <= 0 {
			continue
		}
		if l.LineTotal > math.MaxInt64-total {
			return math.MaxInt64
		}
		total += l.LineTotal
	}
	return total
}

// Bill is the working bill snapshot persisted after every structural change.
type Bill struct {
	// Lines in insertion order, which is also display and summation order.
	Lines []LineItem `json:"lines"`

	// Total is always SumLines(Lines).
	Total int64 `json:"total"`
}

// Receipt is an immutable snapshot of a saved bill.
type Receipt struct {
	// ID is the unique identifier for the receipt (UUID format).
	ID string `json:"id"`

	// TS is the creation time in epoch milliseconds.
	TS int64 `json:"ts"`

	// Lines is a deep copy of the working bill lines at save time.
	Lines []LineItem `json:"lines"`

	// Total is the bill total at save time.
	Total int64 `json:"total"`

	// Name is the optional user-assigned name.
	Name string `json:"name,omitempty"`
}

// Clone returns a deep copy of the receipt.
func (r Receipt) Clone() Receipt {
	r.Lines = CloneLines(r.Lines)
	return r
}
