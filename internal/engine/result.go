package engine

import "github.com/shopspring/decimal"

// Fill is one execution against a resting order, reported to the caller in
// execution order.
type Fill struct {
	MakerID  string
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// PlacementResult summarizes one Place call: what executed, what rests and
// what came back.
type PlacementResult struct {
	OrderID   string
	Fills     []Fill
	Filled    decimal.Decimal
	Remaining decimal.Decimal
	Rested    bool
}

// AveragePrice is the quantity-weighted mean execution price, zero when
// nothing filled.
func (r PlacementResult) AveragePrice() decimal.Decimal {
	if !r.Filled.IsPositive() {
		return decimal.Zero
	}
	notional := decimal.Zero
	for _, fill := range r.Fills {
		notional = notional.Add(fill.Price.Mul(fill.Quantity))
	}
	return notional.Div(r.Filled)
}

// WorstPrice is the least favourable execution price: the highest paid for
// a bid, the lowest received for an ask. Fills execute best-to-worst, so
// this is always the last fill's price. Zero when nothing filled.
func (r PlacementResult) WorstPrice() decimal.Decimal {
	if len(r.Fills) == 0 {
		return decimal.Zero
	}
	return r.Fills[len(r.Fills)-1].Price
}

// CancelResult reports a successful cancellation and the quantity released
// back to the caller, frozen at the moment of removal.
type CancelResult struct {
	OrderID   string
	Remaining decimal.Decimal
}
