package common

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Order is one side of trading intent. Its identity is immutable; the only
// field mutated after creation is Remaining, which decreases as fills are
// applied and is frozen on cancellation.
type Order struct {
	ID        string          // Collision-free id, assigned by the dispatcher
	Pair      TradingPair     // Book this order belongs to
	Side      Side            // Bid or Ask
	Type      OrderType       // Market, Limit or Stop
	Price     decimal.Decimal // Limit price; for stops, the limit after trigger
	StopPrice decimal.Decimal // Trigger price, stop orders only
	Activates OrderType       // What a stop converts into, stop orders only
	Original  decimal.Decimal // Quantity requested at creation
	Remaining decimal.Decimal // Quantity still unfilled
	Seq       uint64          // Book arrival sequence, time-priority tie-break
	CreatedAt time.Time       // Time of arrival into the book
}

// Filled reports whether the order has no quantity left to match.
func (o *Order) Filled() bool {
	return !o.Remaining.IsPositive()
}

// FilledQuantity returns how much of the original quantity has executed.
func (o *Order) FilledQuantity() decimal.Decimal {
	return o.Original.Sub(o.Remaining)
}

// Fill decrements the remaining quantity. The caller guarantees
// qty <= Remaining; anything else is a matching bug.
func (o *Order) Fill(qty decimal.Decimal) {
	o.Remaining = o.Remaining.Sub(qty)
	if o.Remaining.IsNegative() {
		panic(fmt.Sprintf("order %s overfilled: remaining %s", o.ID, o.Remaining))
	}
}

func (o *Order) String() string {
	return fmt.Sprintf("%s %s %s %s %s@%s (remaining %s)",
		o.ID, o.Pair, o.Side, o.Type, o.Original, o.Price, o.Remaining)
}
