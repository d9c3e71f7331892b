package engine

import (
	"github.com/shopspring/decimal"

	"riptide/internal/common"
)

// priceLevel is one rung of the book: every resting order at one exact
// price on one side, in strict arrival order. A level with no orders is
// logically absent and must be pruned from its tree by the caller.
type priceLevel struct {
	price  decimal.Decimal
	orders []*common.Order
}

func newPriceLevel(price decimal.Decimal) *priceLevel {
	return &priceLevel{price: price}
}

// push appends an order at the tail, behind every earlier arrival.
func (pl *priceLevel) push(order *common.Order) {
	pl.orders = append(pl.orders, order)
}

// front returns the oldest resting order, nil when empty.
func (pl *priceLevel) front() *common.Order {
	if len(pl.orders) == 0 {
		return nil
	}
	return pl.orders[0]
}

// popFront drops the oldest resting order.
func (pl *priceLevel) popFront() {
	pl.orders[0] = nil
	pl.orders = pl.orders[1:]
}

// remove deletes the order with the given id, preserving arrival order of
// the rest. Reports whether the order was present.
func (pl *priceLevel) remove(orderID string) bool {
	for i, o := range pl.orders {
		if o.ID == orderID {
			pl.orders = append(pl.orders[:i], pl.orders[i+1:]...)
			return true
		}
	}
	return false
}

func (pl *priceLevel) empty() bool {
	return len(pl.orders) == 0
}

// total sums the unfilled quantity resting at this level.
func (pl *priceLevel) total() decimal.Decimal {
	total := decimal.Zero
	for _, o := range pl.orders {
		total = total.Add(o.Remaining)
	}
	return total
}

// FlatPriceLevel is an exported snapshot of a level, used by tests and
// read-only book inspection.
type FlatPriceLevel struct {
	Price  decimal.Decimal
	Orders []common.Order
}

func (pl *priceLevel) flatten() FlatPriceLevel {
	out := FlatPriceLevel{Price: pl.price, Orders: make([]common.Order, len(pl.orders))}
	for i, o := range pl.orders {
		out.Orders[i] = *o
	}
	return out
}
