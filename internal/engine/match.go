package engine

import (
	"github.com/shopspring/decimal"

	"riptide/internal/common"
)

const reasonInsufficientLiquidity = "insufficient liquidity"

// submit runs one order through the matching loop and settles its
// remainder: limit remainders rest in the book, market remainders are
// rejected. Stop orders never reach here until they have converted.
func (book *OrderBook) submit(order *common.Order) []Fill {
	fills := book.match(order)

	switch {
	case order.Filled():
		// Fully executed, nothing rests.
	case order.Type == common.LimitOrder:
		book.rest(order)
	default:
		// Market orders never become resting liquidity.
		book.append(Event{
			Kind:     EventOrderRejected,
			OrderID:  order.ID,
			Side:     order.Side,
			Quantity: order.Remaining,
			Reason:   reasonInsufficientLiquidity,
		})
	}
	return fills
}

// match consumes the opposing side's best levels while the incoming order
// has quantity left and, for limit orders, the level price satisfies its
// bound. Within a level resting orders are consumed strictly oldest first;
// every trade executes at the maker's price.
func (book *OrderBook) match(taker *common.Order) []Fill {
	opposing := book.asks
	if taker.Side == common.Ask {
		opposing = book.bids
	}

	var fills []Fill
	for !taker.Filled() {
		level, ok := opposing.MinMut()
		if !ok || !book.priceAllows(taker, level.price) {
			break
		}

		for !taker.Filled() {
			maker := level.front()
			if maker == nil {
				break
			}

			qty := decimal.Min(taker.Remaining, maker.Remaining)
			maker.Fill(qty)
			taker.Fill(qty)

			fills = append(fills, Fill{MakerID: maker.ID, Price: level.price, Quantity: qty})
			book.append(Event{
				Kind:     EventTrade,
				OrderID:  taker.ID,
				Side:     taker.Side,
				Price:    level.price,
				Quantity: qty,
				MakerID:  maker.ID,
				TakerID:  taker.ID,
			})

			if maker.Filled() {
				level.popFront()
				delete(book.resting, maker.ID)
			}
			book.markPrice(level.price)
		}

		if level.empty() {
			opposing.Delete(level)
		}
	}
	return fills
}

// priceAllows reports whether a level price satisfies the taker's limit.
// Market orders have no bound.
func (book *OrderBook) priceAllows(taker *common.Order, levelPrice decimal.Decimal) bool {
	if taker.Type != common.LimitOrder {
		return true
	}
	if taker.Side == common.Bid {
		return levelPrice.LessThanOrEqual(taker.Price)
	}
	return levelPrice.GreaterThanOrEqual(taker.Price)
}

// rest inserts the unfilled remainder at the tail of its own price level,
// creating the level if absent, and records it in the reverse index.
func (book *OrderBook) rest(order *common.Order) {
	tree := book.bids
	if order.Side == common.Ask {
		tree = book.asks
	}

	level, ok := tree.GetMut(&priceLevel{price: order.Price})
	if !ok {
		level = newPriceLevel(order.Price)
		tree.Set(level)
	}
	level.push(order)
	book.resting[order.ID] = &indexEntry{order: order}

	book.append(Event{
		Kind:     EventOrderRested,
		OrderID:  order.ID,
		Side:     order.Side,
		Price:    order.Price,
		Quantity: order.Remaining,
	})
}

// parkStop holds a stop order in its side's pending set. It is cancellable
// but invisible to matching and to best bid/ask until triggered.
func (book *OrderBook) parkStop(order *common.Order) {
	tree := book.stopBids
	if order.Side == common.Ask {
		tree = book.stopAsks
	}
	tree.Set(order)
	book.resting[order.ID] = &indexEntry{order: order, pending: true}

	book.append(Event{
		Kind:     EventOrderRested,
		OrderID:  order.ID,
		Side:     order.Side,
		Price:    order.StopPrice,
		Quantity: order.Remaining,
	})
}

// markPrice records a new last traded price and collects every stop whose
// trigger it crossed. Stop bids fire when the price rises to or through
// their trigger, stop asks when it falls to or through it. Collected stops
// are not matched here; fireTriggered drains them once the order that moved
// the price has fully completed.
func (book *OrderBook) markPrice(newPrice decimal.Decimal) {
	previous := book.lastPrice
	book.lastPrice = newPrice

	if previous.IsZero() || previous.Equal(newPrice) {
		return
	}

	if newPrice.GreaterThan(previous) {
		for {
			next, ok := book.stopBids.Min()
			if !ok || next.StopPrice.GreaterThan(newPrice) {
				break
			}
			book.stopBids.Delete(next)
			book.triggered = append(book.triggered, next)
		}
		return
	}

	for {
		next, ok := book.stopAsks.Min()
		if !ok || next.StopPrice.LessThan(newPrice) {
			break
		}
		book.stopAsks.Delete(next)
		book.triggered = append(book.triggered, next)
	}
}

// fireTriggered converts collected stops in trigger order and re-enters
// them into matching. Their trades may cross further triggers, so the queue
// is drained to a fixed point.
func (book *OrderBook) fireTriggered() {
	for len(book.triggered) > 0 {
		queue := book.triggered
		book.triggered = nil

		for _, order := range queue {
			delete(book.resting, order.ID)
			order.Type = order.Activates
			book.submit(order)
		}
	}
}
