package engine

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"riptide/internal/common"
)

type levelTree = btree.BTreeG[*priceLevel]
type stopTree = btree.BTreeG[*common.Order]

// indexEntry is the reverse order-id index slot. It is updated or removed
// together with every mutation of the structure that holds the order,
// never independently.
type indexEntry struct {
	order   *common.Order
	pending bool // parked stop order, lives in a stop tree not a level
}

// OrderBook owns the bid and ask price indices for one trading pair and is
// the only entry point that mutates them. All mutation is serialized by a
// single mutex: one command is fully processed, including every resulting
// trade and event, before the next begins.
type OrderBook struct {
	pair common.TradingPair

	// Level trees are ordered so that Min is always the best level:
	// highest price first for bids, lowest first for asks.
	bids *levelTree
	asks *levelTree

	// Stop trees are ordered so that Min is the next stop to fire:
	// lowest trigger first for bids (fire as the price rises), highest
	// first for asks (fire as the price falls).
	stopBids *stopTree
	stopAsks *stopTree

	resting map[string]*indexEntry

	// Stops whose trigger was crossed during the current command; drained
	// after the incoming order finishes matching.
	triggered []*common.Order

	lastPrice decimal.Decimal
	seq       uint64

	events *EventLog
	mu     sync.Mutex
}

func NewOrderBook(pair common.TradingPair) *OrderBook {
	bids := btree.NewBTreeG(func(a, b *priceLevel) bool {
		return a.price.GreaterThan(b.price)
	})
	asks := btree.NewBTreeG(func(a, b *priceLevel) bool {
		return a.price.LessThan(b.price)
	})
	stopBids := btree.NewBTreeG(func(a, b *common.Order) bool {
		if !a.StopPrice.Equal(b.StopPrice) {
			return a.StopPrice.LessThan(b.StopPrice)
		}
		return a.Seq < b.Seq
	})
	stopAsks := btree.NewBTreeG(func(a, b *common.Order) bool {
		if !a.StopPrice.Equal(b.StopPrice) {
			return a.StopPrice.GreaterThan(b.StopPrice)
		}
		return a.Seq < b.Seq
	})
	return &OrderBook{
		pair:     pair,
		bids:     bids,
		asks:     asks,
		stopBids: stopBids,
		stopAsks: stopAsks,
		resting:  make(map[string]*indexEntry),
		events:   NewEventLog(),
	}
}

func (book *OrderBook) Pair() common.TradingPair {
	return book.pair
}

// Events returns the book's append-only event log.
func (book *OrderBook) Events() *EventLog {
	return book.events
}

// Place runs a newly arrived order through matching. Limit remainders rest,
// market remainders are rejected, stop orders park until triggered. Every
// effect is appended to the event log in generation order.
func (book *OrderBook) Place(order *common.Order) (PlacementResult, error) {
	book.mu.Lock()
	defer book.mu.Unlock()

	if order.Pair != book.pair {
		return PlacementResult{}, ErrWrongBook
	}

	book.seq++
	order.Seq = book.seq
	order.CreatedAt = time.Now()

	book.append(Event{
		Kind:     EventOrderAccepted,
		OrderID:  order.ID,
		Side:     order.Side,
		Price:    order.Price,
		Quantity: order.Original,
	})

	result := PlacementResult{OrderID: order.ID, Remaining: order.Original}

	if order.Type == common.StopOrder {
		book.parkStop(order)
		result.Rested = true
		return result, nil
	}

	result.Fills = book.submit(order)
	result.Filled = order.FilledQuantity()
	result.Remaining = order.Remaining
	result.Rested = !order.Filled() && order.Type == common.LimitOrder

	book.fireTriggered()
	book.checkUncrossed()
	return result, nil
}

// Cancel removes a resting or pending order. Unknown, already filled and
// already cancelled ids are indistinguishable: all return ErrOrderNotFound.
func (book *OrderBook) Cancel(orderID string) (CancelResult, error) {
	book.mu.Lock()
	defer book.mu.Unlock()

	entry, ok := book.resting[orderID]
	if !ok {
		return CancelResult{}, ErrOrderNotFound
	}
	order := entry.order

	if entry.pending {
		tree := book.stopBids
		if order.Side == common.Ask {
			tree = book.stopAsks
		}
		if _, ok := tree.Delete(order); !ok {
			log.Panic().
				Str("pair", book.pair.String()).
				Str("order_id", orderID).
				Msg("orphaned index entry: pending stop missing from stop tree")
		}
	} else {
		book.removeResting(order)
	}

	delete(book.resting, orderID)
	book.append(Event{
		Kind:     EventOrderCancelled,
		OrderID:  order.ID,
		Side:     order.Side,
		Price:    order.Price,
		Quantity: order.Remaining,
	})
	return CancelResult{OrderID: orderID, Remaining: order.Remaining}, nil
}

// removeResting detaches a live order from its price level and prunes the
// level if it empties. An order reachable from the index but absent from
// its level is a corrupted book.
func (book *OrderBook) removeResting(order *common.Order) {
	tree := book.bids
	if order.Side == common.Ask {
		tree = book.asks
	}

	level, ok := tree.GetMut(&priceLevel{price: order.Price})
	if !ok || !level.remove(order.ID) {
		log.Panic().
			Str("pair", book.pair.String()).
			Str("order_id", order.ID).
			Str("price", order.Price.String()).
			Msg("orphaned index entry: order missing from its price level")
	}
	if level.empty() {
		tree.Delete(level)
	}
}

// Quote is the price and aggregate resting quantity at one side's best level.
type Quote struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// BestBid returns the highest bid level, or false when the side is empty.
// Pending stop orders are invisible here.
func (book *OrderBook) BestBid() (Quote, bool) {
	book.mu.Lock()
	defer book.mu.Unlock()
	return bestOf(book.bids)
}

// BestAsk returns the lowest ask level, or false when the side is empty.
func (book *OrderBook) BestAsk() (Quote, bool) {
	book.mu.Lock()
	defer book.mu.Unlock()
	return bestOf(book.asks)
}

func bestOf(tree *levelTree) (Quote, bool) {
	level, ok := tree.Min()
	if !ok {
		return Quote{}, false
	}
	return Quote{Price: level.price, Quantity: level.total()}, true
}

// Spread returns best ask minus best bid, or false when either side is empty.
func (book *OrderBook) Spread() (decimal.Decimal, bool) {
	book.mu.Lock()
	defer book.mu.Unlock()

	bid, bidOk := bestOf(book.bids)
	ask, askOk := bestOf(book.asks)
	if !bidOk || !askOk {
		return decimal.Zero, false
	}
	return ask.Price.Sub(bid.Price), true
}

// LastPrice returns the most recent trade price, or false before any trade.
func (book *OrderBook) LastPrice() (decimal.Decimal, bool) {
	book.mu.Lock()
	defer book.mu.Unlock()
	return book.lastPrice, book.lastPrice.IsPositive()
}

// Levels snapshots one side of the book in priority order, for inspection
// and tests.
func (book *OrderBook) Levels(side common.Side) []FlatPriceLevel {
	book.mu.Lock()
	defer book.mu.Unlock()

	tree := book.bids
	if side == common.Ask {
		tree = book.asks
	}
	items := tree.Items()
	out := make([]FlatPriceLevel, len(items))
	for i, level := range items {
		out[i] = level.flatten()
	}
	return out
}

func (book *OrderBook) append(e Event) {
	e.Pair = book.pair
	book.events.Append(e)
}

// checkUncrossed verifies the no-cross invariant after a command completes.
// A crossed book means corrupted matching state; continuing would execute
// incorrect trades, so this fails loudly instead.
func (book *OrderBook) checkUncrossed() {
	bid, bidOk := bestOf(book.bids)
	ask, askOk := bestOf(book.asks)
	if bidOk && askOk && bid.Price.GreaterThanOrEqual(ask.Price) {
		log.Panic().
			Str("pair", book.pair.String()).
			Str("best_bid", bid.Price.String()).
			Str("best_ask", ask.Price.String()).
			Msg("order book crossed")
	}
}
