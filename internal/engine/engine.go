package engine

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"riptide/internal/common"
)

// PlaceOrder is the command surface for new orders. Price is required for
// limit orders and for stop orders that activate into a limit; market
// orders ignore it. StopPrice is the trigger, stop orders only. Activates
// selects what a stop converts into once triggered; anything other than
// LimitOrder activates as a market order.
type PlaceOrder struct {
	Pair      common.TradingPair
	Side      common.Side
	Type      common.OrderType
	Price     decimal.Decimal
	StopPrice decimal.Decimal
	Activates common.OrderType
	Quantity  decimal.Decimal
}

// CancelOrder requests removal of a resting or pending order.
type CancelOrder struct {
	Pair    common.TradingPair
	OrderID string
}

// Engine routes commands to the order book owning their trading pair.
// Books are created once from the configured pair list; distinct pairs
// share no mutable state, so commands for different pairs may be dispatched
// concurrently. The registry itself is read-mostly after construction.
type Engine struct {
	mu    sync.RWMutex
	books map[common.TradingPair]*OrderBook
}

func New(pairs ...common.TradingPair) *Engine {
	books := make(map[common.TradingPair]*OrderBook, len(pairs))
	for _, pair := range pairs {
		books[pair] = NewOrderBook(pair)
	}
	return &Engine{books: books}
}

// Book returns the order book for a configured pair.
func (e *Engine) Book(pair common.TradingPair) (*OrderBook, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	book, ok := e.books[pair]
	return book, ok
}

// Pairs lists every configured trading pair.
func (e *Engine) Pairs() []common.TradingPair {
	e.mu.RLock()
	defer e.mu.RUnlock()
	pairs := make([]common.TradingPair, 0, len(e.books))
	for pair := range e.books {
		pairs = append(pairs, pair)
	}
	return pairs
}

// PlaceOrder validates the command, mints an order id and dispatches to the
// pair's book. Validation failures reject before any book mutation.
func (e *Engine) PlaceOrder(cmd PlaceOrder) (PlacementResult, error) {
	book, ok := e.Book(cmd.Pair)
	if !ok {
		return PlacementResult{}, ErrUnknownTradingPair
	}
	if err := validatePlace(cmd); err != nil {
		return PlacementResult{}, err
	}

	activates := cmd.Activates
	if cmd.Type == common.StopOrder && activates != common.LimitOrder {
		activates = common.MarketOrder
	}

	order := &common.Order{
		ID:        uuid.NewString(),
		Pair:      cmd.Pair,
		Side:      cmd.Side,
		Type:      cmd.Type,
		Price:     cmd.Price,
		StopPrice: cmd.StopPrice,
		Activates: activates,
		Original:  cmd.Quantity,
		Remaining: cmd.Quantity,
	}

	log.Debug().
		Str("pair", cmd.Pair.String()).
		Str("order_id", order.ID).
		Str("side", cmd.Side.String()).
		Str("type", cmd.Type.String()).
		Str("quantity", cmd.Quantity.String()).
		Msg("placing order")

	return book.Place(order)
}

// CancelOrder dispatches a cancellation to the pair's book.
func (e *Engine) CancelOrder(cmd CancelOrder) (CancelResult, error) {
	book, ok := e.Book(cmd.Pair)
	if !ok {
		return CancelResult{}, ErrUnknownTradingPair
	}

	log.Debug().
		Str("pair", cmd.Pair.String()).
		Str("order_id", cmd.OrderID).
		Msg("cancelling order")

	return book.Cancel(cmd.OrderID)
}

func validatePlace(cmd PlaceOrder) error {
	if !cmd.Quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	switch cmd.Type {
	case common.LimitOrder:
		if !cmd.Price.IsPositive() {
			return ErrInvalidPrice
		}
	case common.StopOrder:
		if !cmd.StopPrice.IsPositive() {
			return ErrInvalidPrice
		}
		if cmd.Activates == common.LimitOrder && !cmd.Price.IsPositive() {
			return ErrInvalidPrice
		}
	}
	return nil
}
