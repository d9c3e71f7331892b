package engine_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riptide/internal/common"
	"riptide/internal/engine"
)

func newTestEngine() *engine.Engine {
	return engine.New(
		common.NewTradingPair(common.BTC, common.USDC),
		common.NewTradingPair(common.ETH, common.USDC),
	)
}

func TestEngine_RoutesToConfiguredPairs(t *testing.T) {
	eng := newTestEngine()

	_, ok := eng.Book(common.NewTradingPair(common.BTC, common.USDC))
	assert.True(t, ok)

	// Pair identity is ordered: the reverse of a configured pair is unknown.
	_, ok = eng.Book(common.NewTradingPair(common.USDC, common.BTC))
	assert.False(t, ok)

	assert.Len(t, eng.Pairs(), 2)
}

func TestEngine_UnknownPairFailsFast(t *testing.T) {
	eng := newTestEngine()
	unknown := common.NewTradingPair(common.DOT, common.USDT)

	_, err := eng.PlaceOrder(engine.PlaceOrder{
		Pair:     unknown,
		Side:     common.Bid,
		Type:     common.LimitOrder,
		Price:    dec("20.00"),
		Quantity: dec("10"),
	})
	assert.ErrorIs(t, err, engine.ErrUnknownTradingPair)

	_, err = eng.CancelOrder(engine.CancelOrder{Pair: unknown, OrderID: "whatever"})
	assert.ErrorIs(t, err, engine.ErrUnknownTradingPair)

	// No book is auto-created by a failed command.
	_, ok := eng.Book(unknown)
	assert.False(t, ok)
}

func TestEngine_ValidatesBeforeMutation(t *testing.T) {
	eng := newTestEngine()
	pair := common.NewTradingPair(common.BTC, common.USDC)

	cases := []struct {
		name string
		cmd  engine.PlaceOrder
		want error
	}{
		{
			name: "zero quantity",
			cmd:  engine.PlaceOrder{Pair: pair, Type: common.LimitOrder, Price: dec("10"), Quantity: decimal.Zero},
			want: engine.ErrInvalidQuantity,
		},
		{
			name: "negative quantity",
			cmd:  engine.PlaceOrder{Pair: pair, Type: common.MarketOrder, Quantity: dec("-3")},
			want: engine.ErrInvalidQuantity,
		},
		{
			name: "limit without price",
			cmd:  engine.PlaceOrder{Pair: pair, Type: common.LimitOrder, Quantity: dec("10")},
			want: engine.ErrInvalidPrice,
		},
		{
			name: "stop without trigger",
			cmd:  engine.PlaceOrder{Pair: pair, Type: common.StopOrder, Quantity: dec("10")},
			want: engine.ErrInvalidPrice,
		},
		{
			name: "stop into limit without limit price",
			cmd: engine.PlaceOrder{
				Pair: pair, Type: common.StopOrder, StopPrice: dec("19"),
				Activates: common.LimitOrder, Quantity: dec("10"),
			},
			want: engine.ErrInvalidPrice,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := eng.PlaceOrder(tc.cmd)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	book, _ := eng.Book(pair)
	assert.Zero(t, book.Events().Len(), "validation failures must not touch the book")
}

func TestEngine_MarketOrderIgnoresPrice(t *testing.T) {
	eng := newTestEngine()
	pair := common.NewTradingPair(common.BTC, common.USDC)

	// A market order carries no price; whatever is supplied is ignored
	// rather than rejected.
	result, err := eng.PlaceOrder(engine.PlaceOrder{
		Pair:     pair,
		Side:     common.Bid,
		Type:     common.MarketOrder,
		Price:    dec("123.45"),
		Quantity: dec("5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "5", result.Remaining.String())
	assert.False(t, result.Rested)
}

func TestEngine_EndToEndScenario(t *testing.T) {
	eng := newTestEngine()
	pair := common.NewTradingPair(common.BTC, common.USDC)

	bid, err := eng.PlaceOrder(engine.PlaceOrder{
		Pair: pair, Side: common.Bid, Type: common.LimitOrder,
		Price: dec("20.00"), Quantity: dec("10"),
	})
	require.NoError(t, err)
	assert.True(t, bid.Rested)
	require.NotEmpty(t, bid.OrderID)

	ask, err := eng.PlaceOrder(engine.PlaceOrder{
		Pair: pair, Side: common.Ask, Type: common.LimitOrder,
		Price: dec("20.00"), Quantity: dec("4"),
	})
	require.NoError(t, err)
	assert.Equal(t, "4", ask.Filled.String())
	require.Len(t, ask.Fills, 1)
	assert.Equal(t, bid.OrderID, ask.Fills[0].MakerID)

	cancelled, err := eng.CancelOrder(engine.CancelOrder{Pair: pair, OrderID: bid.OrderID})
	require.NoError(t, err)
	assert.Equal(t, "6", cancelled.Remaining.String())

	// Books are isolated per pair: the other configured pair saw nothing.
	other, _ := eng.Book(common.NewTradingPair(common.ETH, common.USDC))
	assert.Zero(t, other.Events().Len())
}

func TestEngine_MintsUniqueOrderIDs(t *testing.T) {
	eng := newTestEngine()
	pair := common.NewTradingPair(common.BTC, common.USDC)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		result, err := eng.PlaceOrder(engine.PlaceOrder{
			Pair: pair, Side: common.Bid, Type: common.LimitOrder,
			Price: dec("1.00"), Quantity: dec("1"),
		})
		require.NoError(t, err)
		assert.False(t, seen[result.OrderID], "duplicate order id %s", result.OrderID)
		seen[result.OrderID] = true
	}
}
