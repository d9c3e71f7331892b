package engine_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riptide/internal/common"
	"riptide/internal/engine"
)

func TestEventLog_AppendAssignsDenseSequence(t *testing.T) {
	log := engine.NewEventLog()

	first := log.Append(engine.Event{Kind: engine.EventOrderAccepted, OrderID: "a"})
	second := log.Append(engine.Event{Kind: engine.EventOrderRested, OrderID: "a"})

	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, uint64(2), second.Seq)
	assert.False(t, first.Timestamp.IsZero())
	assert.Equal(t, 2, log.Len())
}

func TestEventLog_CursorReads(t *testing.T) {
	log := engine.NewEventLog()
	for i := 0; i < 5; i++ {
		log.Append(engine.Event{Kind: engine.EventTrade})
	}

	all := log.ReadFrom(0)
	require.Len(t, all, 5)

	// Resuming from the last seen sequence yields only the tail.
	tail := log.ReadFrom(all[2].Seq)
	require.Len(t, tail, 2)
	assert.Equal(t, uint64(4), tail[0].Seq)
	assert.Equal(t, uint64(5), tail[1].Seq)

	assert.Empty(t, log.ReadFrom(5))
	assert.Empty(t, log.ReadFrom(99))
}

func TestEventLog_ReadersTrailWriterInOrder(t *testing.T) {
	log := engine.NewEventLog()
	const total = 500

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			log.Append(engine.Event{Kind: engine.EventTrade})
		}
	}()

	// A trailing reader must always observe a strictly increasing,
	// gap-free prefix of the stream.
	var cursor uint64
	for cursor < total {
		for _, e := range log.ReadFrom(cursor) {
			require.Equal(t, cursor+1, e.Seq)
			cursor = e.Seq
		}
	}
	wg.Wait()
}

func TestEventLog_CausalOrderPerOrder(t *testing.T) {
	book := engine.NewOrderBook(testPair)

	placed := placeLimit(t, book, common.Bid, "20.00", "10")
	_, err := book.Cancel(placed.OrderID)
	require.NoError(t, err)

	var acceptedSeq, cancelledSeq uint64
	for _, e := range book.Events().ReadFrom(0) {
		if e.OrderID != placed.OrderID {
			continue
		}
		switch e.Kind {
		case engine.EventOrderAccepted:
			acceptedSeq = e.Seq
		case engine.EventOrderCancelled:
			cancelledSeq = e.Seq
		}
	}
	require.NotZero(t, acceptedSeq)
	require.NotZero(t, cancelledSeq)
	assert.Less(t, acceptedSeq, cancelledSeq,
		"cancellation can never precede acceptance in the log")
}

func TestEventLog_TradeEventsAreSnapshots(t *testing.T) {
	book := engine.NewOrderBook(testPair)

	maker := placeLimit(t, book, common.Bid, "20.00", "10")
	placeLimit(t, book, common.Ask, "20.00", "4")

	events := book.Events().ReadFrom(0)
	var trade engine.Event
	for _, e := range events {
		if e.Kind == engine.EventTrade {
			trade = e
		}
	}
	require.NotZero(t, trade.Seq)
	assert.Equal(t, maker.OrderID, trade.MakerID)
	assert.Equal(t, "20", trade.Price.String())
	assert.Equal(t, "4", trade.Quantity.String())
	assert.Equal(t, testPair, trade.Pair)

	// Further fills must not alter the recorded event.
	placeLimit(t, book, common.Ask, "20.00", "6")
	again := book.Events().ReadFrom(trade.Seq - 1)[0]
	assert.Equal(t, "4", again.Quantity.String())
}
