package engine

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"riptide/internal/common"
)

type EventKind int

const (
	EventOrderAccepted EventKind = iota
	EventOrderRejected
	EventTrade
	EventOrderRested
	EventOrderCancelled
)

func (k EventKind) String() string {
	switch k {
	case EventOrderAccepted:
		return "order_accepted"
	case EventOrderRejected:
		return "order_rejected"
	case EventTrade:
		return "trade"
	case EventOrderRested:
		return "order_rested"
	case EventOrderCancelled:
		return "order_cancelled"
	}
	return "unknown"
}

// Event is an immutable snapshot of one book state transition. Field usage
// varies by kind: Trade events carry MakerID/TakerID and the execution
// price/quantity; OrderRested carries the resting price and remaining
// quantity; OrderRejected carries the unfilled remainder and a reason;
// OrderCancelled carries the quantity released. Events copy order data at
// transition time, never reference live orders.
type Event struct {
	Seq       uint64
	Kind      EventKind
	Timestamp time.Time
	Pair      common.TradingPair
	OrderID   string
	Side      common.Side
	Price     decimal.Decimal
	Quantity  decimal.Decimal
	MakerID   string
	TakerID   string
	Reason    string
}

// EventLog is the append-only, time-ordered record of every accepted
// command's effects for one book. Append is the only mutation; readers use
// positional cursors and may trail the writer but never observe events out
// of append order.
type EventLog struct {
	mu     sync.RWMutex
	events []Event
}

func NewEventLog() *EventLog {
	return &EventLog{}
}

// Append stamps the event with the next sequence number and stores it.
// Returns the stored event.
func (l *EventLog) Append(e Event) Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.Seq = uint64(len(l.events)) + 1
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	l.events = append(l.events, e)
	return e
}

// ReadFrom returns a copy of all events with sequence number strictly
// greater than cursor, in append order. Passing the Seq of the last event
// seen resumes the stream; cursor 0 reads from the beginning.
func (l *EventLog) ReadFrom(cursor uint64) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if cursor >= uint64(len(l.events)) {
		return nil
	}
	out := make([]Event, len(l.events)-int(cursor))
	copy(out, l.events[cursor:])
	return out
}

// Len returns the number of events appended so far.
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}
