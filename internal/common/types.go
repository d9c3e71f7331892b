package common

type Side int

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	switch s {
	case Bid:
		return "bid"
	case Ask:
		return "ask"
	}
	return "unknown"
}

// Opposite returns the side an incoming order matches against.
func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

type OrderType int

const (
	// Limit orders execute at the specified price or better and may rest
	// on the book until filled or cancelled.
	LimitOrder OrderType = iota
	// Market orders execute immediately against the best available
	// resting prices. Any remainder that the book cannot fill is
	// rejected, never rested.
	MarketOrder
	// Stop orders are parked outside the book until the last traded
	// price crosses their trigger, then convert to a market or limit
	// order and enter matching.
	StopOrder
)

func (t OrderType) String() string {
	switch t {
	case LimitOrder:
		return "limit"
	case MarketOrder:
		return "market"
	case StopOrder:
		return "stop"
	}
	return "unknown"
}
