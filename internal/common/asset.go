package common

import "fmt"

// Asset is a currency or instrument identifier, e.g. "BTC".
type Asset string

const (
	BTC  Asset = "BTC"
	ETH  Asset = "ETH"
	DOT  Asset = "DOT"
	USDT Asset = "USDT"
	USDC Asset = "USDC"
)

// TradingPair identifies exactly one order book. It is a value type and is
// used as a map key; equality is by (Base, Quote) identity.
type TradingPair struct {
	Base  Asset
	Quote Asset
}

func NewTradingPair(base, quote Asset) TradingPair {
	return TradingPair{Base: base, Quote: quote}
}

func (p TradingPair) String() string {
	return fmt.Sprintf("%s/%s", p.Base, p.Quote)
}
