package net

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"riptide/internal/common"
	"riptide/internal/engine"
)

var (
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrMessageTooShort    = errors.New("message too short")
)

type MessageType uint16

const (
	Heartbeat MessageType = iota
	NewOrder
	CancelOrder
)

type Message interface {
	GetType() MessageType
}

const baseMessageHeaderLen = 2

type BaseMessage struct {
	TypeOf MessageType
}

func (m BaseMessage) GetType() MessageType {
	return m.TypeOf
}

// Wire format: a 2-byte big-endian message type followed by fields.
// Variable-length fields (assets, decimals, ids) are 1-byte length-prefixed
// strings; decimals travel as their exact string form, never as floats.
func parseMessage(msg []byte) (Message, error) {
	if len(msg) < baseMessageHeaderLen {
		return BaseMessage{}, ErrMessageTooShort
	}

	typeOf := MessageType(binary.BigEndian.Uint16(msg[0:2]))
	msg = msg[2:]
	switch typeOf {
	case NewOrder:
		return parseNewOrder(msg)
	case CancelOrder:
		return parseCancelOrder(msg)
	default:
		return BaseMessage{}, ErrInvalidMessageType
	}
}

type NewOrderMessage struct {
	BaseMessage
	Base      string
	Quote     string
	Side      common.Side
	OrderType common.OrderType
	Activates common.OrderType
	Price     string
	StopPrice string
	Quantity  string
}

// Command converts the wire message into an engine command. Decimal fields
// are parsed here so malformed numbers fail at the boundary, not inside
// the matching core. Empty decimal strings mean "absent" and become zero.
func (m *NewOrderMessage) Command() (engine.PlaceOrder, error) {
	price, err := parseDecimal(m.Price)
	if err != nil {
		return engine.PlaceOrder{}, fmt.Errorf("price: %w", err)
	}
	stopPrice, err := parseDecimal(m.StopPrice)
	if err != nil {
		return engine.PlaceOrder{}, fmt.Errorf("stop price: %w", err)
	}
	quantity, err := parseDecimal(m.Quantity)
	if err != nil {
		return engine.PlaceOrder{}, fmt.Errorf("quantity: %w", err)
	}

	return engine.PlaceOrder{
		Pair:      common.NewTradingPair(common.Asset(m.Base), common.Asset(m.Quote)),
		Side:      m.Side,
		Type:      m.OrderType,
		Activates: m.Activates,
		Price:     price,
		StopPrice: stopPrice,
		Quantity:  quantity,
	}, nil
}

// Encode serializes the message for sending. Used by clients.
func (m *NewOrderMessage) Encode() []byte {
	buf := make([]byte, 2, 64)
	binary.BigEndian.PutUint16(buf, uint16(NewOrder))
	buf = append(buf, byte(m.Side), byte(m.OrderType), byte(m.Activates))
	buf = appendString(buf, m.Base)
	buf = appendString(buf, m.Quote)
	buf = appendString(buf, m.Price)
	buf = appendString(buf, m.StopPrice)
	buf = appendString(buf, m.Quantity)
	return buf
}

func parseNewOrder(msg []byte) (*NewOrderMessage, error) {
	if len(msg) < 3 {
		return nil, ErrMessageTooShort
	}
	m := &NewOrderMessage{BaseMessage: BaseMessage{TypeOf: NewOrder}}
	m.Side = common.Side(msg[0])
	m.OrderType = common.OrderType(msg[1])
	m.Activates = common.OrderType(msg[2])
	msg = msg[3:]

	var err error
	for _, field := range []*string{&m.Base, &m.Quote, &m.Price, &m.StopPrice, &m.Quantity} {
		if *field, msg, err = readString(msg); err != nil {
			return nil, err
		}
	}
	return m, nil
}

type CancelOrderMessage struct {
	BaseMessage
	Base    string
	Quote   string
	OrderID string
}

func (m *CancelOrderMessage) Command() engine.CancelOrder {
	return engine.CancelOrder{
		Pair:    common.NewTradingPair(common.Asset(m.Base), common.Asset(m.Quote)),
		OrderID: m.OrderID,
	}
}

func (m *CancelOrderMessage) Encode() []byte {
	buf := make([]byte, 2, 64)
	binary.BigEndian.PutUint16(buf, uint16(CancelOrder))
	buf = appendString(buf, m.Base)
	buf = appendString(buf, m.Quote)
	buf = appendString(buf, m.OrderID)
	return buf
}

func parseCancelOrder(msg []byte) (*CancelOrderMessage, error) {
	m := &CancelOrderMessage{BaseMessage: BaseMessage{TypeOf: CancelOrder}}

	var err error
	for _, field := range []*string{&m.Base, &m.Quote, &m.OrderID} {
		if *field, msg, err = readString(msg); err != nil {
			return nil, err
		}
	}
	return m, nil
}

type ReportType uint8

const (
	PlacementReport ReportType = iota
	CancelReport
	ErrorReport
)

// Report is the outbound result frame for one command.
type Report struct {
	TypeOf       ReportType
	OrderID      string
	Filled       string
	AveragePrice string
	Remaining    string
	Rested       bool
	Err          string
}

func (r *Report) Serialize() []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, byte(r.TypeOf))
	rested := byte(0)
	if r.Rested {
		rested = 1
	}
	buf = append(buf, rested)
	buf = appendString(buf, r.OrderID)
	buf = appendString(buf, r.Filled)
	buf = appendString(buf, r.AveragePrice)
	buf = appendString(buf, r.Remaining)
	buf = appendString(buf, r.Err)
	return buf
}

// ParseReport decodes an outbound frame. Used by clients.
func ParseReport(msg []byte) (Report, error) {
	if len(msg) < 2 {
		return Report{}, ErrMessageTooShort
	}
	r := Report{TypeOf: ReportType(msg[0]), Rested: msg[1] == 1}
	msg = msg[2:]

	var err error
	for _, field := range []*string{&r.OrderID, &r.Filled, &r.AveragePrice, &r.Remaining, &r.Err} {
		if *field, msg, err = readString(msg); err != nil {
			return Report{}, err
		}
	}
	return r, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func appendString(buf []byte, s string) []byte {
	buf = append(buf, byte(len(s)))
	return append(buf, s...)
}

func readString(buf []byte) (string, []byte, error) {
	if len(buf) < 1 {
		return "", nil, ErrMessageTooShort
	}
	n := int(buf[0])
	if len(buf) < 1+n {
		return "", nil, ErrMessageTooShort
	}
	return string(buf[1 : 1+n]), buf[1+n:], nil
}
