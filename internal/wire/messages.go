// Package wire defines matchcore's length-prefixed binary protocol: the
// same four registry operations (spec §6) encoded for a TCP client, plus
// Cancel. Every message carries a client-assigned correlation uuid so a
// client can match an execution/error report back to the request that
// caused it, the way the teacher's protocol correlates reports by order
// uuid.
package wire

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"matchcore/internal/common"
)

var (
	ErrMessageTooShort    = errors.New("matchcore/wire: message too short")
	ErrUnknownMessageType = errors.New("matchcore/wire: unknown message type")
)

// MessageType identifies the request/response variant in the 1-byte
// header every wire message starts with.
type MessageType uint8

const (
	MsgAddSymbol MessageType = iota
	MsgNewOrder
	MsgCancelOrder
	MsgGetDepth
	MsgGetStats
	MsgExecutionReport
	MsgErrorReport
	MsgDepthReport
	MsgStatsReport
	MsgAck
)

// headerLen is the fixed 1-byte type tag every message starts with.
const headerLen = 1

// PeekType reads the message type off the front of buf without consuming
// it.
func PeekType(buf []byte) (MessageType, error) {
	if len(buf) < headerLen {
		return 0, ErrMessageTooShort
	}
	return MessageType(buf[0]), nil
}

// NewOrderRequest is the wire form of a place_order call.
type NewOrderRequest struct {
	CorrelationID uuid.UUID
	Symbol        string
	Side          common.Side
	OrderType     common.OrderType
	Quantity      float64
	Price         float64
	UserID        uint32
}

// Encode serializes the request: 1-byte type, 16-byte correlation uuid,
// 1-byte symbol length, symbol bytes, 1-byte side, 1-byte order type,
// 8-byte quantity, 8-byte price, 4-byte user id.
func (r NewOrderRequest) Encode() []byte {
	symBytes := []byte(r.Symbol)
	buf := make([]byte, headerLen+16+1+len(symBytes)+1+1+8+8+4)

	off := 0
	buf[off] = byte(MsgNewOrder)
	off += headerLen

	copy(buf[off:off+16], r.CorrelationID[:])
	off += 16

	buf[off] = uint8(len(symBytes))
	off++
	copy(buf[off:], symBytes)
	off += len(symBytes)

	buf[off] = byte(r.Side)
	off++
	buf[off] = byte(r.OrderType)
	off++

	binary.BigEndian.PutUint64(buf[off:], math.Float64bits(r.Quantity))
	off += 8
	binary.BigEndian.PutUint64(buf[off:], math.Float64bits(r.Price))
	off += 8

	binary.BigEndian.PutUint32(buf[off:], r.UserID)
	return buf
}

// DecodeNewOrderRequest parses a NewOrderRequest out of msg, which must
// already have had its leading type byte stripped.
func DecodeNewOrderRequest(msg []byte) (NewOrderRequest, error) {
	if len(msg) < 16+1 {
		return NewOrderRequest{}, ErrMessageTooShort
	}

	var req NewOrderRequest
	copy(req.CorrelationID[:], msg[0:16])
	off := 16

	symLen := int(msg[off])
	off++
	if len(msg) < off+symLen+1+1+8+8+4 {
		return NewOrderRequest{}, ErrMessageTooShort
	}
	req.Symbol = string(msg[off : off+symLen])
	off += symLen

	req.Side = common.Side(msg[off])
	off++
	req.OrderType = common.OrderType(msg[off])
	off++

	req.Quantity = math.Float64frombits(binary.BigEndian.Uint64(msg[off:]))
	off += 8
	req.Price = math.Float64frombits(binary.BigEndian.Uint64(msg[off:]))
	off += 8

	req.UserID = binary.BigEndian.Uint32(msg[off:])
	return req, nil
}

// CancelOrderRequest is the wire form of a cancel call.
type CancelOrderRequest struct {
	CorrelationID uuid.UUID
	Symbol        string
	OrderID       uint64
}

func (r CancelOrderRequest) Encode() []byte {
	symBytes := []byte(r.Symbol)
	buf := make([]byte, headerLen+16+1+len(symBytes)+8)
	off := 0
	buf[off] = byte(MsgCancelOrder)
	off += headerLen
	copy(buf[off:off+16], r.CorrelationID[:])
	off += 16
	buf[off] = uint8(len(symBytes))
	off++
	copy(buf[off:], symBytes)
	off += len(symBytes)
	binary.BigEndian.PutUint64(buf[off:], r.OrderID)
	return buf
}

func DecodeCancelOrderRequest(msg []byte) (CancelOrderRequest, error) {
	if len(msg) < 16+1 {
		return CancelOrderRequest{}, ErrMessageTooShort
	}
	var req CancelOrderRequest
	copy(req.CorrelationID[:], msg[0:16])
	off := 16
	symLen := int(msg[off])
	off++
	if len(msg) < off+symLen+8 {
		return CancelOrderRequest{}, ErrMessageTooShort
	}
	req.Symbol = string(msg[off : off+symLen])
	off += symLen
	req.OrderID = binary.BigEndian.Uint64(msg[off:])
	return req, nil
}

// AddSymbolRequest is the wire form of an add_symbol call.
type AddSymbolRequest struct {
	CorrelationID uuid.UUID
	Symbol        string
}

// Encode serializes the request: 1-byte type, 16-byte correlation uuid,
// 1-byte symbol length, symbol bytes.
func (r AddSymbolRequest) Encode() []byte {
	symBytes := []byte(r.Symbol)
	buf := make([]byte, headerLen+16+1+len(symBytes))
	off := 0
	buf[off] = byte(MsgAddSymbol)
	off += headerLen
	copy(buf[off:off+16], r.CorrelationID[:])
	off += 16
	buf[off] = uint8(len(symBytes))
	off++
	copy(buf[off:], symBytes)
	return buf
}

func DecodeAddSymbolRequest(msg []byte) (AddSymbolRequest, error) {
	if len(msg) < 16+1 {
		return AddSymbolRequest{}, ErrMessageTooShort
	}
	var req AddSymbolRequest
	copy(req.CorrelationID[:], msg[0:16])
	off := 16
	symLen := int(msg[off])
	off++
	if len(msg) < off+symLen {
		return AddSymbolRequest{}, ErrMessageTooShort
	}
	req.Symbol = string(msg[off : off+symLen])
	return req, nil
}

// GetDepthRequest is the wire form of a get_depth call. N <= 0 asks the
// server to fall back to its default depth (spec §6).
type GetDepthRequest struct {
	CorrelationID uuid.UUID
	Symbol        string
	N             int32
}

// Encode serializes the request: 1-byte type, 16-byte correlation uuid,
// 1-byte symbol length, symbol bytes, 4-byte depth n.
func (r GetDepthRequest) Encode() []byte {
	symBytes := []byte(r.Symbol)
	buf := make([]byte, headerLen+16+1+len(symBytes)+4)
	off := 0
	buf[off] = byte(MsgGetDepth)
	off += headerLen
	copy(buf[off:off+16], r.CorrelationID[:])
	off += 16
	buf[off] = uint8(len(symBytes))
	off++
	copy(buf[off:], symBytes)
	off += len(symBytes)
	binary.BigEndian.PutUint32(buf[off:], uint32(r.N))
	return buf
}

func DecodeGetDepthRequest(msg []byte) (GetDepthRequest, error) {
	if len(msg) < 16+1 {
		return GetDepthRequest{}, ErrMessageTooShort
	}
	var req GetDepthRequest
	copy(req.CorrelationID[:], msg[0:16])
	off := 16
	symLen := int(msg[off])
	off++
	if len(msg) < off+symLen+4 {
		return GetDepthRequest{}, ErrMessageTooShort
	}
	req.Symbol = string(msg[off : off+symLen])
	off += symLen
	req.N = int32(binary.BigEndian.Uint32(msg[off:]))
	return req, nil
}

// GetStatsRequest is the wire form of a get_stats call. It carries no
// payload beyond the correlation id: get_stats is registry-wide, not
// per-symbol (spec §6).
type GetStatsRequest struct {
	CorrelationID uuid.UUID
}

func (r GetStatsRequest) Encode() []byte {
	buf := make([]byte, headerLen+16)
	off := 0
	buf[off] = byte(MsgGetStats)
	off += headerLen
	copy(buf[off:off+16], r.CorrelationID[:])
	return buf
}

func DecodeGetStatsRequest(msg []byte) (GetStatsRequest, error) {
	if len(msg) < 16 {
		return GetStatsRequest{}, ErrMessageTooShort
	}
	var req GetStatsRequest
	copy(req.CorrelationID[:], msg[0:16])
	return req, nil
}

// ExecutionReport is the wire form of one emitted Trade, addressed to one
// of its two parties.
type ExecutionReport struct {
	CorrelationID uuid.UUID
	Trade         common.Trade
}

func (r ExecutionReport) Encode() []byte {
	symBytes := []byte(r.Trade.Symbol)
	buf := make([]byte, headerLen+16+1+len(symBytes)+8+8+8+8+8+8)
	off := 0
	buf[off] = byte(MsgExecutionReport)
	off += headerLen
	copy(buf[off:off+16], r.CorrelationID[:])
	off += 16
	buf[off] = uint8(len(symBytes))
	off++
	copy(buf[off:], symBytes)
	off += len(symBytes)
	binary.BigEndian.PutUint64(buf[off:], r.Trade.ID)
	off += 8
	binary.BigEndian.PutUint64(buf[off:], r.Trade.BuyOrderID)
	off += 8
	binary.BigEndian.PutUint64(buf[off:], r.Trade.SellOrderID)
	off += 8
	binary.BigEndian.PutUint64(buf[off:], uint64(r.Trade.Price))
	off += 8
	binary.BigEndian.PutUint64(buf[off:], math.Float64bits(r.Trade.Quantity.InexactFloat64()))
	off += 8
	binary.BigEndian.PutUint64(buf[off:], uint64(r.Trade.Timestamp))
	return buf
}

// DecodeExecutionReport parses an ExecutionReport out of msg, which must
// already have had its leading type byte stripped.
func DecodeExecutionReport(msg []byte) (ExecutionReport, error) {
	if len(msg) < 16+1 {
		return ExecutionReport{}, ErrMessageTooShort
	}
	var r ExecutionReport
	copy(r.CorrelationID[:], msg[0:16])
	off := 16

	symLen := int(msg[off])
	off++
	if len(msg) < off+symLen+8+8+8+8+8+8 {
		return ExecutionReport{}, ErrMessageTooShort
	}
	r.Trade.Symbol = string(msg[off : off+symLen])
	off += symLen

	r.Trade.ID = binary.BigEndian.Uint64(msg[off:])
	off += 8
	r.Trade.BuyOrderID = binary.BigEndian.Uint64(msg[off:])
	off += 8
	r.Trade.SellOrderID = binary.BigEndian.Uint64(msg[off:])
	off += 8
	r.Trade.Price = int64(binary.BigEndian.Uint64(msg[off:]))
	off += 8
	r.Trade.Quantity = decimal.NewFromFloat(math.Float64frombits(binary.BigEndian.Uint64(msg[off:])))
	off += 8
	r.Trade.Timestamp = int64(binary.BigEndian.Uint64(msg[off:]))
	return r, nil
}

// ErrorReport carries a rejection back to the client that caused it.
type ErrorReport struct {
	CorrelationID uuid.UUID
	Message       string
}

func (r ErrorReport) Encode() []byte {
	msgBytes := []byte(r.Message)
	buf := make([]byte, headerLen+16+2+len(msgBytes))
	off := 0
	buf[off] = byte(MsgErrorReport)
	off += headerLen
	copy(buf[off:off+16], r.CorrelationID[:])
	off += 16
	binary.BigEndian.PutUint16(buf[off:], uint16(len(msgBytes)))
	off += 2
	copy(buf[off:], msgBytes)
	return buf
}

func DecodeErrorReport(msg []byte) (ErrorReport, error) {
	if len(msg) < 16+2 {
		return ErrorReport{}, ErrMessageTooShort
	}
	var r ErrorReport
	copy(r.CorrelationID[:], msg[0:16])
	off := 16
	msgLen := int(binary.BigEndian.Uint16(msg[off:]))
	off += 2
	if len(msg) < off+msgLen {
		return ErrorReport{}, ErrMessageTooShort
	}
	r.Message = string(msg[off : off+msgLen])
	return r, nil
}

// DepthLevelWire is one aggregated price level inside a DepthReport.
type DepthLevelWire struct {
	Price      float64
	TotalQty   float64
	OrderCount int32
}

// DepthReport is the wire form of a get_depth response (spec §6).
type DepthReport struct {
	CorrelationID uuid.UUID
	Symbol        string
	Bids          []DepthLevelWire
	Asks          []DepthLevelWire
	HasLastPrice  bool
	LastPrice     float64
	Spread        float64
	TotalVolume   float64
}

func encodeDepthLevels(buf []byte, off int, levels []DepthLevelWire) int {
	binary.BigEndian.PutUint16(buf[off:], uint16(len(levels)))
	off += 2
	for _, lvl := range levels {
		binary.BigEndian.PutUint64(buf[off:], math.Float64bits(lvl.Price))
		off += 8
		binary.BigEndian.PutUint64(buf[off:], math.Float64bits(lvl.TotalQty))
		off += 8
		binary.BigEndian.PutUint32(buf[off:], uint32(lvl.OrderCount))
		off += 4
	}
	return off
}

// Encode serializes the report: 1-byte type, 16-byte correlation uuid,
// 1-byte symbol length, symbol bytes, 1-byte has-last-price flag, 8-byte
// last price, 8-byte spread, 8-byte total volume, then bids and asks each
// as a 2-byte count followed by (8-byte price, 8-byte qty, 4-byte order
// count) per level.
func (r DepthReport) Encode() []byte {
	symBytes := []byte(r.Symbol)
	size := headerLen + 16 + 1 + len(symBytes) + 1 + 8 + 8 + 8 + 2 + len(r.Bids)*20 + 2 + len(r.Asks)*20
	buf := make([]byte, size)
	off := 0
	buf[off] = byte(MsgDepthReport)
	off += headerLen
	copy(buf[off:off+16], r.CorrelationID[:])
	off += 16
	buf[off] = uint8(len(symBytes))
	off++
	copy(buf[off:], symBytes)
	off += len(symBytes)

	if r.HasLastPrice {
		buf[off] = 1
	}
	off++
	binary.BigEndian.PutUint64(buf[off:], math.Float64bits(r.LastPrice))
	off += 8
	binary.BigEndian.PutUint64(buf[off:], math.Float64bits(r.Spread))
	off += 8
	binary.BigEndian.PutUint64(buf[off:], math.Float64bits(r.TotalVolume))
	off += 8

	off = encodeDepthLevels(buf, off, r.Bids)
	encodeDepthLevels(buf, off, r.Asks)
	return buf
}

func decodeDepthLevels(msg []byte, off int) ([]DepthLevelWire, int, error) {
	if len(msg) < off+2 {
		return nil, 0, ErrMessageTooShort
	}
	count := int(binary.BigEndian.Uint16(msg[off:]))
	off += 2
	if len(msg) < off+count*20 {
		return nil, 0, ErrMessageTooShort
	}
	levels := make([]DepthLevelWire, count)
	for i := range levels {
		levels[i].Price = math.Float64frombits(binary.BigEndian.Uint64(msg[off:]))
		off += 8
		levels[i].TotalQty = math.Float64frombits(binary.BigEndian.Uint64(msg[off:]))
		off += 8
		levels[i].OrderCount = int32(binary.BigEndian.Uint32(msg[off:]))
		off += 4
	}
	return levels, off, nil
}

func DecodeDepthReport(msg []byte) (DepthReport, error) {
	if len(msg) < 16+1 {
		return DepthReport{}, ErrMessageTooShort
	}
	var r DepthReport
	copy(r.CorrelationID[:], msg[0:16])
	off := 16

	symLen := int(msg[off])
	off++
	if len(msg) < off+symLen+1+8+8+8 {
		return DepthReport{}, ErrMessageTooShort
	}
	r.Symbol = string(msg[off : off+symLen])
	off += symLen

	r.HasLastPrice = msg[off] != 0
	off++
	r.LastPrice = math.Float64frombits(binary.BigEndian.Uint64(msg[off:]))
	off += 8
	r.Spread = math.Float64frombits(binary.BigEndian.Uint64(msg[off:]))
	off += 8
	r.TotalVolume = math.Float64frombits(binary.BigEndian.Uint64(msg[off:]))
	off += 8

	bids, off, err := decodeDepthLevels(msg, off)
	if err != nil {
		return DepthReport{}, err
	}
	r.Bids = bids

	asks, _, err := decodeDepthLevels(msg, off)
	if err != nil {
		return DepthReport{}, err
	}
	r.Asks = asks
	return r, nil
}

// StatsReport is the wire form of a get_stats response (spec §6).
type StatsReport struct {
	CorrelationID   uuid.UUID
	ProcessedOrders uint64
	TotalTrades     uint64
	ActiveSymbols   int32
	Timestamp       int64
}

// Encode serializes the report: 1-byte type, 16-byte correlation uuid,
// 8-byte processed orders, 8-byte total trades, 4-byte active symbols,
// 8-byte timestamp.
func (r StatsReport) Encode() []byte {
	buf := make([]byte, headerLen+16+8+8+4+8)
	off := 0
	buf[off] = byte(MsgStatsReport)
	off += headerLen
	copy(buf[off:off+16], r.CorrelationID[:])
	off += 16
	binary.BigEndian.PutUint64(buf[off:], r.ProcessedOrders)
	off += 8
	binary.BigEndian.PutUint64(buf[off:], r.TotalTrades)
	off += 8
	binary.BigEndian.PutUint32(buf[off:], uint32(r.ActiveSymbols))
	off += 4
	binary.BigEndian.PutUint64(buf[off:], uint64(r.Timestamp))
	return buf
}

func DecodeStatsReport(msg []byte) (StatsReport, error) {
	if len(msg) < 16+8+8+4+8 {
		return StatsReport{}, ErrMessageTooShort
	}
	var r StatsReport
	copy(r.CorrelationID[:], msg[0:16])
	off := 16
	r.ProcessedOrders = binary.BigEndian.Uint64(msg[off:])
	off += 8
	r.TotalTrades = binary.BigEndian.Uint64(msg[off:])
	off += 8
	r.ActiveSymbols = int32(binary.BigEndian.Uint32(msg[off:]))
	off += 4
	r.Timestamp = int64(binary.BigEndian.Uint64(msg[off:]))
	return r, nil
}

// Ack is a bare acknowledgement, used for add_symbol — a request with no
// data to report back beyond success.
type Ack struct {
	CorrelationID uuid.UUID
}

func (r Ack) Encode() []byte {
	buf := make([]byte, headerLen+16)
	off := 0
	buf[off] = byte(MsgAck)
	off += headerLen
	copy(buf[off:off+16], r.CorrelationID[:])
	return buf
}

func DecodeAck(msg []byte) (Ack, error) {
	if len(msg) < 16 {
		return Ack{}, ErrMessageTooShort
	}
	var r Ack
	copy(r.CorrelationID[:], msg[0:16])
	return r, nil
}
