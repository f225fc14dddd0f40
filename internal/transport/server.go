// Package transport is matchcore's host/embedding layer: a length-prefixed
// TCP server that decodes internal/wire messages, drives a
// internal/registry.Registry, and writes execution/error reports back to
// clients. None of this is part of the matching core (spec §1 scopes the
// host layer out) — it is the ambient transport the core needs to be a
// runnable process, built the way the teacher repository builds its TCP
// server: a tomb-supervised worker pool reading fixed-size frames off each
// connection.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"matchcore/internal/common"
	"matchcore/internal/metrics"
	"matchcore/internal/registry"
	"matchcore/internal/wire"
)

const (
	maxRecvSize        = 4 * 1024
	defaultNWorkers    = 10
	defaultConnTimeout = 5 * time.Second
)

var errImproperConversion = errors.New("matchcore/transport: improper task conversion")

type clientSession struct {
	conn  net.Conn
	guard *connGuard
}

// Server accepts client connections, decodes wire messages off them, and
// drives reg on their behalf.
type Server struct {
	address string
	port    int
	reg     *registry.Registry
	metrics *metrics.Collectors

	pool   WorkerPool
	cancel context.CancelFunc

	sessionsMu sync.Mutex
	sessions   map[string]*clientSession

	readyMu sync.Mutex
	addr    string
	ready   chan struct{}
}

// New builds a Server bound to reg; metrics may be nil to disable metric
// recording.
func New(address string, port int, reg *registry.Registry, m *metrics.Collectors) *Server {
	return &Server{
		address:  address,
		port:     port,
		reg:      reg,
		metrics:  m,
		pool:     NewWorkerPool(defaultNWorkers),
		sessions: make(map[string]*clientSession),
		ready:    make(chan struct{}),
	}
}

// Addr blocks until Run has bound its listener, then returns its address.
// Mainly useful in tests that bind to port 0.
func (s *Server) Addr() string {
	<-s.ready
	s.readyMu.Lock()
	defer s.readyMu.Unlock()
	return s.addr
}

// Run accepts connections until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	defer s.cancel()

	t, ctx := tomb.WithContext(ctx)
	s.pool.Setup(t, s.handleConnection)

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		return fmt.Errorf("matchcore/transport: listen: %w", err)
	}
	defer listener.Close()

	s.readyMu.Lock()
	s.addr = listener.Addr().String()
	s.readyMu.Unlock()
	close(s.ready)

	log.Info().Str("address", listener.Addr().String()).Msg("matchcore server listening")

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				log.Error().Err(err).Msg("error accepting connection")
				continue
			}
		}
		s.addSession(conn)
		s.pool.AddTask(conn)
	}
}

// Shutdown stops Run and every in-flight worker.
func (s *Server) Shutdown() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Server) addSession(conn net.Conn) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	addr := conn.RemoteAddr().String()
	s.sessions[addr] = &clientSession{conn: conn, guard: newConnGuard(addr)}
}

func (s *Server) session(addr string) (*clientSession, bool) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	sess, ok := s.sessions[addr]
	return sess, ok
}

func (s *Server) dropSession(addr string) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	delete(s.sessions, addr)
}

// handleConnection reads one frame, dispatches it, writes a reply, and
// re-queues the connection for its next frame. A read/decode failure
// drops the session.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return errImproperConversion
	}
	addr := conn.RemoteAddr().String()

	select {
	case <-t.Dying():
		return nil
	default:
	}

	if err := conn.SetDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		log.Error().Err(err).Str("address", addr).Msg("failed setting connection deadline")
		s.dropSession(addr)
		return nil
	}

	buf := make([]byte, maxRecvSize)
	n, err := conn.Read(buf)
	if err != nil {
		log.Debug().Err(err).Str("address", addr).Msg("connection closed")
		s.dropSession(addr)
		return nil
	}

	sess, ok := s.session(addr)
	if !ok {
		return nil
	}

	if err := s.dispatch(sess, buf[:n]); err != nil {
		log.Error().Err(err).Str("address", addr).Msg("error handling message")
	}

	s.pool.AddTask(conn)
	return nil
}

// dispatch decodes one frame and runs it under the connection's guard.
func (s *Server) dispatch(sess *clientSession, frame []byte) error {
	msgType, err := wire.PeekType(frame)
	if err != nil {
		return err
	}
	body := frame[1:]

	switch msgType {
	case wire.MsgNewOrder:
		return sess.guard.Guard(func() error { return s.handleNewOrder(sess, body) })
	case wire.MsgCancelOrder:
		return sess.guard.Guard(func() error { return s.handleCancel(sess, body) })
	case wire.MsgAddSymbol:
		return sess.guard.Guard(func() error { return s.handleAddSymbol(sess, body) })
	case wire.MsgGetDepth:
		return sess.guard.Guard(func() error { return s.handleGetDepth(sess, body) })
	case wire.MsgGetStats:
		return sess.guard.Guard(func() error { return s.handleGetStats(sess, body) })
	default:
		return wire.ErrUnknownMessageType
	}
}

func (s *Server) handleNewOrder(sess *clientSession, body []byte) error {
	req, err := wire.DecodeNewOrderRequest(body)
	if err != nil {
		return err
	}

	start := time.Now()
	trades, err := s.reg.PlaceOrder(req.Symbol, req.Side, req.OrderType, req.Quantity, req.Price, req.UserID)
	if s.metrics != nil {
		s.metrics.SubmitLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.reportError(sess, req.CorrelationID, err)
		// Returned so the connection's breaker counts the rejection.
		return err
	}

	if s.metrics != nil {
		s.metrics.OrdersProcessed.Inc()
		s.metrics.TradesEmitted.Add(float64(len(trades)))
	}
	s.reportTrades(sess, req.CorrelationID, trades)
	return nil
}

func (s *Server) handleCancel(sess *clientSession, body []byte) error {
	req, err := wire.DecodeCancelOrderRequest(body)
	if err != nil {
		return err
	}
	if err := s.reg.CancelOrder(req.Symbol, req.OrderID); err != nil {
		s.reportError(sess, req.CorrelationID, err)
	}
	return nil
}

func (s *Server) handleAddSymbol(sess *clientSession, body []byte) error {
	req, err := wire.DecodeAddSymbolRequest(body)
	if err != nil {
		return err
	}
	s.reg.AddSymbol(req.Symbol)
	ack := wire.Ack{CorrelationID: req.CorrelationID}
	if _, err := sess.conn.Write(ack.Encode()); err != nil {
		log.Error().Err(err).Msg("failed writing ack")
	}
	return nil
}

func (s *Server) handleGetDepth(sess *clientSession, body []byte) error {
	req, err := wire.DecodeGetDepthRequest(body)
	if err != nil {
		return err
	}

	view, err := s.reg.GetDepth(req.Symbol, int(req.N))
	if err != nil {
		s.reportError(sess, req.CorrelationID, err)
		return nil
	}

	report := wire.DepthReport{
		CorrelationID: req.CorrelationID,
		Symbol:        view.Symbol,
		Bids:          toWireLevels(view.Bids),
		Asks:          toWireLevels(view.Asks),
		HasLastPrice:  view.HasLastPrice,
		LastPrice:     view.LastPrice,
		Spread:        view.Spread,
		TotalVolume:   view.TotalVolume,
	}
	if _, err := sess.conn.Write(report.Encode()); err != nil {
		log.Error().Err(err).Msg("failed writing depth report")
	}
	return nil
}

func (s *Server) handleGetStats(sess *clientSession, body []byte) error {
	req, err := wire.DecodeGetStatsRequest(body)
	if err != nil {
		return err
	}

	stats := s.reg.GetStats()
	report := wire.StatsReport{
		CorrelationID:   req.CorrelationID,
		ProcessedOrders: stats.ProcessedOrders,
		TotalTrades:     stats.TotalTrades,
		ActiveSymbols:   int32(stats.ActiveSymbols),
		Timestamp:       stats.Timestamp,
	}
	if _, err := sess.conn.Write(report.Encode()); err != nil {
		log.Error().Err(err).Msg("failed writing stats report")
	}
	return nil
}

func toWireLevels(levels []registry.DepthLevel) []wire.DepthLevelWire {
	out := make([]wire.DepthLevelWire, len(levels))
	for i, lvl := range levels {
		out[i] = wire.DepthLevelWire{Price: lvl.Price, TotalQty: lvl.TotalQty, OrderCount: int32(lvl.OrderCount)}
	}
	return out
}

func (s *Server) reportTrades(sess *clientSession, corr uuid.UUID, trades []common.Trade) {
	for _, trade := range trades {
		report := wire.ExecutionReport{CorrelationID: corr, Trade: trade}
		if _, err := sess.conn.Write(report.Encode()); err != nil {
			log.Error().Err(err).Msg("failed writing execution report")
			return
		}
	}
}

func (s *Server) reportError(sess *clientSession, corr uuid.UUID, cause error) {
	if s.metrics != nil {
		s.metrics.ObserveReject(cause.Error())
	}
	report := wire.ErrorReport{CorrelationID: corr, Message: cause.Error()}
	if _, err := sess.conn.Write(report.Encode()); err != nil {
		log.Error().Err(err).Msg("failed writing error report")
	}
}
