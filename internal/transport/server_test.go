package transport_test

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"matchcore/internal/clock"
	"matchcore/internal/common"
	"matchcore/internal/registry"
	"matchcore/internal/transport"
	"matchcore/internal/wire"
)

func TestServer_PlaceOrder_ExecutionReport(t *testing.T) {
	reg := registry.New(clock.NewManual(1000))
	reg.AddSymbol("AAPL")
	_, err := reg.PlaceOrder("AAPL", common.Sell, common.LimitOrder, 10, 100.00, 1)
	require.NoError(t, err)

	srv := transport.New("127.0.0.1", 0, reg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	addr := srv.Addr()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	req := wire.NewOrderRequest{
		CorrelationID: uuid.New(),
		Symbol:        "AAPL",
		Side:          common.Buy,
		OrderType:     common.LimitOrder,
		Quantity:      4,
		Price:         101.00,
		UserID:        2,
	}
	_, err = conn.Write(req.Encode())
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	header := make([]byte, 1)
	_, err = io.ReadFull(conn, header)
	require.NoError(t, err)
	require.Equal(t, wire.MsgExecutionReport, wire.MessageType(header[0]))

	cancel()
	<-done
}

func TestServer_AddSymbol_Ack(t *testing.T) {
	reg := registry.New(clock.NewManual(1000))
	srv := transport.New("127.0.0.1", 0, reg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	addr := srv.Addr()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	req := wire.AddSymbolRequest{CorrelationID: uuid.New(), Symbol: "MSFT"}
	_, err = conn.Write(req.Encode())
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	header := make([]byte, 1)
	_, err = io.ReadFull(conn, header)
	require.NoError(t, err)
	require.Equal(t, wire.MsgAck, wire.MessageType(header[0]))

	_, err = reg.GetDepth("MSFT", 10)
	require.NoError(t, err)

	cancel()
	<-done
}

func TestServer_GetDepth_DepthReport(t *testing.T) {
	reg := registry.New(clock.NewManual(1000))
	reg.AddSymbol("AAPL")
	_, err := reg.PlaceOrder("AAPL", common.Sell, common.LimitOrder, 10, 100.00, 1)
	require.NoError(t, err)

	srv := transport.New("127.0.0.1", 0, reg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	addr := srv.Addr()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	req := wire.GetDepthRequest{CorrelationID: uuid.New(), Symbol: "AAPL", N: 10}
	_, err = conn.Write(req.Encode())
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	header := make([]byte, 1)
	_, err = io.ReadFull(conn, header)
	require.NoError(t, err)
	require.Equal(t, wire.MsgDepthReport, wire.MessageType(header[0]))

	cancel()
	<-done
}

func TestServer_GetStats_StatsReport(t *testing.T) {
	reg := registry.New(clock.NewManual(1000))
	reg.AddSymbol("AAPL")

	srv := transport.New("127.0.0.1", 0, reg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	addr := srv.Addr()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	req := wire.GetStatsRequest{CorrelationID: uuid.New()}
	_, err = conn.Write(req.Encode())
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	header := make([]byte, 1)
	_, err = io.ReadFull(conn, header)
	require.NoError(t, err)
	require.Equal(t, wire.MsgStatsReport, wire.MessageType(header[0]))

	cancel()
	<-done
}

func TestServer_InvalidOrder_ErrorReport(t *testing.T) {
	reg := registry.New(clock.NewManual(1000))
	reg.AddSymbol("AAPL")

	srv := transport.New("127.0.0.1", 0, reg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	addr := srv.Addr()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	req := wire.NewOrderRequest{
		CorrelationID: uuid.New(),
		Symbol:        "AAPL",
		Side:          common.Buy,
		OrderType:     common.LimitOrder,
		Quantity:      0,
		Price:         101.00,
		UserID:        2,
	}
	_, err = conn.Write(req.Encode())
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	header := make([]byte, 1)
	_, err = io.ReadFull(conn, header)
	require.NoError(t, err)
	require.Equal(t, wire.MsgErrorReport, wire.MessageType(header[0]))

	cancel()
	<-done
}
