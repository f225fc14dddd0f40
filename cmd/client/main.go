// Command client is a small CLI driver for a running matchcore server, in
// the manner of the teacher repository's cmd/client/client.go: place or
// cancel an order over TCP, then print any execution/error reports that
// come back.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"

	"github.com/google/uuid"

	"matchcore/internal/common"
	"matchcore/internal/tick"
	"matchcore/internal/wire"
)

func main() {
	serverAddr := flag.String("server", "127.0.0.1:9001", "address of the matchcore server")
	action := flag.String("action", "place", "action to perform: place, cancel, add-symbol, depth, stats")
	symbol := flag.String("symbol", "AAPL", "symbol to trade")
	sideStr := flag.String("side", "buy", "buy or sell")
	typeStr := flag.String("type", "limit", "limit or market")
	price := flag.Float64("price", 100.0, "limit price (ignored for market orders)")
	qty := flag.Float64("qty", 10, "order quantity")
	userID := flag.Uint("user", 1, "user id to attach to the order")
	orderID := flag.Uint64("order-id", 0, "order id to cancel (action=cancel)")
	depthN := flag.Int("n", 20, "number of price levels to request (action=depth)")
	flag.Parse()

	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", *serverAddr, err)
	}
	defer conn.Close()

	go printReports(conn)

	switch strings.ToLower(*action) {
	case "place":
		side := common.Buy
		if strings.ToLower(*sideStr) == "sell" {
			side = common.Sell
		}
		orderType := common.LimitOrder
		if strings.ToLower(*typeStr) == "market" {
			orderType = common.MarketOrder
		}

		req := wire.NewOrderRequest{
			CorrelationID: uuid.New(),
			Symbol:        *symbol,
			Side:          side,
			OrderType:     orderType,
			Quantity:      *qty,
			Price:         *price,
			UserID:        uint32(*userID),
		}
		if _, err := conn.Write(req.Encode()); err != nil {
			log.Fatalf("failed to send order: %v", err)
		}
		fmt.Printf("-> sent %s %s order: %s %.4f @ %.4f\n", orderType, side, *symbol, *qty, *price)

	case "cancel":
		req := wire.CancelOrderRequest{CorrelationID: uuid.New(), Symbol: *symbol, OrderID: *orderID}
		if _, err := conn.Write(req.Encode()); err != nil {
			log.Fatalf("failed to send cancel: %v", err)
		}
		fmt.Printf("-> sent cancel for order %d on %s\n", *orderID, *symbol)

	case "add-symbol":
		req := wire.AddSymbolRequest{CorrelationID: uuid.New(), Symbol: *symbol}
		if _, err := conn.Write(req.Encode()); err != nil {
			log.Fatalf("failed to send add-symbol: %v", err)
		}
		fmt.Printf("-> sent add-symbol for %s\n", *symbol)

	case "depth":
		req := wire.GetDepthRequest{CorrelationID: uuid.New(), Symbol: *symbol, N: int32(*depthN)}
		if _, err := conn.Write(req.Encode()); err != nil {
			log.Fatalf("failed to send get-depth: %v", err)
		}
		fmt.Printf("-> sent get-depth for %s (n=%d)\n", *symbol, *depthN)

	case "stats":
		req := wire.GetStatsRequest{CorrelationID: uuid.New()}
		if _, err := conn.Write(req.Encode()); err != nil {
			log.Fatalf("failed to send get-stats: %v", err)
		}
		fmt.Println("-> sent get-stats")

	default:
		log.Fatalf("unknown action: %s", *action)
	}

	fmt.Println("listening for reports... (ctrl+C to exit)")
	select {}
}

// codec converts tick keys back to display prices. The client doesn't know
// the server's configured tick scale, so it assumes tick.DefaultScale, the
// scale cmd/server always uses (it builds its registry with registry.New).
var codec = tick.NewCodec(tick.DefaultScale)

func readExact(conn net.Conn, n int) []byte {
	buf := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(conn, buf); err != nil {
			if err != io.EOF {
				log.Printf("connection lost: %v", err)
			}
			os.Exit(0)
		}
	}
	return buf
}

func printReports(conn net.Conn) {
	for {
		header := readExact(conn, 1)

		switch wire.MessageType(header[0]) {
		case wire.MsgErrorReport:
			fixed := readExact(conn, 16+2)
			msgLen := int(binary.BigEndian.Uint16(fixed[16:]))
			body := append(fixed, readExact(conn, msgLen)...)
			report, err := wire.DecodeErrorReport(body)
			if err != nil {
				log.Printf("malformed error report: %v", err)
				continue
			}
			fmt.Printf("\n[ERROR] %s\n", report.Message)

		case wire.MsgExecutionReport:
			prefix := readExact(conn, 16+1)
			symLen := int(prefix[16])
			rest := readExact(conn, symLen+8+8+8+8+8+8)
			report, err := wire.DecodeExecutionReport(append(prefix, rest...))
			if err != nil {
				log.Printf("malformed execution report: %v", err)
				continue
			}
			fmt.Printf("\n[FILL] %s qty=%s price=%.4f buy=%d sell=%d\n",
				report.Trade.Symbol, report.Trade.Quantity, codec.KeyToPrice(report.Trade.Price),
				report.Trade.BuyOrderID, report.Trade.SellOrderID)

		case wire.MsgAck:
			readExact(conn, 16)
			fmt.Println("\n[ACK]")

		case wire.MsgStatsReport:
			body := readExact(conn, 16+8+8+4+8)
			report, err := wire.DecodeStatsReport(body)
			if err != nil {
				log.Printf("malformed stats report: %v", err)
				continue
			}
			fmt.Printf("\n[STATS] processed=%d trades=%d symbols=%d ts=%d\n",
				report.ProcessedOrders, report.TotalTrades, report.ActiveSymbols, report.Timestamp)

		case wire.MsgDepthReport:
			prefix := readExact(conn, 16+1)
			symLen := int(prefix[16])
			head := append(prefix, readExact(conn, symLen+1+8+8+8)...)
			bidCount := readExact(conn, 2)
			bids := readExact(conn, int(binary.BigEndian.Uint16(bidCount))*20)
			askCount := readExact(conn, 2)
			asks := readExact(conn, int(binary.BigEndian.Uint16(askCount))*20)

			body := append(head, bidCount...)
			body = append(body, bids...)
			body = append(body, askCount...)
			body = append(body, asks...)

			report, err := wire.DecodeDepthReport(body)
			if err != nil {
				log.Printf("malformed depth report: %v", err)
				continue
			}
			fmt.Printf("\n[DEPTH] %s bids=%d asks=%d last=%.4f spread=%.4f volume=%.4f\n",
				report.Symbol, len(report.Bids), len(report.Asks), report.LastPrice, report.Spread, report.TotalVolume)

		default:
			fmt.Printf("\n[REPORT] type=%d\n", header[0])
		}
	}
}
