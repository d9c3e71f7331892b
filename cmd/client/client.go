package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"riptide/internal/common"
	riptideNet "riptide/internal/net"
)

func main() {
	serverAddr := flag.String("server", "127.0.0.1:9001", "Address of the engine server")
	action := flag.String("action", "place", "Action to perform: ['place', 'cancel']")

	// Order parameters.
	base := flag.String("base", "BTC", "Base asset of the trading pair")
	quote := flag.String("quote", "USDC", "Quote asset of the trading pair")
	sideStr := flag.String("side", "bid", "Order side: 'bid' or 'ask'")
	typeStr := flag.String("type", "limit", "Order type: 'limit', 'market' or 'stop'")
	price := flag.String("price", "", "Limit price")
	stopPrice := flag.String("stop", "", "Trigger price for stop orders")
	activatesStr := flag.String("activates", "market", "What a stop converts into: 'market' or 'limit'")
	qtyStr := flag.String("qty", "10", "Quantity or comma-separated list (e.g. 10,20,50)")

	// Cancel parameters.
	orderID := flag.String("id", "", "ID of the order to cancel")

	flag.Parse()

	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("Failed to connect to server at %s: %v", *serverAddr, err)
	}
	defer conn.Close()
	fmt.Printf("Connected to %s\n", *serverAddr)

	sent := 0
	switch strings.ToLower(*action) {
	case "place":
		for _, qty := range strings.Split(*qtyStr, ",") {
			msg := riptideNet.NewOrderMessage{
				Base:      *base,
				Quote:     *quote,
				Side:      parseSide(*sideStr),
				OrderType: parseType(*typeStr),
				Activates: parseType(*activatesStr),
				Price:     *price,
				StopPrice: *stopPrice,
				Quantity:  strings.TrimSpace(qty),
			}
			if _, err := conn.Write(msg.Encode()); err != nil {
				log.Fatalf("Failed to place order (qty %s): %v", qty, err)
			}
			fmt.Printf("-> Sent %s %s order: %s/%s %s@%s\n",
				*sideStr, *typeStr, *base, *quote, qty, *price)
			sent++
			// Give the server a moment so arrival order stays deterministic.
			time.Sleep(5 * time.Millisecond)
		}

	case "cancel":
		if *orderID == "" {
			log.Fatal("Error: -id is required for cancellation")
		}
		msg := riptideNet.CancelOrderMessage{Base: *base, Quote: *quote, OrderID: *orderID}
		if _, err := conn.Write(msg.Encode()); err != nil {
			log.Fatalf("Failed to send cancel request: %v", err)
		}
		fmt.Printf("-> Sent cancel request for %s\n", *orderID)
		sent++

	default:
		log.Fatalf("Unknown action: %s", *action)
	}

	readReports(conn, sent)
}

// readReports prints one report per sent command, then returns.
func readReports(conn net.Conn, expected int) {
	buffer := make([]byte, 4*1024)
	for i := 0; i < expected; i++ {
		n, err := conn.Read(buffer)
		if err != nil {
			log.Fatalf("Failed reading report: %v", err)
		}
		report, err := riptideNet.ParseReport(buffer[:n])
		if err != nil {
			log.Fatalf("Failed parsing report: %v", err)
		}
		printReport(report)
	}
}

func printReport(r riptideNet.Report) {
	switch r.TypeOf {
	case riptideNet.PlacementReport:
		fmt.Printf("<- Placed %s: filled %s @ avg %s, remaining %s (rested: %v)\n",
			r.OrderID, r.Filled, r.AveragePrice, r.Remaining, r.Rested)
	case riptideNet.CancelReport:
		fmt.Printf("<- Cancelled %s: released %s\n", r.OrderID, r.Remaining)
	case riptideNet.ErrorReport:
		fmt.Printf("<- Error: %s\n", r.Err)
	}
}

func parseSide(s string) common.Side {
	if strings.ToLower(s) == "ask" || strings.ToLower(s) == "sell" {
		return common.Ask
	}
	return common.Bid
}

func parseType(s string) common.OrderType {
	switch strings.ToLower(s) {
	case "market":
		return common.MarketOrder
	case "stop":
		return common.StopOrder
	default:
		return common.LimitOrder
	}
}
