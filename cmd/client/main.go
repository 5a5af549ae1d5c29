// Command client is a smoke-test CLI against a gateway or shard: submit an
// order, seed a book, or check health. It is a convenience tool, not part
// of the matching hot path.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "Gateway or shard base URL")

	submitCmd := flag.NewFlagSet("submit", flag.ExitOnError)
	submitOrderID := submitCmd.String("order-id", "", "Order id (required)")
	submitSymbol := submitCmd.String("symbol", "AAPL", "Symbol")
	submitSide := submitCmd.String("side", "BUY", "Order side (BUY/SELL)")
	submitType := submitCmd.String("type", "LIMIT", "Order type (LIMIT/MARKET)")
	submitPrice := submitCmd.Int64("price", 15000, "Limit price in cents")
	submitQty := submitCmd.Int64("qty", 100, "Order quantity")

	healthCmd := flag.NewFlagSet("health", flag.ExitOnError)

	demoCmd := flag.NewFlagSet("demo", flag.ExitOnError)

	flag.Parse()
	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "submit":
		submitCmd.Parse(args[1:])
		if *submitOrderID == "" {
			fmt.Println("submit requires -order-id")
			os.Exit(1)
		}
		submitOrder(*serverURL, *submitOrderID, *submitSymbol, *submitSide, *submitType, *submitPrice, *submitQty)

	case "health":
		healthCmd.Parse(args[1:])
		getHealth(*serverURL)

	case "demo":
		demoCmd.Parse(args[1:])
		runDemo(*serverURL)

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Matching engine client

Usage:
  client <command> [options]

Commands:
  submit   Submit a new order
  health   Check /health
  demo     Run a scripted demo against a single symbol

Examples:
  client -server http://localhost:8080 submit -order-id o-1 -symbol AAPL -side BUY -type LIMIT -price 15000 -qty 100
  client -server http://localhost:8080 health
  client -server http://localhost:8080 demo`)
}

type orderRequest struct {
	OrderID  string `json:"orderId"`
	Symbol   string `json:"symbol"`
	Side     string `json:"side"`
	Type     string `json:"type"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
}

func submitOrder(serverURL, orderID, symbol, side, orderType string, price, qty int64) {
	req := orderRequest{OrderID: orderID, Symbol: symbol, Side: side, Type: orderType, Price: price, Quantity: qty}

	resp, err := postJSON(serverURL+"/orders", req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("Order response:")
	printJSON(resp)
}

func getHealth(serverURL string) {
	resp, err := http.Get(serverURL + "/health")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	printJSONBytes(body)
}

func runDemo(serverURL string) {
	fmt.Println("=== Matching engine demo ===")

	fmt.Println("1. Market maker posts resting bids:")
	submitOrder(serverURL, "mm-bid-1", "AAPL", "BUY", "LIMIT", 14900, 100)
	submitOrder(serverURL, "mm-bid-2", "AAPL", "BUY", "LIMIT", 14850, 200)

	fmt.Println("\n2. Market maker posts resting asks:")
	submitOrder(serverURL, "mm-ask-1", "AAPL", "SELL", "LIMIT", 15100, 100)
	submitOrder(serverURL, "mm-ask-2", "AAPL", "SELL", "LIMIT", 15150, 200)

	fmt.Println("\n3. Taker crosses the spread with a market buy:")
	submitOrder(serverURL, "taker-1", "AAPL", "BUY", "MARKET", 0, 150)

	fmt.Println("\n=== Demo complete ===")
}

func postJSON(url string, data any) (map[string]any, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	err = json.Unmarshal(body, &result)
	return result, err
}

func printJSON(data any) {
	jsonBytes, _ := json.MarshalIndent(data, "", "  ")
	fmt.Println(string(jsonBytes))
}

func printJSONBytes(data []byte) {
	var obj any
	json.Unmarshal(data, &obj)
	printJSON(obj)
}
