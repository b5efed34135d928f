package service

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/reimburse/internal/receipt"
)

func connectInMemory(t *testing.T) (*mcp.ClientSession, func()) {
	t.Helper()

	server, err := New(receipt.NewExtractor(nil), nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.serveWithTransport(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		t.Fatalf("connect client: %v", err)
	}

	stop := func() {
		cancel()
		select {
		case err := <-serveErr:
			if err != nil {
				t.Errorf("serve returned error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("timed out waiting for server to stop")
		}
		_ = session.Close()
	}
	return session, stop
}

func structured(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("tool returned error: %+v", result.Content)
	}
	out, ok := result.StructuredContent.(map[string]any)
	if !ok {
		t.Fatalf("expected structured content, got %T", result.StructuredContent)
	}
	return out
}

func TestServerListsTools(t *testing.T) {
	session, stop := connectInMemory(t)
	defer stop()

	result, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	names := make(map[string]bool)
	for _, tool := range result.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"extract_receipt", "claim_totals", "list_receipt_categories"} {
		if !names[want] {
			t.Errorf("expected tool %q, got %v", want, names)
		}
	}
}

func TestExtractReceiptTool(t *testing.T) {
	session, stop := connectInMemory(t)
	defer stop()

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "extract_receipt",
		Arguments: map[string]any{
			"text":      "Uber\nTrip on 04/03/2026\nTotal ₹342.50",
			"file_name": "uber-ride.png",
		},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	out := structured(t, result)
	if out["category"] != "Taxi" {
		t.Errorf("expected Taxi, got %v", out["category"])
	}
	if out["date"] != "04/03/2026" {
		t.Errorf("expected date 04/03/2026, got %v", out["date"])
	}
}

func TestExtractReceiptToolRejectsEmptyText(t *testing.T) {
	session, stop := connectInMemory(t)
	defer stop()

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "extract_receipt",
		Arguments: map[string]any{"text": " "},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for empty text")
	}
}

func TestClaimTotalsTool(t *testing.T) {
	session, stop := connectInMemory(t)
	defer stop()

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "claim_totals",
		Arguments: map[string]any{
			"journeys":  []any{map[string]any{"amount": 1000}},
			"hotels":    []any{map[string]any{"amount": "200.25"}},
			"daClaimed": []any{map[string]any{"amount": "34.25"}},
		},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	out := structured(t, result)
	if out["grand_total"] != "1234.50" {
		t.Errorf("expected grand total 1234.50, got %v", out["grand_total"])
	}
	if out["da_claimed"] != "34.25" {
		t.Errorf("expected da_claimed 34.25, got %v", out["da_claimed"])
	}
	if out["amount_in_words"] != "Rupees One Thousand Two Hundred Thirty Four and Fifty Paise Only" {
		t.Errorf("unexpected words %v", out["amount_in_words"])
	}
}

func TestServeHTTPStopsOnCancel(t *testing.T) {
	server, err := New(receipt.NewExtractor(nil), nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.serveHTTP(ctx, listener)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(context.Background(), &mcp.StreamableClientTransport{
		Endpoint: "http://" + listener.Addr().String(),
	}, nil)
	if err != nil {
		cancel()
		t.Fatalf("connect client: %v", err)
	}
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "list_receipt_categories",
		Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if out := structured(t, result); out["categories"] == nil {
		t.Fatal("expected categories")
	}
	_ = session.Close()

	cancel()
	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("serveHTTP returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for serveHTTP to stop")
	}
}

func TestNewRequiresExtractor(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Fatal("expected error for nil extractor")
	}
}

func TestParseTransport(t *testing.T) {
	tests := []struct {
		in      string
		want    TransportKind
		wantErr bool
	}{
		{in: "", want: TransportStdio},
		{in: "STDIO", want: TransportStdio},
		{in: " http ", want: TransportHTTP},
		{in: "sse", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseTransport(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTransport(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseTransport(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}
