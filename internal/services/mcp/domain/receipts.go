package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/reimburse/internal/receipt"
)

// Extractor reads structured data out of OCR'd receipt text.
type Extractor interface {
	Extract(ctx context.Context, in receipt.Input) (receipt.Result, error)
}

// KnownMerchantInput is a merchant name the caller has confirmed before.
type KnownMerchantInput struct {
	Name     string `json:"name" jsonschema:"merchant name as it appears on receipts"`
	Category string `json:"category,omitempty" jsonschema:"category to force when the name matches"`
}

// ExtractReceiptInput represents the MCP tool input for receipt extraction.
type ExtractReceiptInput struct {
	Text           string               `json:"text" jsonschema:"OCR text of the receipt"`
	FileName       string               `json:"file_name,omitempty" jsonschema:"original file name, used as a category hint"`
	KnownMerchants []KnownMerchantInput `json:"known_merchants,omitempty" jsonschema:"merchants learned from earlier corrections, most used first"`
}

// ExtractReceiptResult represents the MCP tool output for receipt extraction.
type ExtractReceiptResult struct {
	Category   string            `json:"category" jsonschema:"detected receipt category"`
	Merchant   string            `json:"merchant" jsonschema:"merchant name, empty when none was found"`
	Amount     string            `json:"amount" jsonschema:"amount in rupees with two decimals"`
	Date       string            `json:"date" jsonschema:"first date found on the receipt"`
	Confidence int               `json:"confidence" jsonschema:"confidence score from 0 to 100"`
	Details    map[string]string `json:"details,omitempty" jsonschema:"category specific fields"`
}

// ListCategoriesResult lists the categories the loaded policies can detect.
type ListCategoriesResult struct {
	Categories []string `json:"categories" jsonschema:"category names in detection order"`
}

// ExtractReceiptTool defines the MCP tool schema for receipt extraction.
func ExtractReceiptTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "extract_receipt",
		Description: "Reads category, merchant, amount and date from OCR'd receipt text",
	}
}

// ListCategoriesTool defines the MCP tool schema for listing categories.
func ListCategoriesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_receipt_categories",
		Description: "Lists the receipt categories the extractor can detect",
	}
}

// ExtractReceiptHandler runs the extractor over the supplied text.
func ExtractReceiptHandler(extractor Extractor) mcp.ToolHandlerFor[ExtractReceiptInput, ExtractReceiptResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ExtractReceiptInput) (*mcp.CallToolResult, ExtractReceiptResult, error) {
		if extractor == nil {
			return nil, ExtractReceiptResult{}, fmt.Errorf("receipt extractor is not configured")
		}
		if strings.TrimSpace(input.Text) == "" {
			return nil, ExtractReceiptResult{}, fmt.Errorf("text is required")
		}

		in := receipt.Input{Text: input.Text, FileName: input.FileName}
		for _, known := range input.KnownMerchants {
			name := strings.TrimSpace(known.Name)
			if name == "" {
				continue
			}
			in.KnownMerchants = append(in.KnownMerchants, receipt.KnownMerchant{
				Name:     name,
				Category: receipt.Category(strings.TrimSpace(known.Category)),
			})
		}

		result, err := extractor.Extract(ctx, in)
		if err != nil {
			return nil, ExtractReceiptResult{}, fmt.Errorf("extract receipt: %w", err)
		}
		return &mcp.CallToolResult{}, ExtractReceiptResult{
			Category:   result.Category.String(),
			Merchant:   result.Merchant,
			Amount:     result.Amount.StringFixed(2),
			Date:       result.Date,
			Confidence: result.Confidence,
			Details:    result.Details,
		}, nil
	}
}

// ListCategoriesHandler reports the categories of the given policy source.
func ListCategoriesHandler(policies func() *receipt.PolicySet) mcp.ToolHandlerFor[any, ListCategoriesResult] {
	return func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, ListCategoriesResult, error) {
		var set *receipt.PolicySet
		if policies != nil {
			set = policies()
		}
		if set == nil {
			set = receipt.DefaultPolicies()
		}
		out := ListCategoriesResult{Categories: []string{}}
		for _, category := range set.Categories() {
			out.Categories = append(out.Categories, category.String())
		}
		return &mcp.CallToolResult{}, out, nil
	}
}
