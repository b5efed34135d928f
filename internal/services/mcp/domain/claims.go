package domain

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/reimburse/internal/claim"
)

// ClaimTotalsResult represents the MCP tool output for claim totals.
type ClaimTotalsResult struct {
	Journeys      string `json:"journeys" jsonschema:"sum of journey amounts"`
	Hotels        string `json:"hotels" jsonschema:"sum of hotel amounts"`
	Conveyance    string `json:"conveyance" jsonschema:"sum of local conveyance amounts"`
	DAClaimed     string `json:"da_claimed" jsonschema:"sum of daily allowance amounts"`
	OtherExpenses string `json:"other_expenses" jsonschema:"sum of other expense amounts"`
	GrandTotal    string `json:"grand_total" jsonschema:"sum of every section"`
	Display       string `json:"display" jsonschema:"grand total formatted for display"`
	AmountInWords string `json:"amount_in_words" jsonschema:"grand total spelled out, or the words typed on the form"`
}

// ClaimTotalsTool defines the MCP tool schema for claim totals.
//
// The input schema is declared by hand: amounts may arrive as numbers or
// strings and every section is optional, which the inferred schema of
// claim.Claim would reject.
func ClaimTotalsTool() *mcp.Tool {
	row := &jsonschema.Schema{
		Type:        "array",
		Items:       &jsonschema.Schema{Type: "object"},
		Description: "rows with an amount field",
	}
	return &mcp.Tool{
		Name:        "claim_totals",
		Description: "Sums a reimbursement claim by section and spells the grand total in words",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"employeeName":  {Type: "string"},
				"employeeCode":  {Type: "string"},
				"periodOfClaim": {Type: "string"},
				"amountInWords": {Type: "string", Description: "overrides the generated words when set"},
				"journeys":      row,
				"hotels":        row,
				"conveyance":    row,
				"daClaimed":     row,
				"otherExpenses": row,
			},
		},
	}
}

// ClaimTotalsHandler sums the submitted claim.
func ClaimTotalsHandler() mcp.ToolHandlerFor[claim.Claim, ClaimTotalsResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input claim.Claim) (*mcp.CallToolResult, ClaimTotalsResult, error) {
		totals := input.Totals()
		return &mcp.CallToolResult{}, ClaimTotalsResult{
			Journeys:      totals.Journeys.StringFixed(2),
			Hotels:        totals.Hotels.StringFixed(2),
			Conveyance:    totals.Conveyance.StringFixed(2),
			DAClaimed:     totals.DailyAllowance.StringFixed(2),
			OtherExpenses: totals.Other.StringFixed(2),
			GrandTotal:    totals.Grand.StringFixed(2),
			Display:       claim.DisplayRupees(totals.Grand),
			AmountInWords: input.Words(),
		}, nil
	}
}
