package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestClaimPageLoadsClientAssets(t *testing.T) {
	var buf bytes.Buffer
	if err := ClaimPage(Page{AssetVersion: "abc"}).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	body := buf.String()
	for _, want := range []string{
		"<title>Travel Reimbursement</title>",
		TesseractURL,
		`src="/static/app.js?v=abc"`,
		`id="claim-form"`,
		`id="receipt-files"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q", want)
		}
	}
}

func TestClaimPageEscapesValues(t *testing.T) {
	var buf bytes.Buffer
	page := Page{Title: "<Claims>", CompanyName: `Acme & "Sons"`}
	if err := ClaimPage(page).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	body := buf.String()
	if strings.Contains(body, "<Claims>") {
		t.Fatalf("title was not escaped")
	}
	if !strings.Contains(body, "&lt;Claims&gt;") || !strings.Contains(body, "Acme &amp; &#34;Sons&#34;") {
		t.Fatalf("escaped values missing from page: %s", body)
	}
}
