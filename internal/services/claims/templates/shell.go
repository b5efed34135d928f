// Package templates renders the HTML shell of the claims web client.
package templates

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// TesseractURL is the browser OCR bundle loaded by the shell page.
const TesseractURL = "https://cdn.jsdelivr.net/npm/tesseract.js@5/dist/tesseract.min.js"

// Page carries the values rendered into the shell.
type Page struct {
	Title       string
	CompanyName string
	// AssetVersion busts cached client assets after a deploy.
	AssetVersion string
}

// ClaimPage renders the single page the browser client mounts into.
func ClaimPage(page Page) templ.Component {
	title := strings.TrimSpace(page.Title)
	if title == "" {
		title = "Travel Reimbursement"
	}
	script := "/static/app.js"
	if version := strings.TrimSpace(page.AssetVersion); version != "" {
		script += "?v=" + version
	}
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>`+templ.EscapeString(title)+`</title>
<link rel="stylesheet" href="/static/app.css">
<script src="`+templ.EscapeString(TesseractURL)+`" defer></script>
<script src="`+templ.EscapeString(script)+`" defer></script>
</head>
<body>
<header class="masthead">
<h1>`+templ.EscapeString(title)+`</h1>
<p class="company">`+templ.EscapeString(page.CompanyName)+`</p>
<nav id="session-nav" hidden>
<span id="session-user"></span>
<button type="button" id="logout">Log out</button>
</nav>
</header>
<main>
<section id="auth" class="panel">
<form id="login-form">
<h2>Sign in</h2>
<label>Employee code <input name="employee_code" required autocomplete="username"></label>
<label>Password <input name="password" type="password" required autocomplete="current-password"></label>
<button type="submit">Sign in</button>
</form>
<form id="register-form">
<h2>Register</h2>
<label>Employee code <input name="employee_code" required></label>
<label>Employee name <input name="employee_name" required></label>
<label>Designation <input name="designation"></label>
<label>Department <input name="department"></label>
<label>Password <input name="password" type="password" minlength="6" required autocomplete="new-password"></label>
<button type="submit">Register</button>
</form>
<p id="auth-error" class="error" role="alert"></p>
</section>
<section id="claim" class="panel" hidden>
<div id="toolbar">
<select id="draft-list" aria-label="Drafts"></select>
<button type="button" id="load-draft">Load draft</button>
<button type="button" id="save-draft">Save draft</button>
<select id="template-list" aria-label="Templates"></select>
<button type="button" id="apply-template">Apply template</button>
<button type="button" id="save-template">Save as template</button>
</div>
<form id="claim-form"></form>
<section id="receipts">
<h2>Receipts</h2>
<input type="file" id="receipt-files" accept="image/*" multiple>
<select id="receipt-section" aria-label="Add receipts to">
<option value="">Auto</option>
<option value="journey">Journey</option>
<option value="hotel">Hotel</option>
<option value="conveyance">Local conveyance</option>
<option value="da">DA claimed</option>
<option value="other">Other expenses</option>
</select>
<ul id="receipt-list"></ul>
</section>
<footer id="totals"></footer>
<button type="button" id="generate">Generate spreadsheet</button>
<p id="claim-status" role="status"></p>
</section>
</main>
</body>
</html>
`)
		return err
	})
}
