// Package sheet renders a claim as the printable reimbursement workbook.
package sheet

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/louisbranch/reimburse/internal/claim"
)

// SheetName is the only worksheet in a rendered workbook.
const SheetName = "Travel Reimbursement"

// ContentType is the MIME type of a rendered workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	paperA4        = 9
	greyFill       = "D9D9D9"
	labelFill      = "E7E6E6"
	grandTotalFill = "FFEB9C"
)

var columnWidths = []float64{5, 15, 12, 12, 15, 12, 12, 15, 12}

// Company is printed above the form title.
type Company struct {
	Name    string `env:"REIMBURSE_COMPANY_NAME" envDefault:"HINDUSTAN POWER EXCHANGE LIMITED"`
	Address string `env:"REIMBURSE_COMPANY_ADDRESS" envDefault:"Unit No 810-816, 8th Floor, World Trade Tower Sector 16 Noida"`
	CIN     string `env:"REIMBURSE_COMPANY_CIN" envDefault:"U74999MH2018PLC308448"`
}

// DefaultCompany returns the header used when nothing is configured.
func DefaultCompany() Company {
	return Company{
		Name:    "HINDUSTAN POWER EXCHANGE LIMITED",
		Address: "Unit No 810-816, 8th Floor, World Trade Tower Sector 16 Noida",
		CIN:     "U74999MH2018PLC308448",
	}
}

// Options controls rendering.
type Options struct {
	Company Company
}

// Render builds the workbook for c and returns its bytes.
func Render(c claim.Claim, opts Options) (*bytes.Buffer, error) {
	file, err := Build(c, opts)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

// Build lays out the workbook for c. The caller owns the returned file.
func Build(c claim.Claim, opts Options) (*excelize.File, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if opts.Company == (Company{}) {
		opts.Company = DefaultCompany()
	}
	file := excelize.NewFile()
	w, err := newWriter(file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	w.layout(c, opts.Company)
	if w.err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("render claim: %w", w.err)
	}
	return file, nil
}

// Filename is the download name for c's workbook.
func Filename(c claim.Claim) string {
	return fmt.Sprintf("Travel_Reimbursement_%s_%s.xlsx", safeName(c.EmployeeName), safeName(c.PeriodOfClaim))
}

var unsafeName = strings.NewReplacer(
	"/", "_", `\`, "_", ":", "_", "*", "_", "?", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_", "\n", "_", "\r", "_", "\t", "_",
)

func safeName(value string) string {
	return unsafeName.Replace(strings.TrimSpace(value))
}

// column is a header span within a section table.
type column struct {
	from, to string
	header   string
}

// section is one titled table of the form.
type section struct {
	title   string
	columns []column
	rows    [][]any
	total   decimal.Decimal
}

func sections(c claim.Claim, totals claim.Totals) []section {
	journeys := section{
		title: "Detail of Journey",
		columns: []column{
			{"A", "A", "S.No."},
			{"B", "B", "Departure from"},
			{"C", "C", "Date"},
			{"D", "D", "Time"},
			{"E", "E", "Arrived at"},
			{"F", "F", "Date"},
			{"G", "G", "Time"},
			{"H", "H", "Arranged By Company (Yes/No)"},
			{"I", "I", "Amount *"},
		},
		total: totals.Journeys,
	}
	for i, j := range c.Journeys {
		journeys.rows = append(journeys.rows, []any{
			i + 1, j.DepartureFrom, j.DepartureDate, j.DepartureTime,
			j.ArrivedAt, j.ArrivalDate, j.ArrivalTime, j.ArrangedByCompany, amountCell(j.Amount),
		})
	}

	hotels := section{
		title: "Hotel Charges",
		columns: []column{
			{"A", "A", "S.No."},
			{"B", "D", "Name of Hotel"},
			{"E", "F", "Place"},
			{"G", "G", "Arranged By Company (Yes/No)"},
			{"H", "H", "Period of Stay"},
			{"I", "I", "Amount *"},
		},
		total: totals.Hotels,
	}
	for i, h := range c.Hotels {
		hotels.rows = append(hotels.rows, []any{
			i + 1, h.HotelName, h.Place, h.ArrangedByCompany, h.PeriodOfStay, amountCell(h.Amount),
		})
	}

	conveyance := section{
		title: "Detail of Local Conveyance",
		columns: []column{
			{"A", "A", "S.No."},
			{"B", "C", "Date"},
			{"D", "E", "From"},
			{"F", "G", "To"},
			{"H", "H", "Mode of Travel"},
			{"I", "I", "Amount"},
		},
		total: totals.Conveyance,
	}
	for i, row := range c.Conveyance {
		conveyance.rows = append(conveyance.rows, []any{
			i + 1, row.Date, row.From, row.To, row.Mode, amountCell(row.Amount),
		})
	}

	allowance := section{
		title: "Detail of DA Claimed",
		columns: []column{
			{"A", "A", "S.No."},
			{"B", "D", "Date"},
			{"E", "G", "City Name"},
			{"H", "I", "Dearness Allowance Claimed"},
		},
		total: totals.DailyAllowance,
	}
	for i, row := range c.DAClaimed {
		allowance.rows = append(allowance.rows, []any{i + 1, row.Date, row.CityName, amountCell(row.Amount)})
	}

	other := section{
		title: "Other Incidental Expense",
		columns: []column{
			{"A", "A", "S.No."},
			{"B", "D", "Date"},
			{"E", "H", "Particulars"},
			{"I", "I", "Amount"},
		},
		total: totals.Other,
	}
	for i, row := range c.OtherExpenses {
		other.rows = append(other.rows, []any{i + 1, row.Date, row.Particulars, amountCell(row.Amount)})
	}

	return []section{journeys, hotels, conveyance, allowance, other}
}

func amountCell(a claim.Amount) float64 {
	return a.Value().InexactFloat64()
}
