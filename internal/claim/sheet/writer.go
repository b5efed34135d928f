package sheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/louisbranch/reimburse/internal/claim"
)

const declaration = "I hereby declare that the expenses mentioned above are incurred for official purpose only, " +
	"and all information given above are true & correct to the best of my knowledge."

var notes = []string{
	`Note 1- In case of hotel & travel arrangement made by company, amount is to be mentioned as "NIL"`,
	"Note 2- Please use one claim form for one round Trip.",
}

var employeeLabels = []string{
	"Name of Employee/Traveller",
	"Employee Code",
	"Designation",
	"Department & Budget Code",
	"Period of Claim",
	"Purpose of Travel",
}

type styles struct {
	companyName, companyAddress, companyCIN int
	title, sectionTitle                     int
	label, header, item                     int
	totalLabel, totalAmount                 int
	grandLabel, grandAmount                 int
	bold, wrap, signature, note             int
}

// writer lays out cells top to bottom. The first failure is kept in err and
// later calls become no-ops.
type writer struct {
	file   *excelize.File
	styles styles
	row    int
	err    error
}

func newWriter(file *excelize.File) (*writer, error) {
	if err := file.SetSheetName(file.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	w := &writer{file: file}
	if err := w.setup(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *writer) setup() error {
	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := w.file.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}

	size, orientation := paperA4, "portrait"
	fitWidth, fitHeight := 1, 0
	if err := w.file.SetPageLayout(SheetName, &excelize.PageLayoutOptions{
		Size:        &size,
		Orientation: &orientation,
		FitToWidth:  &fitWidth,
		FitToHeight: &fitHeight,
	}); err != nil {
		return fmt.Errorf("page layout: %w", err)
	}
	fitToPage := true
	if err := w.file.SetSheetProps(SheetName, &excelize.SheetPropsOptions{FitToPage: &fitToPage}); err != nil {
		return fmt.Errorf("sheet props: %w", err)
	}

	thin := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	centered := &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	fill := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
	}

	definitions := []struct {
		target *int
		style  *excelize.Style
	}{
		{&w.styles.companyName, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}, Alignment: centered}},
		{&w.styles.companyAddress, &excelize.Style{Font: &excelize.Font{Size: 10}, Alignment: centered}},
		{&w.styles.companyCIN, &excelize.Style{Font: &excelize.Font{Size: 9}, Alignment: centered}},
		{&w.styles.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}, Alignment: centered, Fill: fill(greyFill)}},
		{&w.styles.sectionTitle, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}, Alignment: &excelize.Alignment{Horizontal: "center"}, Fill: fill(greyFill)}},
		{&w.styles.label, &excelize.Style{Font: &excelize.Font{Bold: true}, Fill: fill(labelFill)}},
		{&w.styles.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Fill:      fill(labelFill),
			Border:    thin,
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		}},
		{&w.styles.item, &excelize.Style{Border: thin, Alignment: centered}},
		{&w.styles.totalLabel, &excelize.Style{Font: &excelize.Font{Bold: true}, Alignment: &excelize.Alignment{Horizontal: "right"}}},
		{&w.styles.totalAmount, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{&w.styles.grandLabel, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}, Alignment: &excelize.Alignment{Horizontal: "right"}, Fill: fill(grandTotalFill)}},
		{&w.styles.grandAmount, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}, Fill: fill(grandTotalFill)}},
		{&w.styles.bold, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{&w.styles.wrap, &excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "center"}}},
		{&w.styles.signature, &excelize.Style{Font: &excelize.Font{Bold: true}, Border: []excelize.Border{{Type: "top", Color: "000000", Style: 1}}}},
		{&w.styles.note, &excelize.Style{Font: &excelize.Font{Size: 9, Italic: true}}},
	}
	for _, def := range definitions {
		id, err := w.file.NewStyle(def.style)
		if err != nil {
			return fmt.Errorf("new style: %w", err)
		}
		*def.target = id
	}
	return nil
}

func (w *writer) layout(c claim.Claim, company Company) {
	totals := c.Totals()

	w.row = 1
	w.banner(company.Name, w.styles.companyName)
	w.banner(company.Address, w.styles.companyAddress)
	w.banner(fmt.Sprintf("(CIN NO -%s)", company.CIN), w.styles.companyCIN)
	w.row++
	w.banner("TRAVEL REIMBURSEMENT CLAIM FORM", w.styles.title)
	w.row++

	values := []string{
		c.EmployeeName, c.EmployeeCode, c.Designation,
		c.Department, c.PeriodOfClaim, c.PurposeOfTravel,
	}
	for i, label := range employeeLabels {
		w.merge("A", "C", label, w.styles.label)
		w.merge("D", "I", values[i], 0)
		w.row++
	}
	w.row++

	for _, s := range sections(c, totals) {
		w.table(s)
		w.row++
	}

	w.merge("A", "H", "Grand Total", w.styles.grandLabel)
	w.set("I", claim.FormatRupees(totals.Grand), w.styles.grandAmount)
	w.row += 2

	w.merge("A", "I", "AMOUNT IN WORDS: "+c.Words(), w.styles.bold)
	w.row += 2

	w.merge("A", "I", "DECLARATION:", w.styles.bold)
	w.row++
	w.mergeRange(cell("A", w.row), cell("I", w.row+1), declaration, w.styles.wrap)
	w.row += 3

	w.merge("A", "B", "Date of Submission:", 0)
	w.row += 2

	w.merge("A", "B", "HOD Sign", w.styles.signature)
	w.merge("D", "F", "Name of HOD & Designation", w.styles.signature)
	w.set("H", "HR/Admin Signature", w.styles.signature)
	w.set("I", "Employee Signature", w.styles.signature)
	w.row += 2

	for _, note := range notes {
		w.merge("A", "I", note, w.styles.note)
		w.row++
	}
}

// table writes a section title, its header, one bordered row per item and
// the section total. The total amount sits under the last column.
func (w *writer) table(s section) {
	w.merge("A", "I", s.title, w.styles.sectionTitle)
	w.row++

	for _, col := range s.columns {
		w.merge(col.from, col.to, col.header, 0)
	}
	w.style("A", "I", w.styles.header)
	w.row++

	for _, values := range s.rows {
		for i, col := range s.columns {
			w.merge(col.from, col.to, values[i], 0)
		}
		w.style("A", "I", w.styles.item)
		w.row++
	}

	last := s.columns[len(s.columns)-1]
	labelEnd, err := previousColumn(last.from)
	if err != nil {
		w.fail(err)
		return
	}
	w.merge("A", labelEnd, "Total", w.styles.totalLabel)
	w.merge(last.from, last.to, claim.FormatRupees(s.total), w.styles.totalAmount)
	w.row++
}

func (w *writer) banner(value string, style int) {
	w.merge("A", "I", value, style)
	w.row++
}

// merge writes value into from..to on the current row, merging when the span
// covers more than one column.
func (w *writer) merge(from, to string, value any, style int) {
	w.mergeRange(cell(from, w.row), cell(to, w.row), value, style)
}

func (w *writer) mergeRange(topLeft, bottomRight string, value any, style int) {
	if w.err != nil {
		return
	}
	if topLeft != bottomRight {
		w.fail(w.file.MergeCell(SheetName, topLeft, bottomRight))
	}
	if w.err == nil {
		w.fail(w.file.SetCellValue(SheetName, topLeft, value))
	}
	if style != 0 && w.err == nil {
		w.fail(w.file.SetCellStyle(SheetName, topLeft, bottomRight, style))
	}
}

func (w *writer) set(col string, value any, style int) {
	w.merge(col, col, value, style)
}

func (w *writer) style(from, to string, style int) {
	if w.err != nil {
		return
	}
	w.fail(w.file.SetCellStyle(SheetName, cell(from, w.row), cell(to, w.row), style))
}

func (w *writer) fail(err error) {
	if err != nil && w.err == nil {
		w.err = err
	}
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func previousColumn(col string) (string, error) {
	n, err := excelize.ColumnNameToNumber(col)
	if err != nil {
		return "", err
	}
	return excelize.ColumnNumberToName(n - 1)
}
