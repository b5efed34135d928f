// Package claim models a travel reimbursement claim form and computes its
// totals.
package claim

import (
	"strings"

	apperrors "github.com/louisbranch/reimburse/internal/platform/errors"
)

// Claim is the full reimbursement form as the browser submits it.
type Claim struct {
	EmployeeName    string `json:"employeeName"`
	EmployeeCode    string `json:"employeeCode"`
	Designation     string `json:"designation"`
	Department      string `json:"department"`
	PeriodOfClaim   string `json:"periodOfClaim"`
	PurposeOfTravel string `json:"purposeOfTravel"`
	AmountInWords   string `json:"amountInWords,omitempty"`

	Journeys      []Journey        `json:"journeys"`
	Hotels        []Hotel          `json:"hotels"`
	Conveyance    []Conveyance     `json:"conveyance"`
	DAClaimed     []DailyAllowance `json:"daClaimed"`
	OtherExpenses []OtherExpense   `json:"otherExpenses"`
}

// Journey is one leg of travel.
type Journey struct {
	DepartureFrom     string `json:"departureFrom"`
	DepartureDate     string `json:"departureDate"`
	DepartureTime     string `json:"departureTime"`
	ArrivedAt         string `json:"arrivedAt"`
	ArrivalDate       string `json:"arrivalDate"`
	ArrivalTime       string `json:"arrivalTime"`
	ArrangedByCompany string `json:"arrangedByCompany"`
	Amount            Amount `json:"amount"`
}

// Hotel is one hotel stay.
type Hotel struct {
	HotelName         string `json:"hotelName"`
	Place             string `json:"place"`
	ArrangedByCompany string `json:"arrangedByCompany"`
	PeriodOfStay      string `json:"periodOfStay"`
	Amount            Amount `json:"amount"`
}

// Conveyance is one local trip.
type Conveyance struct {
	Date   string `json:"date"`
	From   string `json:"from"`
	To     string `json:"to"`
	Mode   string `json:"mode"`
	Amount Amount `json:"amount"`
}

// DailyAllowance is one day of dearness allowance.
type DailyAllowance struct {
	Date     string `json:"date"`
	CityName string `json:"cityName"`
	Amount   Amount `json:"amount"`
}

// OtherExpense is an incidental expense.
type OtherExpense struct {
	Date        string `json:"date"`
	Particulars string `json:"particulars"`
	Amount      Amount `json:"amount"`
}

// Validate checks the employee fields a spreadsheet cannot be filed without.
func (c Claim) Validate() error {
	var missing []string
	if strings.TrimSpace(c.EmployeeName) == "" {
		missing = append(missing, "employeeName")
	}
	if strings.TrimSpace(c.EmployeeCode) == "" {
		missing = append(missing, "employeeCode")
	}
	if strings.TrimSpace(c.PeriodOfClaim) == "" {
		missing = append(missing, "periodOfClaim")
	}
	if len(missing) == 0 {
		return nil
	}
	return apperrors.WithMetadata(
		apperrors.CodeClaimEmployeeMissing,
		"Employee name, code and period of claim are required",
		map[string]string{"missing": strings.Join(missing, ",")},
	)
}

// Words returns the amount in words typed on the form, or the grand total
// spelled out when it was left blank.
func (c Claim) Words() string {
	if words := strings.TrimSpace(c.AmountInWords); words != "" {
		return words
	}
	return AmountInWords(c.Totals().Grand)
}
