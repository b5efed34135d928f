package claim

import (
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/reimburse/internal/platform/errors"
	"github.com/louisbranch/reimburse/internal/receipt"
)

// Section names a claim form section a receipt can be added to.
type Section string

// Form sections.
const (
	SectionJourney    Section = "journey"
	SectionHotel      Section = "hotel"
	SectionConveyance Section = "conveyance"
	SectionDA         Section = "da"
	SectionOther      Section = "other"
)

// ParseSection maps a client section name. Blank means other expenses.
func ParseSection(value string) (Section, error) {
	switch section := Section(strings.ToLower(strings.TrimSpace(value))); section {
	case "":
		return SectionOther, nil
	case SectionJourney, SectionHotel, SectionConveyance, SectionDA, SectionOther:
		return section, nil
	default:
		return "", apperrors.WithMetadata(
			apperrors.CodeClaimInvalidSection,
			fmt.Sprintf("Unknown claim section %q", value),
			map[string]string{"section": value},
		)
	}
}

// ApplyReceipt appends a row built from an extraction result to section.
func (c *Claim) ApplyReceipt(section Section, result receipt.Result) error {
	amount := FromDecimal(result.Amount)
	switch section {
	case SectionJourney:
		c.Journeys = append(c.Journeys, Journey{DepartureFrom: result.Merchant, Amount: amount})
	case SectionHotel:
		c.Hotels = append(c.Hotels, Hotel{HotelName: result.Merchant, Amount: amount})
	case SectionConveyance:
		c.Conveyance = append(c.Conveyance, Conveyance{Date: result.Date, Mode: result.Merchant, Amount: amount})
	case SectionDA:
		c.DAClaimed = append(c.DAClaimed, DailyAllowance{Date: result.Date, CityName: result.Merchant, Amount: amount})
	case SectionOther:
		c.OtherExpenses = append(c.OtherExpenses, OtherExpense{
			Date:        result.Date,
			Particulars: fmt.Sprintf("%s - %s", result.Category, result.Merchant),
			Amount:      amount,
		})
	default:
		_, err := ParseSection(string(section))
		if err == nil {
			err = fmt.Errorf("section %q is not applicable", section)
		}
		return err
	}
	return nil
}
