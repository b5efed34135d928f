package receipt

// Category classifies a receipt and selects the policy used to read it.
type Category string

// Built-in categories. Policy files may declare more.
const (
	CategoryGSTInvoice Category = "GST Invoice"
	CategoryHotel      Category = "Hotel"
	CategoryTaxi       Category = "Taxi"
	CategoryRestaurant Category = "Restaurant"
	CategoryGeneral    Category = "General"
)

// String returns the display name of the category.
func (c Category) String() string {
	return string(c)
}
