package domain

// Source columns every point-of-sale export is expected to carry. Any other
// column passes through untouched.
const (
	ColSentDate = "Sent Date"
	ColItem     = "Parent Menu Selection"
	ColModifier = "Modifier"
)

// Derived columns, appended in this order.
const (
	ColItemCount      = "Item Count"
	ColItemPercentage = "Item Percentage"
	ColDayOfWeek      = "Day of Week"
	ColWeekdayName    = "Weekday Name"
	ColMonth          = "Month"
	ColMonthName      = "Month Name"
	ColHourOfDay      = "Hour of Day"
	ColCheeseCategory = "Cheese Category"
	ColBaseCost       = "Base Cost"
	ColModifierCost   = "Modifier Cost"
	ColTotalCost      = "Total Cost"
)

// SentDateLayout is the canonical form "Sent Date" is rewritten to once
// parsed.
const SentDateLayout = "2006-01-02 15:04:05"

// RequiredColumns lists the source columns the pipeline reads.
var RequiredColumns = []string{ColSentDate, ColItem, ColModifier}

// FeatureColumns lists the columns added by feature derivation.
var FeatureColumns = []string{
	ColItemCount,
	ColItemPercentage,
	ColDayOfWeek,
	ColWeekdayName,
	ColMonth,
	ColMonthName,
	ColHourOfDay,
	ColCheeseCategory,
}

// CostColumns lists the columns added by pricing.
var CostColumns = []string{ColBaseCost, ColModifierCost, ColTotalCost}

// CheeseCategory is the coarse label derived from the modifier text
type CheeseCategory string

const (
	CheeseCheddar    CheeseCategory = "Cheddar"
	CheesePepperJack CheeseCategory = "Pepper Jack"
	CheeseAlfredo    CheeseCategory = "Alfredo"
	CheeseOther      CheeseCategory = "Other"
)

// CheesePriority is the order keywords are tested in. The first keyword
// contained in the modifier wins.
var CheesePriority = []CheeseCategory{CheeseCheddar, CheesePepperJack, CheeseAlfredo}
