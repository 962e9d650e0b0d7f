package orphan

import "fmt"

// Summary holds the counters reported after a classification run.
type Summary struct {
	Total          int    `json:"total_images"`
	Kept           int    `json:"kept_images"`
	Purgeable      int    `json:"purgeable_images"`
	KeptPercentage string `json:"kept_percentage"`
}

// NewSummary derives kept counts and the kept percentage from the totals.
// A zero total yields the "0.00" sentinel without dividing.
func NewSummary(total, purgeable int) Summary {
	kept := total - purgeable
	return Summary{
		Total:          total,
		Kept:           kept,
		Purgeable:      purgeable,
		KeptPercentage: Percent(kept, total),
	}
}

// Percent formats part/whole*100 with two decimals, or "0.00" when
// whole is zero.
func Percent(part, whole int) string {
	if whole == 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", float64(part)/float64(whole)*100)
}
