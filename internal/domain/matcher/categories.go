package matcher

import (
	"strings"

	"github.com/eshaffer321/bill-linker/internal/domain/billing"
)

// UncategorizedID is the category id banks use for operations that were
// never categorized. An empty id is treated the same way.
const UncategorizedID = "0"

// Health expense and health reimbursement categories share this prefix.
const healthCategoryPrefix = "4006"

// IsHealthCategory reports whether categoryID is a health category.
func IsHealthCategory(categoryID string) bool {
	return strings.HasPrefix(categoryID, healthCategoryPrefix)
}

// IsUncategorized reports whether categoryID means "no category".
func IsUncategorized(categoryID string) bool {
	return categoryID == "" || categoryID == UncategorizedID
}

// categoryAllowed keeps health bills on health operations and every other
// bill off them.
func categoryAllowed(bill *billing.Bill, op *billing.Operation, opts Options) bool {
	if bill.IsHealthCosts() {
		if IsHealthCategory(op.CategoryID) {
			return true
		}
		return opts.AllowUncategorized && IsUncategorized(op.CategoryID)
	}
	return !IsHealthCategory(op.CategoryID)
}
