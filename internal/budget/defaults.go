package budget

import "github.com/theirongolddev/cadence/internal/model"

type seedItem struct {
	name      string
	amount    float64
	category  string
	frequency model.Frequency
	typ       model.ItemType
}

var defaultBudget = []seedItem{
	{"Salary", 1000, "Wages & Salary", model.Monthly, model.Income},
	{"Bonus", 500, "Wages & Salary", model.Annually, model.Income},
	{"Rental Income", 500, "Investments", model.Annually, model.Income},
	{"Interest", 500, "Investments", model.Annually, model.Income},
	{"Dividends & Distributions", 500, "Investments", model.Quarterly, model.Income},
	{"Capital Gains", 500, "Investments", model.Annually, model.Income},

	{"Rent/Mortgage", 100, "Housing & Utilities", model.Monthly, model.Expense},
	{"Rates", 300, "Housing & Utilities", model.Quarterly, model.Expense},
	{"Water", 100, "Housing & Utilities", model.Monthly, model.Expense},
	{"Electricity & Gas", 300, "Housing & Utilities", model.Quarterly, model.Expense},
	{"Internet & Phone", 120, "Housing & Utilities", model.Monthly, model.Expense},
	{"Groceries", 50, "Food", model.Weekly, model.Expense},
	{"Takeaway", 50, "Food", model.Weekly, model.Expense},
	{"Gym Membership", 30, "Health", model.Monthly, model.Expense},
	{"Fuel", 50, "Car", model.Weekly, model.Expense},
	{"Registration", 50, "Car", model.Weekly, model.Expense},
	{"Insurance", 1200, "Car", model.Annually, model.Expense},
	{"Maintenance", 200, "Car", model.Annually, model.Expense},
	{"Streaming Services", 10, "Entertainment & Leisure", model.Monthly, model.Expense},
	{"Hobbies", 10, "Entertainment & Leisure", model.Monthly, model.Expense},
	{"Eating Out", 10, "Entertainment & Leisure", model.Monthly, model.Expense},
	{"Alcohol", 10, "Entertainment & Leisure", model.Monthly, model.Expense},

	{"Vacation Fund", 50, "Cash Savings", model.Annually, model.Savings},
	{"Retirement Fund", 200, "Superannuation", model.Monthly, model.Savings},
	{"ETF Portfolio", 200, "Investments", model.Monthly, model.Savings},
}

// DefaultItems returns the starter budget a new session is seeded with.
// newID is called once per item.
func DefaultItems(newID func() string) []model.LineItem {
	items := make([]model.LineItem, len(defaultBudget))
	for i, d := range defaultBudget {
		items[i] = model.LineItem{
			ID:        newID(),
			Name:      d.name,
			Amount:    d.amount,
			Category:  d.category,
			Frequency: d.frequency,
			Type:      d.typ,
		}
	}
	return items
}
