package core

// IncomeCategory is the single category offered for income transactions.
const IncomeCategory = "Income"

// DefaultColor is used for category names missing from the catalog.
const DefaultColor = "#6b7280"

// Category is a named classification with a display color and an optional
// monthly budget ceiling. A zero Budget means the category is not tracked.
type Category struct {
	ID     string
	Name   string
	Color  string
	Budget Money
}

// HasBudget reports whether the category takes part in budget tracking.
func (c Category) HasBudget() bool {
	return c.Budget.Cents > 0 && c.Name != IncomeCategory
}

// Catalog is an ordered, read-only list of categories. Transactions refer to
// categories by name; lookups never fail hard.
type Catalog []Category

// DefaultCatalog returns the fixed reference list of categories.
func DefaultCatalog() Catalog {
	return Catalog{
		{ID: "1", Name: "Food & Dining", Color: "#ef4444", Budget: Money{Cents: 50000}},
		{ID: "2", Name: "Transportation", Color: "#f97316", Budget: Money{Cents: 30000}},
		{ID: "3", Name: "Shopping", Color: "#eab308", Budget: Money{Cents: 20000}},
		{ID: "4", Name: "Entertainment", Color: "#22c55e", Budget: Money{Cents: 15000}},
		{ID: "5", Name: "Bills & Utilities", Color: "#3b82f6", Budget: Money{Cents: 40000}},
		{ID: "6", Name: "Healthcare", Color: "#8b5cf6", Budget: Money{Cents: 20000}},
		{ID: "7", Name: "Education", Color: "#ec4899", Budget: Money{Cents: 10000}},
		{ID: "8", Name: "Travel", Color: "#06b6d4", Budget: Money{Cents: 30000}},
		{ID: "9", Name: IncomeCategory, Color: "#10b981"},
		{ID: "10", Name: "Other", Color: DefaultColor, Budget: Money{Cents: 10000}},
	}
}

// Lookup resolves a category by exact name.
func (c Catalog) Lookup(name string) (Category, bool) {
	for _, cat := range c {
		if cat.Name == name {
			return cat, true
		}
	}
	return Category{}, false
}

// ColorFor returns the display color of the named category, or DefaultColor
// when the name is not in the catalog.
func (c Catalog) ColorFor(name string) string {
	if cat, ok := c.Lookup(name); ok && cat.Color != "" {
		return cat.Color
	}
	return DefaultColor
}

// ForType returns the categories offered when entering a transaction of the
// given type: only Income for income, everything else for expenses.
func (c Catalog) ForType(t TransactionType) Catalog {
	out := make(Catalog, 0, len(c))
	for _, cat := range c {
		isIncome := cat.Name == IncomeCategory
		if (t == Income) == isIncome {
			out = append(out, cat)
		}
	}
	return out
}

// Names lists category names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, len(c))
	for i, cat := range c {
		names[i] = cat.Name
	}
	return names
}
