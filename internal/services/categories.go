package services

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Category names used by the expense breakdown.
const (
	CategoryFood          = "Food"
	CategoryTransport     = "Transport"
	CategoryEntertainment = "Entertainment"
	CategoryBills         = "Bills"
	CategoryShopping      = "Shopping"
	CategoryOther         = "Other"
)

type categoryRule struct {
	name     string
	color    core.Color
	keywords []string
}

// categoryRules are matched in order against the lower-cased description;
// the first rule with a matching keyword wins. This is a heuristic, nothing
// else depends on it.
var categoryRules = []categoryRule{
	{CategoryFood, core.Palette[0], []string{
		"food", "grocer", "restaurant", "cafe", "coffee", "lunch", "dinner", "breakfast",
		"supermarket", "pizza", "burger", "bakery", "їжа", "продукт", "кафе", "ресторан",
	}},
	{CategoryTransport, core.Palette[1], []string{
		"transport", "taxi", "uber", "bolt", "bus", "metro", "train", "ticket", "fuel",
		"petrol", "parking", "транспорт", "таксі", "бензин",
	}},
	{CategoryEntertainment, core.Palette[4], []string{
		"entertainment", "cinema", "movie", "game", "concert", "netflix", "spotify",
		"theatre", "theater", "party", "розваг", "кіно",
	}},
	{CategoryBills, core.Palette[6], []string{
		"bill", "rent", "electric", "water", "internet", "phone", "utilit", "insurance",
		"subscription", "рахун", "оренд", "комунал",
	}},
	{CategoryShopping, core.Palette[3], []string{
		"shop", "clothes", "store", "amazon", "mall", "purchase", "shoes", "покупк", "одяг", "магазин",
	}},
}

var otherColor = core.Color{0.7, 0.7, 0.7, 1}

// Categorize maps a free-text description to a category name.
func Categorize(description string) string {
	d := strings.ToLower(description)
	for _, r := range categoryRules {
		for _, kw := range r.keywords {
			if strings.Contains(d, kw) {
				return r.name
			}
		}
	}
	return CategoryOther
}

func categoryColor(name string) core.Color {
	for _, r := range categoryRules {
		if r.name == name {
			return r.color
		}
	}
	return otherColor
}

// breakdown groups expense entries by category, largest first.
func breakdown(entries []core.LedgerEntry) []core.CategoryAmount {
	totals := map[string]decimal.Decimal{}
	total := decimal.Zero
	for _, e := range entries {
		if core.Classify(e.Kind) != core.FlowExpense {
			continue
		}
		amount := e.Amount.Abs()
		name := Categorize(e.Description)
		totals[name] = totals[name].Add(amount)
		total = total.Add(amount)
	}

	out := make([]core.CategoryAmount, 0, len(totals))
	for name, amount := range totals {
		out = append(out, core.CategoryAmount{
			Name:       name,
			Amount:     core.RoundMoney(amount),
			Percentage: core.Percent(amount, total, 1),
			Color:      categoryColor(name),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].Name < out[j].Name
	})
	return out
}
