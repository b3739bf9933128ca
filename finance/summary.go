package finance

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var monthLabels = [...]string{
	"Jan", "Fev", "Mar", "Abr", "Mai", "Jun",
	"Jul", "Ago", "Set", "Out", "Nov", "Dez",
}

// MonthID returns the month bucket identifier for a point in time,
// e.g. "2026_08". Monthly summaries are keyed by this id.
func MonthID(t time.Time) string {
	return fmt.Sprintf("%04d_%02d", t.Year(), int(t.Month()))
}

// MonthLabel returns the short pt-BR month label for a month id, falling
// back to the id itself when it does not parse.
func MonthLabel(monthID string) string {
	_, raw, found := strings.Cut(monthID, "_")
	if !found {
		return monthID
	}
	month, err := strconv.Atoi(raw)
	if err != nil || month < 1 || month > 12 {
		return monthID
	}
	return monthLabels[month-1]
}

// FormatCurrency renders a value as Brazilian currency, e.g. "R$ 1.234,56".
func FormatCurrency(v float64) string {
	cents := int64(math.Round(math.Abs(v) * 100))
	whole := cents / 100
	frac := cents % 100

	digits := strconv.FormatInt(whole, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}

	sign := ""
	if v < 0 && cents != 0 {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, b.String(), frac)
}

// ComputeSummary builds the three summary cards: this month's income, this
// month's expenses, and the overall account balance.
func ComputeSummary(transactions []Transaction, balance float64, now time.Time) []SummaryCard {
	income := monthTotal(transactions, Income, now)
	expense := monthTotal(transactions, Expense, now)

	return []SummaryCard{
		{Kind: CardIncome, Label: "Receitas", Value: FormatCurrency(income)},
		{Kind: CardExpense, Label: "Despesas", Value: FormatCurrency(expense)},
		{Kind: CardBalance, Label: "Balanço", Value: FormatCurrency(balance)},
	}
}

// FilterTransactions returns the transactions matching a free-text search
// over description and category, and an exact category filter. Empty
// arguments match everything.
func FilterTransactions(transactions []Transaction, search, category string) []Transaction {
	search = strings.ToLower(search)

	var matched []Transaction
	for _, tx := range transactions {
		if category != "" && tx.Category != category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(tx.Description), search) &&
			!strings.Contains(strings.ToLower(tx.Category), search) {
			continue
		}
		matched = append(matched, tx)
	}
	return matched
}

func monthTotal(transactions []Transaction, typ TransactionType, now time.Time) float64 {
	var total float64
	for _, tx := range transactions {
		if tx.Type != typ {
			continue
		}
		if tx.CreatedAt.Year() != now.Year() || tx.CreatedAt.Month() != now.Month() {
			continue
		}
		total += tx.Price
	}
	return total
}
