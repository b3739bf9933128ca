// Package finance holds the domain records served by the resource store,
// the remote data source contract, and the pure helpers that derive
// summaries from transactions.
package finance

import "time"

// TransactionType distinguishes income from expenses.
type TransactionType string

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

// Transaction is a single financial movement belonging to an owner.
type Transaction struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"userId"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       float64         `json:"price"`
	Type        TransactionType `json:"transactionType"`
	CreatedAt   time.Time       `json:"createdAt"`
	ReceiptURL  string          `json:"receiptUrl,omitempty"`
}

// TransactionInput is the caller-supplied part of a new transaction; id,
// owner and creation time are assigned by the remote source.
type TransactionInput struct {
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       float64         `json:"price"`
	Type        TransactionType `json:"transactionType"`
	ReceiptURL  string          `json:"receiptUrl,omitempty"`
}

// SummaryCardKind labels the three cards of the financial summary.
type SummaryCardKind string

const (
	CardIncome  SummaryCardKind = "income"
	CardExpense SummaryCardKind = "expense"
	CardBalance SummaryCardKind = "balance"
)

// SummaryCard is one entry of the current-month financial summary, with its
// value already formatted for display.
type SummaryCard struct {
	Kind  SummaryCardKind `json:"type"`
	Label string          `json:"label"`
	Value string          `json:"value"`
}

// MonthlySummary aggregates income and expenses for one calendar month.
type MonthlySummary struct {
	MonthID       string  `json:"monthId"`
	TotalIncome   float64 `json:"totalIncome"`
	TotalExpenses float64 `json:"totalExpenses"`
}

// UserProfile is the profile record of an account owner.
type UserProfile struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Balance float64 `json:"balance"`
}
