package core

import (
	"errors"
	"regexp"
	"strings"
)

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
	TypeNeutral TransactionType = "neutral"
)

type (
	TransactionType string

	// Transaction is a normalized bank transaction row. Amounts are signed
	// integer cents: negative for expenses, positive for income.
	Transaction struct {
		RowNumber   int
		TxnDate     string // ISO date, YYYY-MM-DD
		Merchant    string
		Description string
		AmountCents int64
		Currency    string // 3-letter code, upper case
		Type        TransactionType
	}

	// Dataset describes one ingested batch of transactions.
	Dataset struct {
		ID            string
		SourceName    string
		CreatedAt     string
		RowsIngested  int
		WarningsCount int
	}
)

var (
	ErrInvalidMonth   = errors.New("month must be in YYYY-MM format")
	ErrUnknownDataset = errors.New("unknown dataset")
	ErrNoTransactions = errors.New("no transactions found for the requested dataset/month")
	ErrNoExpenses     = errors.New("no expense transactions found for the requested dataset/month")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrEmptyMerchant  = errors.New("merchant is required")
)

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// ValidateMonth checks an optional YYYY-MM month filter. An empty string
// means "no filter" and is accepted.
func ValidateMonth(month string) error {
	if month == "" {
		return nil
	}
	if !monthPattern.MatchString(month) {
		return ErrInvalidMonth
	}
	return nil
}

// Month returns the YYYY-MM prefix of the transaction date.
func (t Transaction) Month() string {
	if len(t.TxnDate) < 7 {
		return t.TxnDate
	}
	return t.TxnDate[:7]
}

// IsExpense reports whether the transaction is an outflow.
func (t Transaction) IsExpense() bool {
	return t.AmountCents < 0
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Merchant) == "" {
		return ErrEmptyMerchant
	}
	if len(t.TxnDate) != 10 {
		return errors.New("txn_date must be an ISO date")
	}
	return nil
}

// InferType derives the transaction type tag from the signed amount.
func InferType(amountCents int64) TransactionType {
	switch {
	case amountCents > 0:
		return TypeIncome
	case amountCents < 0:
		return TypeExpense
	default:
		return TypeNeutral
	}
}
