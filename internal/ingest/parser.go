// Package ingest parses raw bank CSV exports into normalized
// transactions. Column names are resolved through alias lists so exports
// from different banks map onto the same schema.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"finsight/internal/core"
)

// ErrInvalidCSV marks validation failures that reject the whole upload.
var ErrInvalidCSV = errors.New("invalid csv")

var (
	dateAliases        = []string{"date", "transaction_date", "posted_at", "posted_date"}
	merchantAliases    = []string{"merchant", "payee", "vendor", "name"}
	descriptionAliases = []string{"description", "memo", "note", "details"}
	amountAliases      = []string{"amount", "transaction_amount", "value"}
	debitAliases       = []string{"debit", "withdrawal", "outflow"}
	creditAliases      = []string{"credit", "deposit", "inflow"}
	typeAliases        = []string{"type", "transaction_type", "direction"}
	currencyAliases    = []string{"currency", "ccy"}
)

var (
	expenseTypes = map[string]bool{"expense": true, "debit": true, "outflow": true, "purchase": true}
	incomeTypes  = map[string]bool{"income": true, "credit": true, "inflow": true, "deposit": true}
)

var supportedDateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"2/1/2006",
	"2006/1/2",
}

// Result carries the parsed rows, their raw source JSON (kept for
// storage diagnostics), and per-row warnings for rows that were dropped.
type Result struct {
	Transactions []core.Transaction
	RawJSON      []string
	Warnings     []string
}

// ParseCSV parses CSV text with a header row. Rows that fail validation
// are collected as warnings; the parse only fails outright when the
// header is unusable or no row survives.
func ParseCSV(csvText string) (*Result, error) {
	if strings.TrimSpace(csvText) == "" {
		return nil, fmt.Errorf("%w: CSV payload is empty", ErrInvalidCSV)
	}

	reader := csv.NewReader(strings.NewReader(csvText))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: CSV is missing header row", ErrInvalidCSV)
	}

	headerMap := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			headerMap[name] = i
		}
	}

	dateCol := resolveColumn(headerMap, dateAliases)
	merchantCol := resolveColumn(headerMap, merchantAliases)
	descCol := resolveColumn(headerMap, descriptionAliases)
	amountCol := resolveColumn(headerMap, amountAliases)
	debitCol := resolveColumn(headerMap, debitAliases)
	creditCol := resolveColumn(headerMap, creditAliases)
	typeCol := resolveColumn(headerMap, typeAliases)
	currencyCol := resolveColumn(headerMap, currencyAliases)

	if dateCol < 0 {
		return nil, fmt.Errorf("%w: missing required date column", ErrInvalidCSV)
	}
	if merchantCol < 0 && descCol < 0 {
		return nil, fmt.Errorf("%w: missing required merchant column (or description alias)", ErrInvalidCSV)
	}
	if amountCol < 0 && (debitCol < 0 || creditCol < 0) {
		return nil, fmt.Errorf("%w: missing amount column (or debit+credit columns)", ErrInvalidCSV)
	}

	result := &Result{}
	for rowNumber := 2; ; rowNumber++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: %v", rowNumber, err))
			continue
		}

		txn, err := parseRow(record, rowNumber, rowColumns{
			date: dateCol, merchant: merchantCol, description: descCol,
			amount: amountCol, debit: debitCol, credit: creditCol,
			typ: typeCol, currency: currencyCol,
		})
		if err != nil {
			result.Warnings = append(result.Warnings, err.Error())
			continue
		}

		result.Transactions = append(result.Transactions, txn)
		result.RawJSON = append(result.RawJSON, rawRowJSON(header, record))
	}

	if len(result.Transactions) == 0 {
		preview := result.Warnings
		if len(preview) > 5 {
			preview = preview[:5]
		}
		return nil, fmt.Errorf("%w: no valid rows found. %s", ErrInvalidCSV, strings.Join(preview, "; "))
	}

	return result, nil
}

type rowColumns struct {
	date, merchant, description, amount, debit, credit, typ, currency int
}

func parseRow(record []string, rowNumber int, cols rowColumns) (core.Transaction, error) {
	txnDate, err := parseDate(cell(record, cols.date), rowNumber)
	if err != nil {
		return core.Transaction{}, err
	}

	merchant := strings.TrimSpace(cell(record, cols.merchant))
	description := strings.TrimSpace(cell(record, cols.description))
	if merchant == "" {
		merchant = description
	}
	if merchant == "" {
		return core.Transaction{}, fmt.Errorf("row %d: merchant/description is required", rowNumber)
	}

	amountCents, err := parseRowAmount(record, rowNumber, cols)
	if err != nil {
		return core.Transaction{}, err
	}

	currency := strings.TrimSpace(cell(record, cols.currency))
	if currency == "" {
		currency = "USD"
	}

	return core.Transaction{
		RowNumber:   rowNumber,
		TxnDate:     txnDate,
		Merchant:    merchant,
		Description: description,
		AmountCents: amountCents,
		Currency:    strings.ToUpper(currency),
		Type:        core.InferType(amountCents),
	}, nil
}

func parseRowAmount(record []string, rowNumber int, cols rowColumns) (int64, error) {
	var amountCents int64
	if cols.amount >= 0 {
		cents, err := parseAmount(cell(record, cols.amount), rowNumber, false)
		if err != nil {
			return 0, err
		}
		amountCents = cents
	} else {
		debitCents, err := parseAmount(cell(record, cols.debit), rowNumber, true)
		if err != nil {
			return 0, err
		}
		creditCents, err := parseAmount(cell(record, cols.credit), rowNumber, true)
		if err != nil {
			return 0, err
		}
		amountCents = creditCents - debitCents
	}

	// A type column overrides the sign when it contradicts the amount.
	typeHint := strings.ToLower(strings.TrimSpace(cell(record, cols.typ)))
	if expenseTypes[typeHint] && amountCents > 0 {
		amountCents = -amountCents
	} else if incomeTypes[typeHint] && amountCents < 0 {
		amountCents = -amountCents
	}

	return amountCents, nil
}

// parseAmount converts one cell to signed cents. Accepts currency
// symbols, thousands separators, parentheses negatives, and a leading
// minus.
func parseAmount(value string, rowNumber int, allowEmpty bool) (int64, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		if allowEmpty {
			return 0, nil
		}
		return 0, fmt.Errorf("row %d: amount is required", rowNumber)
	}

	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	cents, err := core.ParseAmountToCents(cleaned)
	if err != nil {
		return 0, fmt.Errorf("row %d: invalid amount '%s'", rowNumber, value)
	}
	if negative && cents > 0 {
		cents = -cents
	}
	return cents, nil
}

func parseDate(value string, rowNumber int) (string, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return "", fmt.Errorf("row %d: date is required", rowNumber)
	}
	for _, layout := range supportedDateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("row %d: unsupported date format '%s'", rowNumber, cleaned)
}

func resolveColumn(headerMap map[string]int, aliases []string) int {
	for _, alias := range aliases {
		if i, ok := headerMap[alias]; ok {
			return i
		}
	}
	return -1
}

func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

func rawRowJSON(header, record []string) string {
	raw := make(map[string]string, len(header))
	for i, name := range header {
		raw[name] = strings.TrimSpace(cell(record, i))
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return "{}"
	}
	return string(data)
}
