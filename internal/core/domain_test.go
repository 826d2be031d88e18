package core

import (
	"errors"
	"testing"
)

func TestValidateMonth(t *testing.T) {
	tests := []struct {
		name    string
		month   string
		wantErr bool
	}{
		{"empty means no filter", "", false},
		{"valid", "2026-01", false},
		{"missing zero padding", "2026-1", true},
		{"full date", "2026-01-03", true},
		{"garbage", "january", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMonth(tt.month)
			if tt.wantErr && !errors.Is(err, ErrInvalidMonth) {
				t.Errorf("ValidateMonth(%q) = %v, want ErrInvalidMonth", tt.month, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateMonth(%q) = %v, want nil", tt.month, err)
			}
		})
	}
}

func TestInferType(t *testing.T) {
	tests := []struct {
		cents int64
		want  TransactionType
	}{
		{100, TypeIncome},
		{-100, TypeExpense},
		{0, TypeNeutral},
	}

	for _, tt := range tests {
		if got := InferType(tt.cents); got != tt.want {
			t.Errorf("InferType(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestTransactionMonth(t *testing.T) {
	txn := Transaction{TxnDate: "2026-01-15"}
	if got := txn.Month(); got != "2026-01" {
		t.Errorf("Month() = %q, want %q", got, "2026-01")
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{TxnDate: "2026-01-15", Merchant: "Shop", AmountCents: -100}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	noMerchant := Transaction{TxnDate: "2026-01-15", Merchant: "  "}
	if err := noMerchant.Validate(); !errors.Is(err, ErrEmptyMerchant) {
		t.Errorf("Validate() = %v, want ErrEmptyMerchant", err)
	}
}
