package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// MaxDescriptionLength bounds the free-text label of a transaction.
const MaxDescriptionLength = 200

type (
	TransactionType string

	// Transaction is one recorded money movement. Amount is always positive,
	// the direction is carried by Type.
	Transaction struct {
		ID          string
		Amount      Money
		Description string
		Date        time.Time
		Category    string // soft reference to Category.Name
		Type        TransactionType
	}

	// TransactionInput holds the user-submitted fields of a transaction.
	// The store assigns the ID.
	TransactionInput struct {
		Amount      Money
		Description string
		Date        time.Time
		Category    string
		Type        TransactionType
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrZeroDate           = errors.New("date cannot be zero")
	ErrEmptyCategory      = errors.New("empty category")
	ErrInvalidType        = errors.New("invalid transaction type")
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case Income, Expense:
		return true
	default:
		return false
	}
}

// ParseTransactionType accepts the type names case-insensitively.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidType
	}
	return t, nil
}

func (in TransactionInput) Validate() error {
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(in.Description)) == 0 {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(in.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if in.Date.IsZero() {
		return ErrZeroDate
	}
	if strings.TrimSpace(in.Category) == "" {
		return ErrEmptyCategory
	}
	if !in.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

// WithID builds the stored record for the input.
func (in TransactionInput) WithID(id string) Transaction {
	return Transaction{
		ID:          id,
		Amount:      in.Amount,
		Description: strings.TrimSpace(in.Description),
		Date:        in.Date,
		Category:    strings.TrimSpace(in.Category),
		Type:        in.Type,
	}
}

// Input returns the editable fields of t.
func (t Transaction) Input() TransactionInput {
	return TransactionInput{
		Amount:      t.Amount,
		Description: t.Description,
		Date:        t.Date,
		Category:    t.Category,
		Type:        t.Type,
	}
}

func (t Transaction) IsExpense() bool { return t.Type == Expense }

func (t Transaction) IsIncome() bool { return t.Type == Income }
