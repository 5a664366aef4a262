// Package domain provides defenitions of all entities.
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/go-petr/money-transfer/pkg/errorspkg"
)

// Accounting rejection kinds. Each belongs to the errorspkg.ErrAccounting
// family; the exact user-facing messages come from the constructors below.
var (
	// ErrInvalidAmount indicates a zero or negative amount.
	ErrInvalidAmount = errorspkg.Kind(errorspkg.ErrAccounting, "invalid amount")
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = errorspkg.Kind(errorspkg.ErrAccounting, "account not found")
	// ErrInsufficientFunds indicates that the account balance does not cover the amount.
	ErrInsufficientFunds = errorspkg.Kind(errorspkg.ErrAccounting, "not enough money")
	// ErrSameAccountTransfer indicates a transfer within a single account.
	ErrSameAccountTransfer = errorspkg.Kind(errorspkg.ErrAccounting, "Source and destination accounts must be different")
)

// InvalidAmountError rejects a non-positive amount.
func InvalidAmountError(amount decimal.Decimal) error {
	return errorspkg.New(ErrInvalidAmount, fmt.Sprintf("Amount must be positive, but given %s", amount))
}

// AccountNotFoundError rejects an operation on a missing account.
func AccountNotFoundError(id int64) error {
	return errorspkg.New(ErrAccountNotFound, fmt.Sprintf("Account id \"%d\" does not exist", id))
}

// CannotWithdrawError rejects a withdrawal not covered by the balance.
func CannotWithdrawError(amount decimal.Decimal) error {
	return errorspkg.New(ErrInsufficientFunds, fmt.Sprintf("Cannot withdraw %s. Not enough money", amount))
}

// CannotTransferError rejects a transfer not covered by the source balance.
func CannotTransferError(amount decimal.Decimal) error {
	return errorspkg.New(ErrInsufficientFunds, fmt.Sprintf("Cannot transfer %s. Not enough money", amount))
}

// Account holds one ledger account. A zero ID marks an account that has not
// been persisted yet; the store assigns the identifier on first save.
type Account struct {
	ID      int64           `json:"id"`
	Balance decimal.Decimal `json:"balance"`
}

// TransferResult holds both account snapshots taken after a transfer has
// debited the source and credited the target.
type TransferResult struct {
	Source Account `json:"source"`
	Target Account `json:"target"`
}
