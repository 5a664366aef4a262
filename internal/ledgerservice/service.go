// Package ledgerservice manages business logic layer of the ledger.
package ledgerservice

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/money-transfer/internal/domain"
	"github.com/go-petr/money-transfer/pkg/txpkg"
)

// Store provides data access layer interface needed by ledger service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package ledgerservice
type Store interface {
	FindAll(ctx context.Context) ([]domain.Account, error)
	Get(ctx context.Context, id int64) (domain.Account, bool, error)
	Save(ctx context.Context, account domain.Account) (domain.Account, error)
}

// TxScope executes a unit of work under a single commit/rollback boundary.
type TxScope interface {
	Run(ctx context.Context, work func(ctx context.Context) error) error
}

// Service enforces the accounting invariants and orchestrates store calls
// inside a transaction scope. Every public method runs as exactly one unit
// of work.
type Service struct {
	store Store
	scope TxScope
}

// New returns ledger service struct to manage the accounts bussines logic.
func New(store Store, scope TxScope) *Service {
	return &Service{store: store, scope: scope}
}

// List returns all accounts ordered by id.
func (s *Service) List(ctx context.Context) ([]domain.Account, error) {
	return txpkg.Execute(ctx, s.scope, func(ctx context.Context) ([]domain.Account, error) {
		return s.store.FindAll(ctx)
	})
}

// Get returns the account with the given id.
func (s *Service) Get(ctx context.Context, id int64) (domain.Account, error) {
	return txpkg.Execute(ctx, s.scope, func(ctx context.Context) (domain.Account, error) {
		return s.getExisting(ctx, id)
	})
}

// CreateNew persists and returns a new account with zero balance. Identity
// is assigned by the store.
func (s *Service) CreateNew(ctx context.Context) (domain.Account, error) {
	return txpkg.Execute(ctx, s.scope, func(ctx context.Context) (domain.Account, error) {
		return s.store.Save(ctx, domain.Account{Balance: decimal.Zero})
	})
}

// TopUp adds amount to the account's balance and returns the updated account.
func (s *Service) TopUp(ctx context.Context, id int64, amount decimal.Decimal) (domain.Account, error) {
	if err := validAmount(ctx, amount); err != nil {
		return domain.Account{}, err
	}

	return txpkg.Execute(ctx, s.scope, func(ctx context.Context) (domain.Account, error) {
		account, err := s.getExisting(ctx, id)
		if err != nil {
			return domain.Account{}, err
		}

		account.Balance = account.Balance.Add(amount)

		return s.store.Save(ctx, account)
	})
}

// Withdraw subtracts amount from the account's balance and returns the
// updated account. The balance never goes negative: a withdrawal it cannot
// cover is rejected and nothing is persisted.
func (s *Service) Withdraw(ctx context.Context, id int64, amount decimal.Decimal) (domain.Account, error) {
	if err := validAmount(ctx, amount); err != nil {
		return domain.Account{}, err
	}

	return txpkg.Execute(ctx, s.scope, func(ctx context.Context) (domain.Account, error) {
		account, err := s.getExisting(ctx, id)
		if err != nil {
			return domain.Account{}, err
		}

		newBalance := account.Balance.Sub(amount)
		if newBalance.IsNegative() {
			return domain.Account{}, domain.CannotWithdrawError(amount)
		}

		account.Balance = newBalance

		return s.store.Save(ctx, account)
	})
}

// Transfer debits the source account and credits the target account within
// the same unit of work, conserving the transferred amount. Validation short
// circuits in a fixed order: amount positivity, distinct accounts, source
// lookup, target lookup, sufficient funds.
func (s *Service) Transfer(ctx context.Context, from, to int64, amount decimal.Decimal) (domain.TransferResult, error) {
	if err := validAmount(ctx, amount); err != nil {
		return domain.TransferResult{}, err
	}

	if from == to {
		zerolog.Ctx(ctx).Info().Int64("account_id", from).Msg("rejected same account transfer")
		return domain.TransferResult{}, domain.ErrSameAccountTransfer
	}

	return txpkg.Execute(ctx, s.scope, func(ctx context.Context) (domain.TransferResult, error) {
		var result domain.TransferResult

		source, err := s.getExisting(ctx, from)
		if err != nil {
			return result, err
		}

		target, err := s.getExisting(ctx, to)
		if err != nil {
			return result, err
		}

		newSourceBalance := source.Balance.Sub(amount)
		if newSourceBalance.IsNegative() {
			return result, domain.CannotTransferError(amount)
		}

		source.Balance = newSourceBalance
		target.Balance = target.Balance.Add(amount)

		if result.Source, err = s.store.Save(ctx, source); err != nil {
			return domain.TransferResult{}, err
		}

		if result.Target, err = s.store.Save(ctx, target); err != nil {
			return domain.TransferResult{}, err
		}

		return result, nil
	})
}

// getExisting translates the store's found/absent result into the business
// not-found rejection, in one place for all operations.
func (s *Service) getExisting(ctx context.Context, id int64) (domain.Account, error) {
	account, found, err := s.store.Get(ctx, id)
	if err != nil {
		return account, err
	}

	if !found {
		return account, domain.AccountNotFoundError(id)
	}

	return account, nil
}

func validAmount(ctx context.Context, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		zerolog.Ctx(ctx).Info().Str("amount", amount.String()).Msg("rejected non-positive amount")
		return domain.InvalidAmountError(amount)
	}

	return nil
}
