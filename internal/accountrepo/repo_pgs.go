// Package accountrepo manages repository layer of accounts.
package accountrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/money-transfer/internal/domain"
	"github.com/go-petr/money-transfer/pkg/errorspkg"
	"github.com/go-petr/money-transfer/pkg/txpkg"
)

// RepoPGS reads and writes account rows through whichever connection the
// transaction scope has bound to the calling context. It has no transaction
// awareness of its own: every method fails with errorspkg.ErrTxNotStarted
// outside a unit of work.
type RepoPGS struct{}

// NewRepoPGS returns account RepoPGS.
func NewRepoPGS() *RepoPGS {
	return &RepoPGS{}
}

const findAllQuery = `
SELECT 
	id, balance 
FROM account
ORDER BY id
`

// FindAll returns all accounts ordered by id ascending.
func (r *RepoPGS) FindAll(ctx context.Context) ([]domain.Account, error) {
	l := zerolog.Ctx(ctx)

	db, err := txpkg.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, findAllQuery)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, storageError(err)
	}
	defer rows.Close()

	items := []domain.Account{}

	for rows.Next() {
		var (
			a       domain.Account
			balance string
		)

		if err := rows.Scan(&a.ID, &balance); err != nil {
			l.Error().Err(err).Send()
			return nil, storageError(err)
		}

		if a.Balance, err = decimal.NewFromString(balance); err != nil {
			l.Error().Err(err).Send()
			return nil, storageError(err)
		}

		items = append(items, a)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, storageError(err)
	}

	return items, nil
}

const getQuery = `
SELECT 
	id, balance 
FROM account
WHERE id = $1
`

// Get returns the account with the given id. Absence is not an error: the
// second return value reports whether a row was found.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Account, bool, error) {
	l := zerolog.Ctx(ctx)

	var a domain.Account

	db, err := txpkg.FromContext(ctx)
	if err != nil {
		return a, false, err
	}

	var balance string

	err = db.QueryRowContext(ctx, getQuery, id).Scan(&a.ID, &balance)
	if err != nil {
		if err == sql.ErrNoRows {
			return a, false, nil
		}

		l.Error().Err(err).Send()

		return a, false, storageError(err)
	}

	if a.Balance, err = decimal.NewFromString(balance); err != nil {
		l.Error().Err(err).Send()
		return a, false, storageError(err)
	}

	return a, true, nil
}

const insertQuery = `
INSERT INTO 
    account (balance)
VALUES
    ($1)
RETURNING id
`

const updateQuery = `
UPDATE account
SET balance = $1
WHERE id = $2
`

// Save persists the account. An account with an unset id is inserted and
// returned with the identifier the store assigned. An account with a set id
// has its balance updated; updating an identifier that is not stored fails
// with errorspkg.ErrUpdateConflict rather than silently inserting.
func (r *RepoPGS) Save(ctx context.Context, account domain.Account) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	db, err := txpkg.FromContext(ctx)
	if err != nil {
		return account, err
	}

	if account.ID == 0 {
		err := db.QueryRowContext(ctx, insertQuery, account.Balance.String()).Scan(&account.ID)
		if err != nil {
			l.Error().Err(err).Send()
			return account, storageError(err)
		}

		return account, nil
	}

	res, err := db.ExecContext(ctx, updateQuery, account.Balance.String(), account.ID)
	if err != nil {
		l.Error().Err(err).Send()
		return account, storageError(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		l.Error().Err(err).Send()
		return account, storageError(err)
	}

	if affected == 0 {
		return account, errorspkg.New(errorspkg.ErrUpdateConflict,
			fmt.Sprintf("Cannot update entity with id %d", account.ID))
	}

	return account, nil
}

// storageError wraps a driver failure, surfacing Postgres serialization
// aborts (SQLSTATE 40001) as retryable. Repeatable read forces one of two
// units of work updating an overlapping row set onto this path instead of
// letting them double-spend.
func storageError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "40001" {
		return errorspkg.Wrap(errorspkg.ErrSerialization, "concurrent update conflict", err)
	}

	return errorspkg.Storage(err)
}
