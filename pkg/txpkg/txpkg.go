// Package txpkg binds a single database connection to one unit of work and
// guarantees commit-or-rollback semantics over it.
package txpkg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/go-petr/money-transfer/pkg/dbpkg"
	"github.com/go-petr/money-transfer/pkg/errorspkg"
)

type ctxKey struct{}

// NewContext returns a copy of ctx carrying the given executor. Storage code
// running under an externally managed transaction (tests, mostly) can use it
// instead of Scope.Run.
func NewContext(ctx context.Context, exec dbpkg.SQLInterface) context.Context {
	return context.WithValue(ctx, ctxKey{}, exec)
}

// FromContext returns the executor bound by Scope.Run. It fails with
// errorspkg.ErrTxNotStarted when called outside any unit of work.
func FromContext(ctx context.Context) (dbpkg.SQLInterface, error) {
	exec, ok := ctx.Value(ctxKey{}).(dbpkg.SQLInterface)
	if !ok {
		return nil, errorspkg.ErrTxNotStarted
	}

	return exec, nil
}

// Scope owns the connection lifecycle of a single unit of work: it acquires
// a connection from the pool, opens a transaction on it, exposes it to all
// storage calls made by the unit of work, and commits or rolls back.
type Scope struct {
	db *sql.DB
}

// New returns a Scope drawing connections from the given pool.
func New(db *sql.DB) *Scope {
	return &Scope{db: db}
}

// Run executes work as one unit of work: every storage call made through the
// work context runs on the same connection inside a single transaction.
// A nil return from work commits; any error rolls back every write work has
// made. Accounting errors surface unchanged, anything else is reported as a
// storage failure preserving the cause. The connection is released back to
// the pool on every exit path.
//
// Units of work do not nest: calling Run with an already bound context fails
// with errorspkg.ErrTxNested.
func (s *Scope) Run(ctx context.Context, work func(ctx context.Context) error) error {
	l := zerolog.Ctx(ctx)

	if _, ok := ctx.Value(ctxKey{}).(dbpkg.SQLInterface); ok {
		return errorspkg.ErrTxNested
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.Storage(err)
	}
	defer conn.Close()

	// Repeatable read keeps overlapping read-modify-write sequences from
	// losing updates: the backing store aborts the second writer instead.
	tx, err := conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.Storage(err)
	}

	// The binding lives only in the context passed to work, so the caller's
	// context never observes the transaction once Run returns.
	if err := work(NewContext(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			l.Error().Err(rbErr).Send()
			return errorspkg.Storage(fmt.Errorf("tx err: %v, rb err: %v", err, rbErr))
		}

		if errorspkg.Accounting(err) != nil {
			return err
		}

		return errorspkg.Storage(err)
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return errorspkg.Storage(err)
	}

	return nil
}

// Runner is the interface Execute needs from a Scope.
type Runner interface {
	Run(ctx context.Context, work func(ctx context.Context) error) error
}

// Execute runs a typed unit of work under r and returns its result.
// On failure the zero value of T is returned along with the error.
func Execute[T any](ctx context.Context, r Runner, work func(ctx context.Context) (T, error)) (T, error) {
	var result T

	err := r.Run(ctx, func(ctx context.Context) error {
		var err error
		result, err = work(ctx)
		return err
	})

	if err != nil {
		var zero T
		return zero, err
	}

	return result, nil
}
