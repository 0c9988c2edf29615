package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function inside a database transaction and
// hands the transaction handle to repositories via `tx`.
//
// Use-case code stays free of storage types: repositories accept `tx Tx`,
// detect the concrete handle on the infra side (pgx.Tx for Postgres), and
// gracefully fall back to the pool when given NoTX.
//
//	tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx Tx) error {
//		t, err := payments.FindByReference(ctx, tx, ref)
//		...
//		return err
//	})
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
