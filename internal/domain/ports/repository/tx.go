package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an infra-defined transaction handle (pgx.Tx for Postgres). NoTX
// selects the non-transactional path.
type Tx interface{}

var NoTX interface{}

// TransactionManager runs fn inside a database transaction and commits when
// fn returns nil.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
