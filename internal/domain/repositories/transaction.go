package repositories

import "context"

// TxFn is a function that runs within a transaction scope.
type TxFn func(ctx context.Context) error

// TransactionManager executes a unit of work such that every store write
// made through the scoped context commits together or not at all. Scopes
// do not nest: a TxFn that calls ExecTx again simply keeps running in the
// outer transaction.
type TransactionManager interface {
	// ExecTx executes fn within a transaction. The transaction commits
	// when fn returns nil and rolls back when it returns an error.
	ExecTx(ctx context.Context, fn TxFn) error
}
