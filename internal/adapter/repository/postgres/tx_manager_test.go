package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/walletledger/internal/infrastructure/postgres/generated"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	pool, err := pgxmock.NewPool()
	require.NoError(t, err, "create pgxmock pool")
	t.Cleanup(pool.Close)

	return pool
}

func assertExpectations(t *testing.T, pool pgxmock.PgxPoolIface) {
	t.Helper()
	assert.NoError(t, pool.ExpectationsWereMet())
}

// foreignTx is a transaction from some other backend.
type foreignTx struct{}

func (foreignTx) Commit(context.Context) error   { return nil }
func (foreignTx) Rollback(context.Context) error { return nil }

func TestTxManagerCommit(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectBegin()
	pool.ExpectCommit()

	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	require.NoError(t, err)
	require.NotNil(t, tx.(*Tx).PgxTx())

	require.NoError(t, tx.Commit(context.Background()))
	assertExpectations(t, pool)
}

func TestTxManagerBeginError(t *testing.T) {
	pool := newMockPool(t)
	beginErr := errors.New("too many connections")
	pool.ExpectBegin().WillReturnError(beginErr)

	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	assert.ErrorIs(t, err, beginErr)
	assert.Nil(t, tx)
}

func TestTxRollback(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectBegin()
	pool.ExpectRollback()

	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	require.NoError(t, err)

	require.NoError(t, tx.Rollback(context.Background()))
	assertExpectations(t, pool)
}

func TestQueriesFor(t *testing.T) {
	pool := newMockPool(t)
	committed := generated.New(pool)

	q, err := queriesFor(nil, committed)
	require.NoError(t, err)
	assert.Same(t, committed, q)

	_, err = queriesFor(foreignTx{}, committed)
	assert.ErrorIs(t, err, ErrForeignTx)

	pool.ExpectBegin()
	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	require.NoError(t, err)

	q, err = queriesFor(tx, committed)
	require.NoError(t, err)
	assert.NotSame(t, committed, q)
}
