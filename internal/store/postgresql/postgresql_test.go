package postgresql_test

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liftedinit/chainstore/internal/models"
	"github.com/liftedinit/chainstore/internal/store"
	"github.com/liftedinit/chainstore/internal/store/postgresql"
)

func newTestBlock() *models.Block {
	return &models.Block{
		ID: "b1",
		Block: models.BlockBody{
			Timestamp: 1700000000,
			Transactions: []models.Transaction{{
				ID: "t1",
				Transaction: models.TransactionBody{
					CurrentOwner: "zA",
					NewOwner:     "zB",
					Operation:    models.OperationCreate,
					Timestamp:    1700000000,
				},
				Signature: "zsig",
			}},
			NodePubkey: "zA",
			Voters:     []string{"zA"},
		},
		Signature: "zblocksig",
	}
}

func TestWriteBlock(t *testing.T) {
	for _, tc := range []struct {
		durability models.Durability
		setting    string
	}{
		{models.DurabilityHard, "on"},
		{models.DurabilitySoft, "off"},
	} {
		t.Run(string(tc.durability), func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			block := newTestBlock()

			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(fmt.Sprintf(postgresql.SetSynchronousCommitQuery, tc.setting))).
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec(regexp.QuoteMeta(postgresql.InsertBlockQuery)).
				WithArgs(block.ID, block.Block.Timestamp, sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(1, 1))
			mock.ExpectCommit()

			s := postgresql.NewPostgresStore(db)
			require.NoError(t, s.WriteBlock(context.Background(), block, tc.durability))
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestWriteBlockDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	block := newTestBlock()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(fmt.Sprintf(postgresql.SetSynchronousCommitQuery, "on"))).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(postgresql.InsertBlockQuery)).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, Message: "duplicate key"})
	mock.ExpectRollback()

	s := postgresql.NewPostgresStore(db)
	err = s.WriteBlock(context.Background(), block, models.DurabilityHard)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteBlockInvalidDurability(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := postgresql.NewPostgresStore(db)
	err = s.WriteBlock(context.Background(), newTestBlock(), models.Durability("eventually"))
	assert.ErrorContains(t, err, "unsupported durability")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLastBlock(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(postgresql.GetLastBlockQuery)).
			WillReturnRows(sqlmock.NewRows([]string{"data"}))

		block, err := postgresql.NewPostgresStore(db).GetLastBlock(context.Background())
		require.NoError(t, err)
		assert.Nil(t, block)
	})

	t.Run("Found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		want := newTestBlock()
		data, err := json.Marshal(want)
		require.NoError(t, err)

		mock.ExpectQuery(regexp.QuoteMeta(postgresql.GetLastBlockQuery)).
			WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow(data))

		block, err := postgresql.NewPostgresStore(db).GetLastBlock(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, block)
	})
}

func TestGetTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	want := newTestBlock().Block.Transactions[0]
	data, err := json.Marshal(want)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(postgresql.GetTransactionQuery)).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"tx"}).AddRow(data))
	mock.ExpectQuery(regexp.QuoteMeta(postgresql.GetTransactionQuery)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"tx"}))

	s := postgresql.NewPostgresStore(db)

	tx, err := s.GetTransaction(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, &want, tx)

	_, err = s.GetTransaction(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(postgresql.CountBlocksQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(regexp.QuoteMeta(postgresql.CountBacklogQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(postgresql.CountVotesQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	s := postgresql.NewPostgresStore(db)
	ctx := context.Background()

	n, err := s.CountBlocks(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	n, err = s.CountBacklog(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	n, err = s.CountVotes(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteVoteDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	vote := &models.Vote{
		NodePubkey: "zA",
		Vote:       models.VoteBody{VotingForBlock: "b1", PreviousBlock: "b0", IsBlockValid: true},
		Signature:  "zsig",
	}

	mock.ExpectExec(regexp.QuoteMeta(postgresql.InsertVoteQuery)).
		WithArgs("b1", "zA", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(postgresql.InsertVoteQuery)).
		WithArgs("b1", "zA", sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

	s := postgresql.NewPostgresStore(db)
	require.NoError(t, s.WriteVote(context.Background(), vote))
	assert.ErrorIs(t, s.WriteVote(context.Background(), vote), store.ErrAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}
