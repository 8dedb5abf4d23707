package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/liftedinit/chainstore/internal/models"
	"github.com/liftedinit/chainstore/internal/store"
)

const (
	SetSynchronousCommitQuery = `SET LOCAL synchronous_commit TO %s`
	InsertBlockQuery          = `INSERT INTO bigchain (id, timestamp, data) VALUES ($1, $2, $3)`
	GetBlockQuery             = `SELECT data FROM bigchain WHERE id = $1`
	GetBlocksQuery            = `SELECT data FROM bigchain ORDER BY seq ASC`
	GetLastBlockQuery         = `SELECT data FROM bigchain ORDER BY seq DESC LIMIT 1`
	CountBlocksQuery          = `SELECT COUNT(*) FROM bigchain`
	GetTransactionQuery       = `
		SELECT tx
		FROM bigchain b, jsonb_array_elements(b.data->'block'->'transactions') AS tx
		WHERE tx->>'id' = $1
		LIMIT 1`
	InsertBacklogQuery = `INSERT INTO backlog (id, timestamp, data) VALUES ($1, $2, $3)`
	CountBacklogQuery  = `SELECT COUNT(*) FROM backlog`
	InsertVoteQuery    = `INSERT INTO votes (voting_for_block, node_pubkey, data) VALUES ($1, $2, $3)`
	GetVotesQuery      = `SELECT data FROM votes WHERE voting_for_block = $1 ORDER BY id ASC`
	CountVotesQuery    = `SELECT COUNT(*) FROM votes`
)

var _ store.Store = (*PostgresStore)(nil)

// PostgresStore keeps each document as JSONB in the bigchain, backlog and
// votes tables.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// synchronousCommit maps a durability level onto the synchronous_commit
// setting scoped to the write transaction.
func synchronousCommit(d models.Durability) (string, error) {
	switch d {
	case models.DurabilityHard:
		return "on", nil
	case models.DurabilitySoft:
		return "off", nil
	default:
		return "", fmt.Errorf("unsupported durability: %q", d)
	}
}

func (s *PostgresStore) WriteBlock(ctx context.Context, block *models.Block, durability models.Durability) error {
	syncCommit, err := synchronousCommit(durability)
	if err != nil {
		return err
	}

	data, err := json.Marshal(block)
	if err != nil {
		return fmt.Errorf("failed to marshal block: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Ensure rollback if commit is not reached

	if _, err = tx.ExecContext(ctx, fmt.Sprintf(SetSynchronousCommitQuery, syncCommit)); err != nil {
		return fmt.Errorf("failed to set durability: %w", err)
	}

	if _, err = tx.ExecContext(ctx, InsertBlockQuery, block.ID, block.Block.Timestamp, string(data)); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("block %s: %w", block.ID, store.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to write block: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *PostgresStore) GetBlock(ctx context.Context, id string) (*models.Block, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, GetBlockQuery, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get block: %w", err)
	}

	return decodeBlock(data)
}

func (s *PostgresStore) GetBlocks(ctx context.Context) ([]*models.Block, error) {
	rows, err := s.db.QueryContext(ctx, GetBlocksQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to get blocks: %w", err)
	}
	defer rows.Close()

	var blocks []*models.Block
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan block: %w", err)
		}
		block, err := decodeBlock(data)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blocks: %w", err)
	}

	return blocks, nil
}

func (s *PostgresStore) GetLastBlock(ctx context.Context) (*models.Block, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, GetLastBlockQuery).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No rows found
		}
		return nil, fmt.Errorf("failed to get the last block: %w", err)
	}

	return decodeBlock(data)
}

func (s *PostgresStore) CountBlocks(ctx context.Context) (int64, error) {
	return s.count(ctx, CountBlocksQuery)
}

func (s *PostgresStore) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, GetTransactionQuery, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	var tx models.Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction: %w", err)
	}
	return &tx, nil
}

func (s *PostgresStore) WriteBacklogTransaction(ctx context.Context, tx *models.Transaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, InsertBacklogQuery, tx.ID, tx.Transaction.Timestamp, string(data)); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("transaction %s: %w", tx.ID, store.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to write backlog transaction: %w", err)
	}

	return nil
}

func (s *PostgresStore) CountBacklog(ctx context.Context) (int64, error) {
	return s.count(ctx, CountBacklogQuery)
}

func (s *PostgresStore) WriteVote(ctx context.Context, vote *models.Vote) error {
	data, err := json.Marshal(vote)
	if err != nil {
		return fmt.Errorf("failed to marshal vote: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, InsertVoteQuery, vote.Vote.VotingForBlock, vote.NodePubkey, string(data)); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("vote for block %s: %w", vote.Vote.VotingForBlock, store.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to write vote: %w", err)
	}

	return nil
}

func (s *PostgresStore) GetVotes(ctx context.Context, blockID string) ([]*models.Vote, error) {
	rows, err := s.db.QueryContext(ctx, GetVotesQuery, blockID)
	if err != nil {
		return nil, fmt.Errorf("failed to get votes: %w", err)
	}
	defer rows.Close()

	var votes []*models.Vote
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		var vote models.Vote
		if err := json.Unmarshal(data, &vote); err != nil {
			return nil, fmt.Errorf("failed to unmarshal vote: %w", err)
		}
		votes = append(votes, &vote)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate votes: %w", err)
	}

	return votes, nil
}

func (s *PostgresStore) CountVotes(ctx context.Context) (int64, error) {
	return s.count(ctx, CountVotesQuery)
}

func (s *PostgresStore) count(ctx context.Context, query string) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return n, nil
}

func decodeBlock(data []byte) (*models.Block, error) {
	var block models.Block
	if err := json.Unmarshal(data, &block); err != nil {
		return nil, fmt.Errorf("failed to unmarshal block: %w", err)
	}
	return &block, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
