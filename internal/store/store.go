package store

import (
	"context"

	"github.com/liftedinit/chainstore/internal/models"
)

// Store persists blocks, backlog transactions and votes.
type Store interface {
	WriteBlock(ctx context.Context, block *models.Block, durability models.Durability) error
	GetBlock(ctx context.Context, id string) (*models.Block, error)
	// GetBlocks returns every block in write order.
	GetBlocks(ctx context.Context) ([]*models.Block, error)
	GetLastBlock(ctx context.Context) (*models.Block, error)
	CountBlocks(ctx context.Context) (int64, error)

	// GetTransaction looks the transaction up in committed blocks only.
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)

	WriteBacklogTransaction(ctx context.Context, tx *models.Transaction) error
	CountBacklog(ctx context.Context) (int64, error)

	WriteVote(ctx context.Context, vote *models.Vote) error
	GetVotes(ctx context.Context, blockID string) ([]*models.Vote, error)
	CountVotes(ctx context.Context) (int64, error)
}
