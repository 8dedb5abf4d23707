package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/liftedinit/chainstore/internal/chain"
	"github.com/liftedinit/chainstore/internal/models"
)

const (
	DefaultSeedBlocks     = 4
	DefaultSeedTxPerBlock = 10
)

type SeedOptions struct {
	Blocks     int
	TxPerBlock int
	Durability models.Durability
	// OnBlock, if set, is called after each block is written.
	OnBlock func(block *models.Block)
}

func DefaultSeedOptions() SeedOptions {
	return SeedOptions{
		Blocks:     DefaultSeedBlocks,
		TxPerBlock: DefaultSeedTxPerBlock,
		Durability: models.DurabilityHard,
	}
}

// SeedInputs makes sure the chain has a genesis block and then writes
// opts.Blocks blocks of opts.TxPerBlock CREATE transactions from the node to
// recipient, each signed with the node's private key. It returns the written
// blocks, genesis excluded.
func SeedInputs(ctx context.Context, b *chain.Bigchain, recipient string, opts SeedOptions) ([]*models.Block, error) {
	if opts.Blocks <= 0 || opts.TxPerBlock <= 0 {
		return nil, fmt.Errorf("invalid seed size: %d blocks of %d transactions", opts.Blocks, opts.TxPerBlock)
	}

	if _, err := b.CreateGenesisBlock(ctx); err != nil {
		if !errors.Is(err, chain.ErrGenesisBlockAlreadyExists) {
			return nil, fmt.Errorf("failed to create genesis block: %w", err)
		}
		slog.Debug("Genesis block already exists")
	}

	blocks := make([]*models.Block, 0, opts.Blocks)
	for i := 0; i < opts.Blocks; i++ {
		txs := make([]*models.Transaction, 0, opts.TxPerBlock)
		for j := 0; j < opts.TxPerBlock; j++ {
			tx, err := b.CreateTransaction(b.Me(), recipient, "", models.OperationCreate, nil)
			if err != nil {
				return nil, err
			}

			signed, err := b.SignTransaction(tx, b.MePrivate())
			if err != nil {
				return nil, err
			}
			txs = append(txs, signed)
		}

		block, err := b.CreateBlock(txs)
		if err != nil {
			return nil, err
		}

		if err := b.WriteBlock(ctx, block, opts.Durability); err != nil {
			return nil, fmt.Errorf("failed to write block %d: %w", i, err)
		}

		if opts.OnBlock != nil {
			opts.OnBlock(block)
		}
		blocks = append(blocks, block)
	}

	slog.Debug("Seeded chain", "blocks", len(blocks), "transactions", len(blocks)*opts.TxPerBlock)
	return blocks, nil
}
