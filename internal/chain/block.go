package chain

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/liftedinit/chainstore/internal/crypto"
	"github.com/liftedinit/chainstore/internal/models"
)

// CreateBlock builds a block signed by this node. Every federation node is a voter.
func (b *Bigchain) CreateBlock(txs []*models.Transaction) (*models.Block, error) {
	if len(txs) == 0 {
		return nil, fmt.Errorf("block must contain at least one transaction")
	}

	transactions := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		transactions = append(transactions, *tx)
	}

	body := models.BlockBody{
		Timestamp:    b.timestamp(),
		Transactions: transactions,
		NodePubkey:   b.me,
		Voters:       b.Federation(),
	}

	msg, err := crypto.Serialize(body)
	if err != nil {
		return nil, err
	}

	sig, err := crypto.Sign(b.mePrivate, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to sign block: %w", err)
	}

	return &models.Block{
		ID:        crypto.Hash(msg),
		Block:     body,
		Signature: sig,
	}, nil
}

// ValidateBlock checks the block hash, the creator's signature and the hash
// and signature of every transaction it holds.
func (b *Bigchain) ValidateBlock(block *models.Block) error {
	msg, err := crypto.Serialize(block.Block)
	if err != nil {
		return err
	}

	if crypto.Hash(msg) != block.ID {
		return errors.WithMessagef(ErrInvalidHash, "block %s", block.ID)
	}

	ok, err := crypto.Verify(block.Block.NodePubkey, msg, block.Signature)
	if err != nil || !ok {
		return errors.WithMessagef(ErrInvalidSignature, "block %s", block.ID)
	}

	for i := range block.Block.Transactions {
		if err := b.checkTransaction(&block.Block.Transactions[i]); err != nil {
			return err
		}
	}

	return nil
}

// WriteBlock persists block with the requested durability.
func (b *Bigchain) WriteBlock(ctx context.Context, block *models.Block, durability models.Durability) error {
	if _, err := models.ParseDurability(string(durability)); err != nil {
		return err
	}

	return b.store.WriteBlock(ctx, block, durability)
}
