package harness_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liftedinit/chainstore/internal/chain"
	"github.com/liftedinit/chainstore/internal/crypto"
	"github.com/liftedinit/chainstore/internal/harness"
	"github.com/liftedinit/chainstore/internal/models"
	"github.com/liftedinit/chainstore/internal/store/memory"
)

func newChain(t *testing.T) (*chain.Bigchain, *memory.MemStore) {
	t.Helper()

	kp, err := crypto.GenerateKeypair()
	require.NoError(t, err)

	s := memory.NewMemStore()
	b, err := chain.New(s, kp, nil)
	require.NoError(t, err)
	return b, s
}

func TestSeedInputs(t *testing.T) {
	b, s := newChain(t)
	user, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	ctx := context.Background()

	var written int
	opts := harness.DefaultSeedOptions()
	opts.OnBlock = func(*models.Block) { written++ }

	blocks, err := harness.SeedInputs(ctx, b, user.Public, opts)
	require.NoError(t, err)
	assert.Len(t, blocks, 4)
	assert.Equal(t, 4, written)

	all, err := s.GetBlocks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 5)

	var genesis, created int
	ids := map[string]struct{}{}
	for _, block := range all {
		require.NoError(t, b.ValidateBlock(block))

		d, ok := s.Durability(block.ID)
		require.True(t, ok)
		assert.Equal(t, models.DurabilityHard, d)

		for i := range block.Block.Transactions {
			tx := &block.Block.Transactions[i]
			ids[tx.ID] = struct{}{}

			switch tx.Transaction.Operation {
			case models.OperationGenesis:
				genesis++
			case models.OperationCreate:
				created++
				assert.Equal(t, user.Public, tx.Transaction.NewOwner)
				assert.Equal(t, b.Me(), tx.Transaction.CurrentOwner)

				ok, err := b.VerifySignature(tx)
				require.NoError(t, err)
				assert.True(t, ok)
			}
		}
	}

	assert.Equal(t, 1, genesis)
	assert.Equal(t, 40, created)
	assert.Len(t, ids, 41, "transaction ids are unique")
}

func TestSeedInputsKeepsSingleGenesis(t *testing.T) {
	b, s := newChain(t)
	user, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	ctx := context.Background()

	opts := harness.SeedOptions{Blocks: 2, TxPerBlock: 3, Durability: models.DurabilitySoft}

	_, err = harness.SeedInputs(ctx, b, user.Public, opts)
	require.NoError(t, err)
	_, err = harness.SeedInputs(ctx, b, user.Public, opts)
	require.NoError(t, err)

	all, err := s.GetBlocks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	var genesis int
	for _, block := range all {
		for _, tx := range block.Block.Transactions {
			if tx.Transaction.Operation == models.OperationGenesis {
				genesis++
			}
		}
		if block.Block.Transactions[0].Transaction.Operation != models.OperationGenesis {
			d, _ := s.Durability(block.ID)
			assert.Equal(t, models.DurabilitySoft, d)
		}
	}
	assert.Equal(t, 1, genesis)
}

func TestSeedInputsInvalidSize(t *testing.T) {
	b, s := newChain(t)

	_, err := harness.SeedInputs(context.Background(), b, b.Me(), harness.SeedOptions{Blocks: 0, TxPerBlock: 10})
	assert.Error(t, err)

	n, err := s.CountBlocks(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
