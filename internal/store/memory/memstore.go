package memory

import (
	"context"
	"sync"

	"github.com/liftedinit/chainstore/internal/models"
	"github.com/liftedinit/chainstore/internal/store"
)

var _ store.Store = (*MemStore)(nil)

// MemStore is an in-process Store. Stored values are copied on the way in and
// out so callers cannot mutate the chain through returned pointers.
type MemStore struct {
	mu sync.RWMutex

	blocks     []models.Block
	blockIndex map[string]int
	txIndex    map[string]txLocation
	durability map[string]models.Durability
	genesis    string

	backlog map[string]models.Transaction
	votes   map[string][]models.Vote
}

type txLocation struct {
	block int
	tx    int
}

func NewMemStore() *MemStore {
	return &MemStore{
		blockIndex: make(map[string]int),
		txIndex:    make(map[string]txLocation),
		durability: make(map[string]models.Durability),
		backlog:    make(map[string]models.Transaction),
		votes:      make(map[string][]models.Vote),
	}
}

func (m *MemStore) WriteBlock(_ context.Context, block *models.Block, durability models.Durability) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.blockIndex[block.ID]; ok {
		return store.ErrAlreadyExists
	}

	// A chain holds a single genesis block.
	genesis := isGenesis(block)
	if genesis && m.genesis != "" {
		return store.ErrAlreadyExists
	}

	idx := len(m.blocks)
	m.blocks = append(m.blocks, copyBlock(block))
	m.blockIndex[block.ID] = idx
	m.durability[block.ID] = durability
	if genesis {
		m.genesis = block.ID
	}

	for i, tx := range block.Block.Transactions {
		m.txIndex[tx.ID] = txLocation{block: idx, tx: i}
	}

	return nil
}

// Durability returns the durability level a block was written with.
func (m *MemStore) Durability(blockID string) (models.Durability, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.durability[blockID]
	return d, ok
}

func (m *MemStore) GetBlock(_ context.Context, id string) (*models.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx, ok := m.blockIndex[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	b := copyBlock(&m.blocks[idx])
	return &b, nil
}

func (m *MemStore) GetBlocks(_ context.Context) ([]*models.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	blocks := make([]*models.Block, 0, len(m.blocks))
	for i := range m.blocks {
		b := copyBlock(&m.blocks[i])
		blocks = append(blocks, &b)
	}
	return blocks, nil
}

func (m *MemStore) GetLastBlock(_ context.Context) (*models.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.blocks) == 0 {
		return nil, nil
	}

	b := copyBlock(&m.blocks[len(m.blocks)-1])
	return &b, nil
}

func (m *MemStore) CountBlocks(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.blocks)), nil
}

func (m *MemStore) GetTransaction(_ context.Context, id string) (*models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	loc, ok := m.txIndex[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	tx := copyTransaction(m.blocks[loc.block].Block.Transactions[loc.tx])
	return &tx, nil
}

func (m *MemStore) WriteBacklogTransaction(_ context.Context, tx *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.backlog[tx.ID]; ok {
		return store.ErrAlreadyExists
	}

	m.backlog[tx.ID] = copyTransaction(*tx)
	return nil
}

func (m *MemStore) CountBacklog(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.backlog)), nil
}

func (m *MemStore) WriteVote(_ context.Context, vote *models.Vote) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	blockID := vote.Vote.VotingForBlock
	for _, v := range m.votes[blockID] {
		if v.NodePubkey == vote.NodePubkey {
			return store.ErrAlreadyExists
		}
	}

	m.votes[blockID] = append(m.votes[blockID], *vote)
	return nil
}

func (m *MemStore) GetVotes(_ context.Context, blockID string) ([]*models.Vote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	votes := make([]*models.Vote, 0, len(m.votes[blockID]))
	for _, v := range m.votes[blockID] {
		v := v
		votes = append(votes, &v)
	}
	return votes, nil
}

func (m *MemStore) CountVotes(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, v := range m.votes {
		n += int64(len(v))
	}
	return n, nil
}

// Clear removes every block, backlog transaction and vote.
func (m *MemStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = nil
	m.blockIndex = make(map[string]int)
	m.txIndex = make(map[string]txLocation)
	m.durability = make(map[string]models.Durability)
	m.genesis = ""
	m.backlog = make(map[string]models.Transaction)
	m.votes = make(map[string][]models.Vote)
}

func isGenesis(b *models.Block) bool {
	txs := b.Block.Transactions
	return len(txs) > 0 && txs[0].Transaction.Operation == models.OperationGenesis
}

func copyBlock(b *models.Block) models.Block {
	c := *b
	if b.Block.Transactions != nil {
		c.Block.Transactions = make([]models.Transaction, len(b.Block.Transactions))
		for i, tx := range b.Block.Transactions {
			c.Block.Transactions[i] = copyTransaction(tx)
		}
	}
	if b.Block.Voters != nil {
		c.Block.Voters = append([]string(nil), b.Block.Voters...)
	}
	if b.Votes != nil {
		c.Votes = append([]models.Vote(nil), b.Votes...)
	}
	return c
}

func copyTransaction(tx models.Transaction) models.Transaction {
	if tx.Transaction.Data.Payload != nil {
		payload := make(map[string]string, len(tx.Transaction.Data.Payload))
		for k, v := range tx.Transaction.Data.Payload {
			payload[k] = v
		}
		tx.Transaction.Data.Payload = payload
	}
	return tx
}
