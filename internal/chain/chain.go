package chain

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/liftedinit/chainstore/internal/crypto"
	"github.com/liftedinit/chainstore/internal/models"
	"github.com/liftedinit/chainstore/internal/store"
)

// Bigchain builds, signs and validates transactions, blocks and votes on
// behalf of one federation node and persists them through a Store.
type Bigchain struct {
	store     store.Store
	me        string
	mePrivate string
	keyring   []string
	now       func() time.Time

	mu     sync.Mutex
	lastTs int64
}

type Option func(*Bigchain)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Bigchain) {
		b.now = now
	}
}

func New(s store.Store, keypair crypto.Keypair, keyring []string, opts ...Option) (*Bigchain, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}

	if err := keypair.Validate(); err != nil {
		return nil, fmt.Errorf("invalid node keypair: %w", err)
	}

	for _, k := range keyring {
		if err := crypto.ValidatePublicKey(k); err != nil {
			return nil, fmt.Errorf("invalid keyring entry %q: %w", k, err)
		}
	}

	b := &Bigchain{
		store:     s,
		me:        keypair.Public,
		mePrivate: keypair.Private,
		keyring:   slices.Clone(keyring),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}

	return b, nil
}

// Me returns the node's public key.
func (b *Bigchain) Me() string {
	return b.me
}

// MePrivate returns the node's private key.
func (b *Bigchain) MePrivate() string {
	return b.mePrivate
}

func (b *Bigchain) Keyring() []string {
	return slices.Clone(b.keyring)
}

// Federation returns every node allowed to create assets: the keyring plus this node.
func (b *Bigchain) Federation() []string {
	return append(slices.Clone(b.keyring), b.me)
}

func (b *Bigchain) Store() store.Store {
	return b.store
}

// timestamp is strictly increasing so that otherwise identical transactions
// created back to back still hash to different ids.
func (b *Bigchain) timestamp() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	ts := b.now().UnixNano()
	if ts <= b.lastTs {
		ts = b.lastTs + 1
	}
	b.lastTs = ts
	return ts
}

func (b *Bigchain) CountBlocks(ctx context.Context) (int64, error) {
	return b.store.CountBlocks(ctx)
}

func (b *Bigchain) GetLastBlock(ctx context.Context) (*models.Block, error) {
	return b.store.GetLastBlock(ctx)
}

// GetTransaction returns a transaction included in a written block, or ErrNotFound.
func (b *Bigchain) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	return b.store.GetTransaction(ctx, id)
}

// CreateGenesisBlock writes the first block of the chain: a single GENESIS
// transaction from the node to itself. It fails with
// ErrGenesisBlockAlreadyExists once any block has been written, or when the
// store already holds a genesis block written by a concurrent caller.
func (b *Bigchain) CreateGenesisBlock(ctx context.Context) (*models.Block, error) {
	count, err := b.store.CountBlocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count blocks: %w", err)
	}
	if count > 0 {
		return nil, ErrGenesisBlockAlreadyExists
	}

	nonce, err := randomHex(16)
	if err != nil {
		return nil, err
	}

	payload := map[string]string{
		"message": "Hello World from the Bigchain",
		"nonce":   nonce,
	}

	tx, err := b.CreateTransaction(b.me, b.me, "", models.OperationGenesis, payload)
	if err != nil {
		return nil, err
	}

	signed, err := b.SignTransaction(tx, b.mePrivate)
	if err != nil {
		return nil, err
	}

	block, err := b.CreateBlock([]*models.Transaction{signed})
	if err != nil {
		return nil, err
	}

	if err := b.WriteBlock(ctx, block, models.DurabilityHard); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, ErrGenesisBlockAlreadyExists
		}
		return nil, fmt.Errorf("failed to write genesis block: %w", err)
	}

	slog.Info("Genesis block created", "id", block.ID)
	return block, nil
}
