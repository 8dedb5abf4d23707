package chain

import (
	"github.com/pkg/errors"

	"github.com/liftedinit/chainstore/internal/store"
)

var (
	// ErrGenesisBlockAlreadyExists is returned by CreateGenesisBlock when the
	// chain already holds a block. Callers seeding a chain may ignore it.
	ErrGenesisBlockAlreadyExists = errors.New("genesis block already exists")

	ErrInvalidHash         = errors.New("hash does not match contents")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrInvalidInput        = errors.New("invalid transaction input")
	ErrOperationNotAllowed = errors.New("operation not allowed")

	ErrNotFound = store.ErrNotFound
)
