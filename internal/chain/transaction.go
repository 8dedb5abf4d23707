package chain

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"maps"
	"slices"

	"github.com/pkg/errors"

	"github.com/liftedinit/chainstore/internal/crypto"
	"github.com/liftedinit/chainstore/internal/models"
)

// CreateTransaction builds an unsigned transaction. input is the id of the
// transaction being spent and is empty for CREATE and GENESIS.
func (b *Bigchain) CreateTransaction(currentOwner, newOwner, input string, op models.Operation, payload map[string]string) (*models.Transaction, error) {
	switch op {
	case models.OperationCreate, models.OperationGenesis:
		if input != "" {
			return nil, errors.WithMessagef(ErrInvalidInput, "%s transaction cannot have an input", op)
		}
	case models.OperationTransfer:
		if input == "" {
			return nil, errors.WithMessage(ErrInvalidInput, "TRANSFER transaction requires an input")
		}
	default:
		return nil, errors.WithMessagef(ErrOperationNotAllowed, "unknown operation %q", op)
	}

	var data models.Data
	if len(payload) > 0 {
		data.Payload = maps.Clone(payload)
		h, err := crypto.HashValue(data.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to hash payload: %w", err)
		}
		data.Hash = h
	}

	body := models.TransactionBody{
		CurrentOwner: currentOwner,
		NewOwner:     newOwner,
		Input:        input,
		Operation:    op,
		Timestamp:    b.timestamp(),
		Data:         data,
	}

	id, err := crypto.HashValue(body)
	if err != nil {
		return nil, fmt.Errorf("failed to hash transaction: %w", err)
	}

	return &models.Transaction{ID: id, Transaction: body}, nil
}

// SignTransaction returns a signed copy of tx. The signature covers the id and
// body, so it also commits to the hash.
func (b *Bigchain) SignTransaction(tx *models.Transaction, privateKey string) (*models.Transaction, error) {
	signed := tx.Unsigned()

	msg, err := crypto.Serialize(signed)
	if err != nil {
		return nil, err
	}

	sig, err := crypto.Sign(privateKey, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	signed.Signature = sig
	return &signed, nil
}

// VerifySignature checks the transaction signature against its current owner.
func (b *Bigchain) VerifySignature(tx *models.Transaction) (bool, error) {
	if tx.Signature == "" {
		return false, nil
	}

	msg, err := crypto.Serialize(tx.Unsigned())
	if err != nil {
		return false, err
	}

	return crypto.Verify(tx.Transaction.CurrentOwner, msg, tx.Signature)
}

// checkTransaction verifies the hash and signature of tx without consulting the store.
func (b *Bigchain) checkTransaction(tx *models.Transaction) error {
	id, err := crypto.HashValue(tx.Transaction)
	if err != nil {
		return fmt.Errorf("failed to hash transaction: %w", err)
	}
	if id != tx.ID {
		return errors.WithMessagef(ErrInvalidHash, "transaction %s", tx.ID)
	}

	ok, err := b.VerifySignature(tx)
	if err != nil {
		return errors.WithMessagef(ErrInvalidSignature, "transaction %s: %v", tx.ID, err)
	}
	if !ok {
		return errors.WithMessagef(ErrInvalidSignature, "transaction %s", tx.ID)
	}

	return nil
}

// ValidateTransaction checks hash and signature, that CREATE and GENESIS come
// from a federation node and that a TRANSFER spends a written transaction
// owned by its signer.
func (b *Bigchain) ValidateTransaction(ctx context.Context, tx *models.Transaction) error {
	if err := b.checkTransaction(tx); err != nil {
		return err
	}

	body := tx.Transaction
	switch body.Operation {
	case models.OperationCreate, models.OperationGenesis:
		if !slices.Contains(b.Federation(), body.CurrentOwner) {
			return errors.WithMessagef(ErrOperationNotAllowed, "%s by non-federation node %s", body.Operation, body.CurrentOwner)
		}
	case models.OperationTransfer:
		input, err := b.store.GetTransaction(ctx, body.Input)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return errors.WithMessagef(ErrInvalidInput, "input %s not found", body.Input)
			}
			return fmt.Errorf("failed to get input transaction: %w", err)
		}
		if input.Transaction.NewOwner != body.CurrentOwner {
			return errors.WithMessagef(ErrInvalidInput, "input %s is not owned by %s", body.Input, body.CurrentOwner)
		}
	default:
		return errors.WithMessagef(ErrOperationNotAllowed, "unknown operation %q", body.Operation)
	}

	return nil
}

// WriteTransaction validates tx and queues it in the backlog.
func (b *Bigchain) WriteTransaction(ctx context.Context, tx *models.Transaction) error {
	if err := b.ValidateTransaction(ctx, tx); err != nil {
		return err
	}

	if err := b.store.WriteBacklogTransaction(ctx, tx); err != nil {
		return fmt.Errorf("failed to write transaction to backlog: %w", err)
	}

	return nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
