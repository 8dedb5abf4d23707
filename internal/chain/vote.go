package chain

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/liftedinit/chainstore/internal/crypto"
	"github.com/liftedinit/chainstore/internal/models"
)

// Vote builds this node's signed verdict on blockID.
func (b *Bigchain) Vote(blockID, previousBlockID string, valid bool, reason string) (*models.Vote, error) {
	body := models.VoteBody{
		VotingForBlock: blockID,
		PreviousBlock:  previousBlockID,
		IsBlockValid:   valid,
		InvalidReason:  reason,
		Timestamp:      b.timestamp(),
	}

	msg, err := crypto.Serialize(body)
	if err != nil {
		return nil, err
	}

	sig, err := crypto.Sign(b.mePrivate, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to sign vote: %w", err)
	}

	return &models.Vote{NodePubkey: b.me, Vote: body, Signature: sig}, nil
}

func (b *Bigchain) VerifyVote(vote *models.Vote) (bool, error) {
	msg, err := crypto.Serialize(vote.Vote)
	if err != nil {
		return false, err
	}

	return crypto.Verify(vote.NodePubkey, msg, vote.Signature)
}

// WriteVote stores a vote after checking its signature.
func (b *Bigchain) WriteVote(ctx context.Context, vote *models.Vote) error {
	ok, err := b.VerifyVote(vote)
	if err != nil || !ok {
		return errors.WithMessagef(ErrInvalidSignature, "vote for block %s", vote.Vote.VotingForBlock)
	}

	return b.store.WriteVote(ctx, vote)
}

// GetVotes returns the votes cast for blockID.
func (b *Bigchain) GetVotes(ctx context.Context, blockID string) ([]*models.Vote, error) {
	return b.store.GetVotes(ctx, blockID)
}
