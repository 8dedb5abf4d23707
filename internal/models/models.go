package models

import (
	"fmt"
)

// Operation is the kind of a transaction.
type Operation string

const (
	OperationCreate   Operation = "CREATE"
	OperationTransfer Operation = "TRANSFER"
	OperationGenesis  Operation = "GENESIS"
)

// Durability is the commit guarantee requested for a single write.
type Durability string

const (
	// DurabilityHard returns only after the write is flushed to the write-ahead log.
	DurabilityHard Durability = "hard"
	// DurabilitySoft returns as soon as the write is accepted.
	DurabilitySoft Durability = "soft"
)

func ParseDurability(s string) (Durability, error) {
	switch d := Durability(s); d {
	case DurabilityHard, DurabilitySoft:
		return d, nil
	default:
		return "", fmt.Errorf("invalid durability: %q (expected %s or %s)", s, DurabilityHard, DurabilitySoft)
	}
}

// Data is the payload of a transaction together with its hash.
type Data struct {
	Hash    string            `json:"hash" msgpack:"hash"`
	Payload map[string]string `json:"payload,omitempty" msgpack:"payload"`
}

// TransactionBody is the hashed part of a transaction.
type TransactionBody struct {
	CurrentOwner string    `json:"current_owner" msgpack:"current_owner"`
	NewOwner     string    `json:"new_owner" msgpack:"new_owner"`
	Input        string    `json:"input" msgpack:"input"`
	Operation    Operation `json:"operation" msgpack:"operation"`
	Timestamp    int64     `json:"timestamp" msgpack:"timestamp"`
	Data         Data      `json:"data" msgpack:"data"`
}

// Transaction represents a blockchain transaction.
type Transaction struct {
	ID          string          `json:"id" msgpack:"id"`
	Transaction TransactionBody `json:"transaction" msgpack:"transaction"`
	Signature   string          `json:"signature,omitempty" msgpack:"signature"`
}

// Unsigned returns a copy of the transaction without its signature.
func (t Transaction) Unsigned() Transaction {
	t.Signature = ""
	return t
}

// BlockBody is the hashed and signed part of a block.
type BlockBody struct {
	Timestamp    int64         `json:"timestamp" msgpack:"timestamp"`
	Transactions []Transaction `json:"transactions" msgpack:"transactions"`
	NodePubkey   string        `json:"node_pubkey" msgpack:"node_pubkey"`
	Voters       []string      `json:"voters" msgpack:"voters"`
}

// Block represents a blockchain block.
type Block struct {
	ID        string    `json:"id"`
	Block     BlockBody `json:"block"`
	Signature string    `json:"signature"`
	Votes     []Vote    `json:"votes"`
}

// VoteBody is the signed part of a vote.
type VoteBody struct {
	VotingForBlock string `json:"voting_for_block" msgpack:"voting_for_block"`
	PreviousBlock  string `json:"previous_block" msgpack:"previous_block"`
	IsBlockValid   bool   `json:"is_block_valid" msgpack:"is_block_valid"`
	InvalidReason  string `json:"invalid_reason,omitempty" msgpack:"invalid_reason"`
	Timestamp      int64  `json:"timestamp" msgpack:"timestamp"`
}

// Vote is a node's signed verdict on a block.
type Vote struct {
	NodePubkey string   `json:"node_pubkey"`
	Vote       VoteBody `json:"vote"`
	Signature  string   `json:"signature"`
}
