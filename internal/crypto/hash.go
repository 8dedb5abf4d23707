package crypto

import (
	"bytes"
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/sha3"
)

// Serialize returns the canonical encoding of v used for hashing and signing.
// Map keys are sorted so equal values always encode to equal bytes.
func Serialize(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, errors.Wrap(err, "serializing")
	}
	return buf.Bytes(), nil
}

// Hash returns the hex-encoded SHA3-256 digest of data.
func Hash(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashValue serializes v and hashes the result.
func HashValue(v interface{}) (string, error) {
	b, err := Serialize(v)
	if err != nil {
		return "", err
	}
	return Hash(b), nil
}
