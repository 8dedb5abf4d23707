package crypto

import (
	"crypto/ed25519"
	"crypto/rand"

	"github.com/multiformats/go-multibase"
	"github.com/pkg/errors"
)

var (
	ErrInvalidKey       = errors.New("invalid key")
	ErrInvalidSignature = errors.New("invalid signature encoding")
)

// Keypair holds a multibase-encoded ed25519 key pair. Private is the encoded
// 32-byte seed, Public the encoded 32-byte public key.
type Keypair struct {
	Private string `json:"private" mapstructure:"private"`
	Public  string `json:"public" mapstructure:"public"`
}

func GenerateKeypair() (Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Keypair{}, errors.Wrap(err, "generating ed25519 key")
	}

	return encodeKeypair(pub, priv)
}

// KeypairFromPrivate derives the full key pair from an encoded private key.
func KeypairFromPrivate(private string) (Keypair, error) {
	priv, err := decodePrivateKey(private)
	if err != nil {
		return Keypair{}, err
	}

	return encodeKeypair(priv.Public().(ed25519.PublicKey), priv)
}

// Validate checks that both keys decode and that Public belongs to Private.
func (k Keypair) Validate() error {
	derived, err := KeypairFromPrivate(k.Private)
	if err != nil {
		return err
	}
	if derived.Public != k.Public {
		return errors.WithMessage(ErrInvalidKey, "public key does not match private key")
	}
	return nil
}

func encodeKeypair(pub ed25519.PublicKey, priv ed25519.PrivateKey) (Keypair, error) {
	privStr, err := multibase.Encode(multibase.Base58BTC, priv.Seed())
	if err != nil {
		return Keypair{}, errors.Wrap(err, "encoding private key")
	}

	pubStr, err := multibase.Encode(multibase.Base58BTC, pub)
	if err != nil {
		return Keypair{}, errors.Wrap(err, "encoding public key")
	}

	return Keypair{Private: privStr, Public: pubStr}, nil
}

func decodePrivateKey(s string) (ed25519.PrivateKey, error) {
	_, seed, err := multibase.Decode(s)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidKey, err.Error())
	}
	if len(seed) != ed25519.SeedSize {
		return nil, errors.Wrapf(ErrInvalidKey, "private key seed has %d bytes", len(seed))
	}

	return ed25519.NewKeyFromSeed(seed), nil
}

func decodePublicKey(s string) (ed25519.PublicKey, error) {
	_, pub, err := multibase.Decode(s)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidKey, err.Error())
	}
	if len(pub) != ed25519.PublicKeySize {
		return nil, errors.Wrapf(ErrInvalidKey, "public key has %d bytes", len(pub))
	}

	return ed25519.PublicKey(pub), nil
}

// ValidatePublicKey reports whether s is a well-formed encoded public key.
func ValidatePublicKey(s string) error {
	_, err := decodePublicKey(s)
	return err
}

// Sign signs msg with the encoded private key and returns the encoded signature.
func Sign(private string, msg []byte) (string, error) {
	priv, err := decodePrivateKey(private)
	if err != nil {
		return "", err
	}

	return multibase.Encode(multibase.Base58BTC, ed25519.Sign(priv, msg))
}

// Verify checks an encoded signature over msg against an encoded public key.
func Verify(public string, msg []byte, signature string) (bool, error) {
	pub, err := decodePublicKey(public)
	if err != nil {
		return false, err
	}

	_, sig, err := multibase.Decode(signature)
	if err != nil {
		return false, errors.Wrap(ErrInvalidSignature, err.Error())
	}

	return ed25519.Verify(pub, msg, sig), nil
}
