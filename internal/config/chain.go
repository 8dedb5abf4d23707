package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/liftedinit/chainstore/internal/crypto"
)

// ChainConfig holds the node identity and the public keys of the other
// federation nodes.
type ChainConfig struct {
	Keypair crypto.Keypair
	Keyring []string
}

func (c ChainConfig) Validate() error {
	if c.Keypair.Private == "" {
		return fmt.Errorf("missing node private key")
	}

	if err := c.Keypair.Validate(); err != nil {
		return fmt.Errorf("invalid node keypair: %w", err)
	}

	for _, k := range c.Keyring {
		if err := crypto.ValidatePublicKey(k); err != nil {
			return fmt.Errorf("invalid keyring entry %q: %w", k, err)
		}
	}

	return nil
}

// LoadChainConfigFromCLI derives the public key from the private key when only
// the latter is configured.
func LoadChainConfigFromCLI() ChainConfig {
	cfg := ChainConfig{
		Keypair: crypto.Keypair{
			Private: viper.GetString("private-key"),
			Public:  viper.GetString("public-key"),
		},
		Keyring: viper.GetStringSlice("keyring"),
	}

	if cfg.Keypair.Private != "" && cfg.Keypair.Public == "" {
		if kp, err := crypto.KeypairFromPrivate(cfg.Keypair.Private); err == nil {
			cfg.Keypair = kp
		}
	}

	return cfg
}
