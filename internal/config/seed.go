package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/liftedinit/chainstore/internal/crypto"
	"github.com/liftedinit/chainstore/internal/models"
)

type SeedConfig struct {
	Blocks     uint
	TxPerBlock uint
	Durability string
	Recipient  string
}

func (c SeedConfig) Validate() error {
	if c.Blocks == 0 {
		return fmt.Errorf("block count must be greater than 0")
	}

	if c.TxPerBlock == 0 {
		return fmt.Errorf("transactions per block must be greater than 0")
	}

	if _, err := models.ParseDurability(c.Durability); err != nil {
		return err
	}

	if c.Recipient == "" {
		return fmt.Errorf("missing recipient public key")
	}

	if err := crypto.ValidatePublicKey(c.Recipient); err != nil {
		return fmt.Errorf("invalid recipient public key: %w", err)
	}

	return nil
}

func LoadSeedConfigFromCLI() SeedConfig {
	return SeedConfig{
		Blocks:     viper.GetUint("blocks"),
		TxPerBlock: viper.GetUint("txs"),
		Durability: viper.GetString("durability"),
		Recipient:  viper.GetString("recipient"),
	}
}
