package chainstore

import (
	"fmt"
	"log/slog"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/liftedinit/chainstore/internal/chain"
	"github.com/liftedinit/chainstore/internal/config"
	"github.com/liftedinit/chainstore/internal/harness"
	"github.com/liftedinit/chainstore/internal/models"
	"github.com/liftedinit/chainstore/internal/store/postgresql"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write a genesis block and blocks of CREATE transactions to a recipient",
	Long: `Make sure the chain has a genesis block, then write blocks of CREATE
transactions from this node to the recipient, signed with the node's private key.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		seedConfig := config.LoadSeedConfigFromCLI()
		if err := seedConfig.Validate(); err != nil {
			return fmt.Errorf("invalid seed configuration: %w", err)
		}

		chainConfig := config.LoadChainConfigFromCLI()
		if err := chainConfig.Validate(); err != nil {
			return fmt.Errorf("invalid chain configuration: %w", err)
		}

		slog.Debug("Command-line arguments", "seedConfig", seedConfig, "keyring", chainConfig.Keyring)

		h, _, err := newHarness()
		if err != nil {
			return err
		}
		defer h.Close()

		conn, err := h.DB()
		if err != nil {
			return err
		}

		b, err := chain.New(postgresql.NewPostgresStore(conn), chainConfig.Keypair, chainConfig.Keyring)
		if err != nil {
			return err
		}

		durability, err := models.ParseDurability(seedConfig.Durability)
		if err != nil {
			return err
		}

		bar := progressbar.NewOptions(
			int(seedConfig.Blocks),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetDescription("Writing blocks..."),
			progressbar.OptionShowCount(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)

		opts := harness.SeedOptions{
			Blocks:     int(seedConfig.Blocks),
			TxPerBlock: int(seedConfig.TxPerBlock),
			Durability: durability,
			OnBlock: func(*models.Block) {
				_ = bar.Add(1)
			},
		}

		blocks, err := harness.SeedInputs(cmd.Context(), b, seedConfig.Recipient, opts)
		if err != nil {
			return err
		}
		_ = bar.Finish()

		slog.Info("Seeded chain", "blocks", len(blocks), "transactions", len(blocks)*opts.TxPerBlock, "durability", durability)
		return nil
	},
}

func init() {
	seedCmd.Flags().Uint("blocks", harness.DefaultSeedBlocks, "Number of blocks to write")
	seedCmd.Flags().Uint("txs", harness.DefaultSeedTxPerBlock, "Number of transactions per block")
	seedCmd.Flags().String("durability", string(models.DurabilityHard), "Write durability (hard|soft)")
	seedCmd.Flags().String("recipient", "", "Public key receiving the created transactions")
	seedCmd.Flags().String("private-key", "", "Node private key (multibase)")
	seedCmd.Flags().String("public-key", "", "Node public key (multibase); derived from the private key when empty")
	seedCmd.Flags().StringSlice("keyring", nil, "Public keys of the other federation nodes")

	if err := viper.BindPFlags(seedCmd.Flags()); err != nil {
		slog.Error("Failed to bind seedCmd flags", "error", err)
	}
}
