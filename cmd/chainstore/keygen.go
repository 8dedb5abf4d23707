package chainstore

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liftedinit/chainstore/internal/crypto"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an ed25519 keypair",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kp, err := crypto.GenerateKeypair()
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(kp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode keypair: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}
