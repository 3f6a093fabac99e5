package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"parley/internal/crypto"
)

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate the identity key pair used for private messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			priv, err := crypto.GenerateKeyPair()
			if err != nil {
				return err
			}
			if err := crypto.SaveKeyPair(home, priv); err != nil {
				return err
			}
			pub, err := crypto.MarshalPublicKey(&priv.PublicKey)
			if err != nil {
				return err
			}
			fmt.Printf("Identity created in %s.\nFingerprint: %s\n", home, crypto.Fingerprint(pub))
			return nil
		},
	}
}
