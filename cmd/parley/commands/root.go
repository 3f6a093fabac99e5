package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	home   string
	server string
	proof  bool
)

func Execute() error {
	root := &cobra.Command{
		Use:   "parley",
		Short: "Encrypted chat client",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".parley")
			}
			return os.MkdirAll(home, 0o700)
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "key dir (default ~/.parley)")
	root.PersistentFlags().StringVarP(&server, "server", "s", "127.0.0.1:7723", "server address")
	root.PersistentFlags().BoolVar(&proof, "proof", true, "run the key-possession proof (must match the server)")

	root.AddCommand(connectCmd(), keygenCmd(), fingerprintCmd())
	return root.Execute()
}
