// Command parleyctl administers the credential store directly, without
// going through the relay. It is meant to be run on the server host while
// parleyd is stopped.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"parley/internal/audit"
	"parley/internal/credential"
	"parley/internal/domain"
)

var (
	storePath string
	auditPath string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "parleyctl",
		Short:         "Administer the Parley credential store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&storePath, "store", "data/users.db", "credential store path")
	root.PersistentFlags().StringVar(&auditPath, "audit", "data/audit.log", "audit log path")

	root.AddCommand(listCmd(), registerCmd(), resetPasswordCmd(), deactivateCmd(), infoCmd(), countCmd())
	return root
}

func openStore() (*credential.Store, error) {
	return credential.Open(storePath, audit.New(auditPath))
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			for _, info := range store.List() {
				state := "active"
				if !info.Active {
					state = "deactivated"
				}
				fmt.Printf("%-20s %-12s created %s\n",
					info.Username, state, info.CreatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register <username> <password>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			if err := store.Register(domain.Username(args[0]), args[1]); err != nil {
				return err
			}
			fmt.Printf("registered %s\n", args[0])
			return nil
		},
	}
}

func resetPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <username> <new-password>",
		Short: "Replace an account's password without knowing the old one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			name := domain.Username(args[0])
			if err := store.Deactivate(name); err != nil {
				return err
			}
			if err := store.Remove(name); err != nil {
				return err
			}
			if err := store.Register(name, args[1]); err != nil {
				return err
			}
			fmt.Printf("password reset for %s\n", args[0])
			return nil
		},
	}
}

func deactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <username>",
		Short: "Disable an account without removing its record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			if err := store.Deactivate(domain.Username(args[0])); err != nil {
				return err
			}
			fmt.Printf("deactivated %s\n", args[0])
			return nil
		},
	}
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <username>",
		Short: "Show one account's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			info, ok := store.Info(domain.Username(args[0]))
			if !ok {
				return credential.ErrUnknownUser
			}
			fmt.Println(info.Summary())
			return nil
		},
	}
}

func countCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of stored accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			fmt.Println(store.Count())
			return nil
		},
	}
}
