package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fiattoken/crypto"
)

func keysCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage operator keystores",
	}

	var force bool
	create := &cobra.Command{
		Use:   "new <name>",
		Short: "Generate a key and write it to an encrypted keystore",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			path := a.keystorePath(positional[0])
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("keystore %s already exists (use --force to overwrite)", path)
			}
			secret, err := a.secrets.Get()
			if err != nil {
				return err
			}
			key, err := crypto.GeneratePrivateKey()
			if err != nil {
				return err
			}
			if err := crypto.SaveToKeystore(path, key, secret); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{
				"account":  key.PubKey().Address().String(),
				"keystore": path,
			})
		},
	}
	create.Flags().BoolVar(&force, "force", false, "overwrite an existing keystore")

	show := &cobra.Command{
		Use:   "show <name>",
		Short: "Print the account held by a keystore",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			account, err := a.signer(positional[0], "")
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{
				"account":  account,
				"keystore": a.keystorePath(positional[0]),
			})
		},
	}

	cmd.AddCommand(create, show)
	return cmd
}
