package main

import (
	"github.com/spf13/cobra"

	"fiattoken/crypto"
)

func aliasCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alias",
		Short: "Name accounts in the local address book",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <name> <account>",
		Short: "Bind a name to an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, positional []string) error {
			account, err := crypto.ParseAccount(positional[1])
			if err != nil {
				return err
			}
			book, err := a.addressBook()
			if err != nil {
				return err
			}
			alias, err := book.SetAlias(positional[0], account, a.now())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), alias)
		},
	}, &cobra.Command{
		Use:   "list",
		Short: "List every alias",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			book, err := a.addressBook()
			if err != nil {
				return err
			}
			aliases, err := book.Aliases()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), aliases)
		},
	}, &cobra.Command{
		Use:   "rm <name>",
		Short: "Remove an alias",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, positional []string) error {
			book, err := a.addressBook()
			if err != nil {
				return err
			}
			return book.RemoveAlias(positional[0])
		},
	})
	return cmd
}
