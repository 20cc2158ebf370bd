package main

import (
	"fmt"

	"github.com/spf13/cobra"

	id "classreg/pkg/domain"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Work with registry account ids",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "derive <seed>",
		Short: "Print the account id derived from seed",
		Long:  "Derive a 32-byte account id from a seed string. Use the output as REGISTRY_OWNER or as a token subject.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), id.DeriveAccountID(args[0]).String())
			return err
		},
	})
	return cmd
}
