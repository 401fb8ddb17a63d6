package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/owleyeart/bba/pkg/gettoken/acquire"
	"github.com/owleyeart/bba/pkg/gettoken/output"
)

func NewAccountsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List accounts cached for the active profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			format, err := rt.OutputFormat()
			if err != nil {
				return err
			}
			client, _, err := rt.IdentityClient()
			if err != nil {
				return err
			}
			accounts, err := client.Accounts(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list cached accounts: %w", err)
			}
			if format.Structured() {
				if accounts == nil {
					accounts = []acquire.Account{}
				}
				return output.WriteObject(rt.Writer(), format, accounts)
			}
			output.WriteAccountTable(rt.Writer(), accounts)
			return nil
		},
	}
}

func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove cached accounts and tokens for the active profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			client, cc, err := rt.IdentityClient()
			if err != nil {
				return err
			}
			remover, ok := client.(acquire.AccountRemover)
			if !ok {
				return fmt.Errorf("identity client %T cannot remove accounts", client)
			}
			accounts, err := client.Accounts(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list cached accounts: %w", err)
			}
			for _, a := range accounts {
				if err := remover.RemoveAccount(cmd.Context(), a); err != nil {
					return fmt.Errorf("failed to remove account %s: %w", a.ID, err)
				}
				rt.log.Infow("Removed cached account", "profile", cc.Profile, "account", a.ID)
			}
			if len(accounts) == 0 {
				_, _ = fmt.Fprintln(rt.Writer(), "No cached accounts")
				return nil
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Logged out %d account(s) from profile %s\n", len(accounts), cc.Profile)
			return nil
		},
	}
}
