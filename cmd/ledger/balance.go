package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
)

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the total balance and a per-group breakdown",
		Long: `Show the balance of every group, of accounts outside any group, and the
total across all accounts that count toward it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			l, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			groups, err := l.ListGroups(ctx)
			if err != nil {
				return err
			}
			accounts, err := l.ListAccounts(ctx, nil)
			if err != nil {
				return err
			}

			currency := displayCurrency()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle("Balances"))

			w := newTable(out, "GROUP", "BALANCE")
			for _, g := range groups {
				balance, err := l.GroupBalance(ctx, g.ID)
				if err != nil {
					return fmt.Errorf("failed to compute balance of %s: %w", g.Name, err)
				}
				fmt.Fprintf(w, "%s\t%s\n", displayName(g.Icon, g.Name), cli.StyleAmount(balance, currency))
			}
			for _, a := range accounts {
				if a.GroupID != nil {
					continue
				}
				balance, err := l.AccountBalance(ctx, a.ID)
				if err != nil {
					return fmt.Errorf("failed to compute balance of %s: %w", a.Name, err)
				}
				label := displayName(a.Icon, a.Name) + cli.SubtleStyle.Render(" (no group)")
				if !a.IncludeInBalance {
					label += cli.SubtleStyle.Render(" (not in total)")
				}
				fmt.Fprintf(w, "%s\t%s\n", label, cli.StyleAmount(balance, currency))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			total, err := l.TotalBalance(ctx)
			if err != nil {
				return fmt.Errorf("failed to compute total: %w", err)
			}
			fmt.Fprintf(out, "\n%s %s\n", cli.BoldStyle.Render("Total:"), cli.StyleAmount(total, currency))
			return nil
		},
	}
}
