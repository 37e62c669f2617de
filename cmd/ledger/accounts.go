package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"account"},
		Short:   "Manage accounts",
		Long:    `List, add, update, move, reorder, and delete accounts, and inspect their balances.`,
	}

	cmd.AddCommand(listAccountsCmd())
	cmd.AddCommand(addAccountCmd())
	cmd.AddCommand(updateAccountCmd())
	cmd.AddCommand(moveAccountCmd())
	cmd.AddCommand(reorderAccountsCmd())
	cmd.AddCommand(deleteAccountCmd())
	cmd.AddCommand(accountBalanceCmd())
	cmd.AddCommand(accountHistoryCmd())

	return cmd
}

func listAccountsCmd() *cobra.Command {
	var groupRef string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts in display order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			l, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			var groupID *uuid.UUID
			if groupRef != "" {
				group, err := resolveGroup(ctx, l, groupRef)
				if err != nil {
					return err
				}
				groupID = &group.ID
			}

			accounts, err := l.ListAccounts(ctx, groupID)
			if err != nil {
				return fmt.Errorf("failed to list accounts: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(accounts) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No accounts found. Use 'ledger accounts add' to create one."))
				return nil
			}

			groups, err := l.ListGroups(ctx)
			if err != nil {
				return err
			}
			groupNames := make(map[uuid.UUID]string, len(groups))
			for _, g := range groups {
				groupNames[g.ID] = g.Name
			}

			w := newTable(out, "ID", "NAME", "GROUP", "KIND", "BALANCE", "IN TOTAL")
			for _, a := range accounts {
				balance, err := l.AccountBalance(ctx, a.ID)
				if err != nil {
					return fmt.Errorf("failed to compute balance of %s: %w", a.Name, err)
				}
				group := cli.SubtleStyle.Render("(none)")
				if a.GroupID != nil {
					group = groupNames[*a.GroupID]
				}
				included := "yes"
				if !a.IncludeInBalance {
					included = cli.SubtleStyle.Render("no")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					shortID(a.ID), displayName(a.Icon, a.Name), group, a.Kind,
					cli.StyleAmount(balance, displayCurrency()), included)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&groupRef, "group", "g", "", "Only list accounts in this group")

	return cmd
}

func parseKind(s string) (model.AccountKind, error) {
	kind := model.AccountKind(strings.ToLower(s))
	if !kind.IsValid() {
		names := make([]string, len(model.AccountKinds))
		for i, k := range model.AccountKinds {
			names[i] = string(k)
		}
		return "", common.NewUserError(
			fmt.Sprintf("unknown account kind %q, want one of %s", s, strings.Join(names, ", ")),
			common.ErrValidation)
	}
	return kind, nil
}

func addAccountCmd() *cobra.Command {
	var (
		groupRef string
		kind     string
		icon     string
		color    string
		exclude  bool
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			accountKind, err := parseKind(kind)
			if err != nil {
				return err
			}

			account := &model.Account{
				Name:             args[0],
				Kind:             accountKind,
				Icon:             icon,
				Color:            color,
				IncludeInBalance: !exclude,
			}
			if groupRef != "" {
				group, err := resolveGroup(ctx, l, groupRef)
				if err != nil {
					return err
				}
				account.GroupID = &group.ID
			}

			if err := l.CreateAccount(ctx, account); err != nil {
				return fmt.Errorf("failed to create account: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created account %s (%s)", account.Name, shortID(account.ID))))
			return nil
		},
	}

	cmd.Flags().StringVarP(&groupRef, "group", "g", "", "Group the account belongs to")
	cmd.Flags().StringVarP(&kind, "kind", "k", string(model.AccountKindOffline), "Account kind")
	cmd.Flags().StringVar(&icon, "icon", "", "Icon shown next to the account name")
	cmd.Flags().StringVar(&color, "color", "", "Display color, e.g. #4ECDC4")
	cmd.Flags().BoolVar(&exclude, "exclude-from-total", false, "Leave this account out of group and total balances")

	return cmd
}

func updateAccountCmd() *cobra.Command {
	var (
		name    string
		kind    string
		icon    string
		color   string
		include bool
	)

	cmd := &cobra.Command{
		Use:   "update <account>",
		Short: "Change an account's name, kind, style, or balance inclusion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			account, err := resolveAccount(ctx, l, args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("name") {
				account.Name = name
			}
			if flags.Changed("kind") {
				if account.Kind, err = parseKind(kind); err != nil {
					return err
				}
			}
			if flags.Changed("icon") {
				account.Icon = icon
			}
			if flags.Changed("color") {
				account.Color = color
			}
			if flags.Changed("include-in-total") {
				account.IncludeInBalance = include
			}

			if err := l.UpdateAccount(ctx, account); err != nil {
				return fmt.Errorf("failed to update account: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Updated account "+account.Name))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "New account kind")
	cmd.Flags().StringVar(&icon, "icon", "", "New icon")
	cmd.Flags().StringVar(&color, "color", "", "New display color")
	cmd.Flags().BoolVar(&include, "include-in-total", true, "Whether group and total balances count this account")

	return cmd
}

func moveAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <account> [group]",
		Short: "Move an account to another group, or out of any group",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			account, err := resolveAccount(ctx, l, args[0])
			if err != nil {
				return err
			}

			var groupID *uuid.UUID
			target := "no group"
			if len(args) == 2 {
				group, err := resolveGroup(ctx, l, args[1])
				if err != nil {
					return err
				}
				groupID = &group.ID
				target = group.Name
			}

			if err := l.MoveAccount(ctx, account.ID, groupID); err != nil {
				return fmt.Errorf("failed to move account: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Moved %s to %s", account.Name, target)))
			return nil
		},
	}
}

func reorderAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <account>...",
		Short: "Set the display order of accounts",
		Long: `Give the named accounts display positions in the order listed.
Accounts not named keep their current position.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			ids := make([]uuid.UUID, 0, len(args))
			for _, ref := range args {
				account, err := resolveAccount(ctx, l, ref)
				if err != nil {
					return err
				}
				ids = append(ids, account.ID)
			}

			if err := l.ReorderAccounts(ctx, ids); err != nil {
				return fmt.Errorf("failed to reorder accounts: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Reordered %d account(s)", len(ids))))
			return nil
		},
	}
}

func deleteAccountCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <account>",
		Short: "Delete an account and its transactions",
		Long: `Delete an account with every transaction it owns, including transfers it
sent. Transfers other accounts sent into it are kept but lose their target.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			account, err := resolveAccount(ctx, l, args[0])
			if err != nil {
				return err
			}

			ok, err := confirm(cmd, fmt.Sprintf("Delete account %s and its transactions?", account.Name), force)
			if err != nil || !ok {
				return err
			}

			if err := autoCheckpoint(cmd, store, "delete-account"); err != nil {
				return err
			}

			res, err := l.DeleteAccount(ctx, account.ID)
			if err != nil {
				return fmt.Errorf("failed to delete account: %w", err)
			}

			printDeleteResult(cmd.OutOrStdout(), "account "+account.Name, res)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

func accountBalanceCmd() *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "balance <account>",
		Short: "Show an account's balance, optionally as of a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			account, err := resolveAccount(ctx, l, args[0])
			if err != nil {
				return err
			}

			label := "today"
			balance, err := l.AccountBalance(ctx, account.ID)
			if asOf != "" {
				date, perr := parseDate(asOf)
				if perr != nil {
					return perr
				}
				// Include everything dated on the requested day.
				balance, err = l.RunningBalance(ctx, account.ID, endOfDay(date))
				label = "as of " + asOf
			}
			if err != nil {
				return fmt.Errorf("failed to compute balance: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cli.BoldStyle.Render(account.Name+" "+label+":"),
				cli.StyleAmount(balance, displayCurrency()))
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "Only count transactions dated on or before YYYY-MM-DD")

	return cmd
}

func accountHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <account>",
		Short: "Show an account's running balance transaction by transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			account, err := resolveAccount(ctx, l, args[0])
			if err != nil {
				return err
			}

			points, err := l.BalanceHistory(ctx, account.ID)
			if err != nil {
				return fmt.Errorf("failed to load history: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(points) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No transactions yet."))
				return nil
			}

			currency := displayCurrency()
			w := newTable(out, "DATE", "TRANSACTION", "CHANGE", "BALANCE")
			for _, p := range points {
				change := cli.StyleAmount(p.Change, currency)
				if p.Excluded {
					change = cli.SubtleStyle.Render("excluded")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					formatDay(p.Date), shortID(p.TransactionID), change,
					cli.FormatAmount(p.Balance, currency))
			}
			return w.Flush()
		},
	}
}
