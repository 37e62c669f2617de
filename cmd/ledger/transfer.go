package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/ledger"
)

func transferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move money between two accounts",
		Long: `Create, edit, and delete transfers. A transfer is one record owned by the
source account; the destination sees it as an inflow.`,
		Example: `  # Move savings into checking
  ledger transfer create Savings Checking 250 --note "rent top-up"

  # Point an existing transfer at another account
  ledger transfer edit 1f3a9c2e --to Brokerage`,
	}

	cmd.AddCommand(createTransferCmd())
	cmd.AddCommand(editTransferCmd())
	cmd.AddCommand(deleteTransferCmd())

	return cmd
}

func createTransferCmd() *cobra.Command {
	var (
		categoryRef string
		note        string
		usage       string
		date        string
	)

	cmd := &cobra.Command{
		Use:   "create <from> <to> <amount>",
		Short: "Record a transfer",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			source, err := resolveAccount(ctx, l, args[0])
			if err != nil {
				return err
			}
			destination, err := resolveAccount(ctx, l, args[1])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			when, err := parseDate(date)
			if err != nil {
				return err
			}
			categoryID, err := resolveOptionalCategory(ctx, l, categoryRef)
			if err != nil {
				return err
			}

			txn, err := l.CreateTransfer(ctx, ledger.TransferRequest{
				Source:      source.ID,
				Destination: destination.ID,
				Amount:      amount,
				CategoryID:  categoryID,
				Date:        when,
				Note:        note,
				Usage:       usage,
			})
			if err != nil {
				return fmt.Errorf("failed to create transfer: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Transferred %s from %s %s %s (%s)",
				cli.FormatAmount(amount, displayCurrency()), source.Name, cli.TransferIcon, destination.Name, shortID(txn.ID))))
			return nil
		},
	}

	cmd.Flags().StringVarP(&categoryRef, "category", "c", "", "Category name or ID")
	cmd.Flags().StringVarP(&note, "note", "n", "", "Free-form note")
	cmd.Flags().StringVar(&usage, "usage", "", "Purpose or payment method")
	cmd.Flags().StringVarP(&date, "date", "d", "", "Date as YYYY-MM-DD (default: now)")

	return cmd
}

func editTransferCmd() *cobra.Command {
	var (
		amount  string
		from    string
		to      string
		date    string
		note    string
		usage   string
		exclude bool
	)

	cmd := &cobra.Command{
		Use:   "edit <transfer>",
		Short: "Change a transfer",
		Long: `Change fields of a transfer. Only flags you pass are changed. A transfer
whose destination was deleted needs --to before it can be edited.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			txn, err := resolveTransaction(ctx, l, args[0])
			if err != nil {
				return err
			}
			if !txn.IsTransfer() {
				return common.NewUserError("this is not a transfer; use 'ledger transactions edit'", ledger.ErrNotTransfer)
			}

			var edit ledger.TransferEdit
			flags := cmd.Flags()
			if flags.Changed("amount") {
				value, err := parseAmount(amount)
				if err != nil {
					return err
				}
				edit.Amount = &value
			}
			if flags.Changed("from") {
				account, err := resolveAccount(ctx, l, from)
				if err != nil {
					return err
				}
				edit.Source = &account.ID
			}
			if flags.Changed("to") {
				account, err := resolveAccount(ctx, l, to)
				if err != nil {
					return err
				}
				edit.Destination = &account.ID
			}
			if flags.Changed("date") {
				when, err := parseDate(date)
				if err != nil {
					return err
				}
				edit.Date = &when
			}
			if flags.Changed("note") {
				edit.Note = &note
			}
			if flags.Changed("usage") {
				edit.Usage = &usage
			}
			if flags.Changed("exclude") {
				edit.ExcludeFromBalance = &exclude
			}

			updated, err := l.EditTransfer(ctx, txn.ID, edit)
			if err != nil {
				return fmt.Errorf("failed to edit transfer: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated transfer %s: %s",
				shortID(updated.ID), cli.FormatAmount(updated.Amount.Abs(), displayCurrency()))))
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "New amount")
	cmd.Flags().StringVar(&from, "from", "", "New source account")
	cmd.Flags().StringVar(&to, "to", "", "New destination account")
	cmd.Flags().StringVarP(&date, "date", "d", "", "New date, YYYY-MM-DD")
	cmd.Flags().StringVarP(&note, "note", "n", "", "New note")
	cmd.Flags().StringVar(&usage, "usage", "", "New usage")
	cmd.Flags().BoolVar(&exclude, "exclude", false, "Exclude from or include in balances")

	return cmd
}

func deleteTransferCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <transfer>",
		Short: "Delete a transfer, reverting both accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			txn, err := resolveTransaction(ctx, l, args[0])
			if err != nil {
				return err
			}

			prompt := fmt.Sprintf("Delete transfer of %s dated %s?",
				cli.FormatAmount(txn.Amount.Abs(), displayCurrency()), formatDay(txn.Date))
			ok, err := confirm(cmd, prompt, force)
			if err != nil || !ok {
				return err
			}

			if err := l.DeleteTransfer(ctx, txn.ID); err != nil {
				return fmt.Errorf("failed to delete transfer: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted transfer "+shortID(txn.ID)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}
