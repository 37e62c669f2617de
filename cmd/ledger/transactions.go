package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txn", "txns"},
		Short:   "List and change recorded transactions",
	}

	cmd.AddCommand(listTransactionsCmd())
	cmd.AddCommand(editPostingCmd())
	cmd.AddCommand(deleteTransactionCmd())
	cmd.AddCommand(recategorizeCmd())

	return cmd
}

func postCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Record income or an expense against one account",
		Example: `  # Salary into checking
  ledger post income Checking 2500 --category Salary --date 2024-03-01

  # Groceries paid in cash
  ledger post expense Wallet 42.17 --category Groceries --note "farmers market"`,
	}

	cmd.AddCommand(postTypeCmd(model.TransactionTypeIncome, "Record money coming into an account"))
	cmd.AddCommand(postTypeCmd(model.TransactionTypeExpense, "Record money leaving an account"))

	return cmd
}

func postTypeCmd(typ model.TransactionType, short string) *cobra.Command {
	var (
		categoryRef string
		note        string
		usage       string
		date        string
		exclude     bool
	)

	cmd := &cobra.Command{
		Use:   string(typ) + " <account> <amount>",
		Short: short,
		Long: short + `. The amount is entered without a sign; expenses are stored
as negative amounts.`,
		Args: cobra.ExactArgs(2),
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
			amount, err := parseAmount(args[1])
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

			txn, err := l.CreateSimplePosting(ctx, ledger.PostingRequest{
				Type:               typ,
				Account:            account.ID,
				Amount:             amount,
				CategoryID:         categoryID,
				Date:               when,
				Note:               note,
				Usage:              usage,
				ExcludeFromBalance: exclude,
			})
			if err != nil {
				return fmt.Errorf("failed to record %s: %w", typ, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Recorded %s of %s on %s (%s)",
				typ, cli.FormatAmount(txn.Amount.Abs(), displayCurrency()), account.Name, shortID(txn.ID))))
			return nil
		},
	}

	cmd.Flags().StringVarP(&categoryRef, "category", "c", "", "Category name or ID")
	cmd.Flags().StringVarP(&note, "note", "n", "", "Free-form note")
	cmd.Flags().StringVar(&usage, "usage", "", "Purpose or payment method")
	cmd.Flags().StringVarP(&date, "date", "d", "", "Date as YYYY-MM-DD (default: now)")
	cmd.Flags().BoolVar(&exclude, "exclude", false, "Record it without affecting the balance")

	return cmd
}

func listTransactionsCmd() *cobra.Command {
	var (
		accountRef    string
		categoryRef   string
		from          string
		to            string
		types         []string
		uncategorized bool
		limit         int
		offset        int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, oldest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			l, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			filter := service.TransactionFilter{
				Uncategorized: uncategorized,
				Limit:         limit,
				Offset:        offset,
			}

			var account *model.Account
			if accountRef != "" {
				if account, err = resolveAccount(ctx, l, accountRef); err != nil {
					return err
				}
				filter.AccountID = &account.ID
				filter.IncludeTargeted = true
			}
			if categoryRef != "" {
				if filter.CategoryID, err = resolveOptionalCategory(ctx, l, categoryRef); err != nil {
					return err
				}
			}
			if from != "" {
				start, err := parseDate(from)
				if err != nil {
					return err
				}
				filter.StartDate = &start
			}
			if to != "" {
				end, err := parseDate(to)
				if err != nil {
					return err
				}
				end = endOfDay(end)
				filter.EndDate = &end
			}
			for _, t := range types {
				typ := model.TransactionType(strings.ToLower(t))
				if !typ.IsValid() {
					return common.NewUserError(fmt.Sprintf("unknown transaction type %q", t), common.ErrValidation)
				}
				filter.Types = append(filter.Types, typ)
			}

			txns, err := l.ListTransactions(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(txns) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No transactions match."))
				return nil
			}

			names, err := lookupNames(cmd, l)
			if err != nil {
				return err
			}

			currency := displayCurrency()
			w := newTable(out, "DATE", "ID", "TYPE", "ACCOUNT", "CATEGORY", "AMOUNT", "NOTE")
			for i := range txns {
				txn := &txns[i]
				amount := txn.Amount
				if account != nil && txn.Targets(account.ID) {
					amount = amount.Abs()
				}
				styled := cli.StyleAmount(amount, currency)
				if txn.ExcludeFromBalance {
					styled = cli.SubtleStyle.Render(cli.FormatAmount(amount, currency) + " (excluded)")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					formatDay(txn.Date), shortID(txn.ID), txn.Type,
					names.describeAccounts(txn), names.category(txn.CategoryID),
					styled, txn.Note)
			}
			return w.Flush()
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&accountRef, "account", "a", "", "Only transactions owned by or transferred into this account")
	flags.StringVarP(&categoryRef, "category", "c", "", "Only transactions in this category")
	flags.BoolVar(&uncategorized, "uncategorized", false, "Only transactions without a category")
	flags.StringVar(&from, "from", "", "Earliest date, YYYY-MM-DD")
	flags.StringVar(&to, "to", "", "Latest date, YYYY-MM-DD")
	flags.StringSliceVarP(&types, "type", "t", nil, "Only these types (income, expense, transfer)")
	flags.IntVarP(&limit, "limit", "l", 0, "Maximum number of rows")
	flags.IntVar(&offset, "offset", 0, "Rows to skip")

	return cmd
}

// nameIndex maps IDs to display names for table output.
type nameIndex struct {
	accounts   map[uuid.UUID]string
	categories map[uuid.UUID]string
}

func lookupNames(cmd *cobra.Command, l *ledger.Ledger) (*nameIndex, error) {
	ctx := cmd.Context()
	accounts, err := l.ListAccounts(ctx, nil)
	if err != nil {
		return nil, err
	}
	categories, err := l.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	idx := &nameIndex{
		accounts:   make(map[uuid.UUID]string, len(accounts)),
		categories: make(map[uuid.UUID]string, len(categories)),
	}
	for _, a := range accounts {
		idx.accounts[a.ID] = a.Name
	}
	for _, c := range categories {
		idx.categories[c.ID] = c.Name
	}
	return idx, nil
}

func (n *nameIndex) describeAccounts(txn *model.Transaction) string {
	source := n.accounts[txn.AccountID]
	if !txn.IsTransfer() {
		return source
	}
	target := cli.SubtleStyle.Render("(deleted)")
	if txn.TargetAccountID != nil {
		target = n.accounts[*txn.TargetAccountID]
	}
	return source + " " + cli.TransferIcon + " " + target
}

func (n *nameIndex) category(id *uuid.UUID) string {
	if id == nil {
		return cli.SubtleStyle.Render("-")
	}
	return n.categories[*id]
}

func editPostingCmd() *cobra.Command {
	var (
		amount  string
		typ     string
		date    string
		note    string
		usage   string
		exclude bool
	)

	cmd := &cobra.Command{
		Use:   "edit <transaction>",
		Short: "Change an income or expense posting",
		Long: `Change fields of an income or expense. Only flags you pass are changed.
Use 'ledger transfer edit' for transfers.`,
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
			if txn.IsTransfer() {
				return common.NewUserError("this is a transfer; use 'ledger transfer edit'", ledger.ErrNotPosting)
			}

			var edit ledger.PostingEdit
			flags := cmd.Flags()
			if flags.Changed("amount") {
				value, err := parseAmount(amount)
				if err != nil {
					return err
				}
				edit.Amount = &value
			}
			if flags.Changed("type") {
				t := model.TransactionType(strings.ToLower(typ))
				edit.Type = &t
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

			updated, err := l.UpdatePosting(ctx, txn.ID, edit)
			if err != nil {
				return fmt.Errorf("failed to edit transaction: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated %s %s: %s",
				updated.Type, shortID(updated.ID), cli.FormatAmount(updated.Amount, displayCurrency()))))
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "New amount, without sign")
	cmd.Flags().StringVarP(&typ, "type", "t", "", "New type: income or expense")
	cmd.Flags().StringVarP(&date, "date", "d", "", "New date, YYYY-MM-DD")
	cmd.Flags().StringVarP(&note, "note", "n", "", "New note")
	cmd.Flags().StringVar(&usage, "usage", "", "New usage")
	cmd.Flags().BoolVar(&exclude, "exclude", false, "Exclude from or include in the balance")

	return cmd
}

func deleteTransactionCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <transaction>",
		Short: "Delete a posting or transfer",
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

			prompt := fmt.Sprintf("Delete %s of %s dated %s?", txn.Type,
				cli.FormatAmount(txn.Amount.Abs(), displayCurrency()), formatDay(txn.Date))
			ok, err := confirm(cmd, prompt, force)
			if err != nil || !ok {
				return err
			}

			if err := l.DeleteTransaction(ctx, txn.ID); err != nil {
				return fmt.Errorf("failed to delete transaction: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted "+shortID(txn.ID)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

func recategorizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recategorize <transaction> [category]",
		Short: "Set or clear a transaction's category",
		Long:  `Assign a category to a transaction. Leave the category out to clear it.`,
		Args:  cobra.RangeArgs(1, 2),
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

			var categoryID *uuid.UUID
			label := "uncategorized"
			if len(args) == 2 {
				category, err := resolveCategory(ctx, l, args[1])
				if err != nil {
					return err
				}
				categoryID = &category.ID
				label = category.Name
			}

			if err := l.ReassignCategory(ctx, txn.ID, categoryID); err != nil {
				return fmt.Errorf("failed to recategorize: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s is now %s", shortID(txn.ID), label)))
			return nil
		},
	}
}

