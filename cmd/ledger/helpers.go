package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/Veraticus/spice-ledger/internal/storage"
)

const dateLayout = "2006-01-02"

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	if appConfig == nil {
		return nil, fmt.Errorf("%w: configuration not loaded", common.ErrMissingConfig)
	}

	store, err := storage.NewSQLiteStorage(appConfig.DatabasePath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// openLedger returns a ledger over the configured database. Close the
// returned store when done.
func openLedger(ctx context.Context) (*ledger.Ledger, *storage.SQLiteStorage, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, nil, err
	}
	return ledger.New(store), store, nil
}

func displayCurrency() string {
	if appConfig == nil {
		return "USD"
	}
	return appConfig.Currency
}

// newTable starts a tab-aligned table with a styled header row.
func newTable(w io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	styled := make([]string, len(headers))
	for i, h := range headers {
		styled[i] = headerStyle.Render(h)
	}
	fmt.Fprintln(tw, strings.Join(styled, "\t"))
	return tw
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

// resolve picks the item whose ID or case-insensitive name matches ref.
// A unique ID prefix of at least eight characters also matches.
func resolve[T any](kind, ref string, items []T, id func(T) uuid.UUID, name func(T) string) (T, error) {
	var zero T

	if parsed, err := uuid.Parse(ref); err == nil {
		for _, item := range items {
			if id(item) == parsed {
				return item, nil
			}
		}
		return zero, common.NewUserError(fmt.Sprintf("no %s with ID %s", kind, ref), common.ErrNotFound)
	}

	var matches []T
	for _, item := range items {
		if strings.EqualFold(name(item), ref) {
			matches = append(matches, item)
		}
	}
	if len(matches) == 0 && len(ref) >= 8 {
		for _, item := range items {
			if strings.HasPrefix(id(item).String(), strings.ToLower(ref)) {
				matches = append(matches, item)
			}
		}
	}

	switch len(matches) {
	case 0:
		return zero, common.NewUserError(fmt.Sprintf("no %s named %q", kind, ref), common.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return zero, common.NewUserError(fmt.Sprintf("%q matches %d %ss; use the ID instead", ref, len(matches), kind), common.ErrValidation)
	}
}

func resolveGroup(ctx context.Context, l *ledger.Ledger, ref string) (*model.AccountGroup, error) {
	groups, err := l.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	group, err := resolve("group", ref, groups,
		func(g model.AccountGroup) uuid.UUID { return g.ID },
		func(g model.AccountGroup) string { return g.Name })
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func resolveAccount(ctx context.Context, l *ledger.Ledger, ref string) (*model.Account, error) {
	accounts, err := l.ListAccounts(ctx, nil)
	if err != nil {
		return nil, err
	}
	account, err := resolve("account", ref, accounts,
		func(a model.Account) uuid.UUID { return a.ID },
		func(a model.Account) string { return a.Name })
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func resolveCategory(ctx context.Context, l *ledger.Ledger, ref string) (*model.Category, error) {
	categories, err := l.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	category, err := resolve("category", ref, categories,
		func(c model.Category) uuid.UUID { return c.ID },
		func(c model.Category) string { return c.Name })
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// resolveOptionalCategory returns nil for an empty reference.
func resolveOptionalCategory(ctx context.Context, l *ledger.Ledger, ref string) (*uuid.UUID, error) {
	if ref == "" {
		return nil, nil
	}
	category, err := resolveCategory(ctx, l, ref)
	if err != nil {
		return nil, err
	}
	return &category.ID, nil
}

// resolveTransaction finds a transaction by full ID or by a unique prefix
// of at least eight characters, as printed by the list commands.
func resolveTransaction(ctx context.Context, l *ledger.Ledger, ref string) (*model.Transaction, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return l.GetTransaction(ctx, id)
	}
	if len(ref) < 8 {
		return nil, common.NewUserError("transaction reference must be an ID or an 8+ character ID prefix", common.ErrValidation)
	}

	txns, err := l.ListTransactions(ctx, service.TransactionFilter{})
	if err != nil {
		return nil, err
	}
	txn, err := resolve("transaction", ref, txns,
		func(t model.Transaction) uuid.UUID { return t.ID },
		func(model.Transaction) string { return "" })
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, common.NewUserError(fmt.Sprintf("invalid amount %q", s), common.ErrValidation)
	}
	return amount, nil
}

// parseDate reads a YYYY-MM-DD date as midnight in the local zone, the zone
// the ledger's clock stamps undated transactions in. An empty string yields
// the zero time, which the ledger replaces with now.
func parseDate(s string) (time.Time, error) {
	return parseDateIn(s, time.Local)
}

func parseDateIn(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	date, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, common.NewUserError(fmt.Sprintf("invalid date %q, want YYYY-MM-DD", s), common.ErrValidation)
	}
	return date, nil
}

// endOfDay returns the last instant of the calendar day that starts at day.
func endOfDay(day time.Time) time.Time {
	return day.AddDate(0, 0, 1).Add(-1)
}

// formatDay renders t as a local calendar day.
func formatDay(t time.Time) string {
	return t.In(time.Local).Format(dateLayout)
}

// confirm asks before a destructive step unless force is set.
func confirm(cmd *cobra.Command, prompt string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	reader := cli.NewNonBlockingReader(cmd.InOrStdin())
	ok, err := reader.Confirm(cmd.Context(), cmd.OutOrStdout(), prompt)
	if err != nil {
		return false, err
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), cli.SubtleStyle.Render("Cancelled."))
	}
	return ok, nil
}

// autoCheckpoint snapshots the database before a cascading delete when
// checkpoints.auto is enabled. Failure to snapshot aborts the delete.
func autoCheckpoint(cmd *cobra.Command, store *storage.SQLiteStorage, operation string) error {
	if appConfig == nil || !appConfig.AutoCheckpoint {
		return nil
	}

	manager, err := store.NewCheckpointManager()
	if err != nil {
		return fmt.Errorf("failed to create checkpoint manager: %w", err)
	}
	info, err := manager.AutoCheckpoint(cmd.Context(), operation)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.SubtleStyle.Render("Saved checkpoint "+info.ID))
	return nil
}

func printDeleteResult(w io.Writer, what string, res *service.DeleteResult) {
	fmt.Fprintln(w, cli.FormatSuccess("Deleted "+what))

	lines := []struct {
		label string
		count int
	}{
		{"accounts", res.AccountsDeleted},
		{"transactions", res.TransactionsDeleted},
		{"transfers detached from their target", res.TransfersDetached},
		{"categorized transactions left uncategorized", res.CategoriesCleared},
	}
	for _, line := range lines {
		if line.count > 0 {
			fmt.Fprintf(w, "  %d %s\n", line.count, line.label)
		}
	}

	if res.TransfersLost > 0 {
		fmt.Fprintln(w, cli.FormatWarning(fmt.Sprintf(
			"%d transfer(s) into surviving accounts were removed with their source; those balances dropped accordingly",
			res.TransfersLost)))
	}
}

// formatCommandError renders err for the terminal, prefixed by its kind.
func formatCommandError(err error) string {
	var userErr *common.UserError
	if errors.As(err, &userErr) {
		return cli.FormatError(userErr.UserMessage)
	}
	return cli.FormatError(fmt.Sprintf("%s: %v", common.Describe(err), err))
}

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func formatRelativeTime(t time.Time) string {
	duration := time.Since(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		minutes := int(duration.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	case duration < 24*time.Hour:
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case duration < 7*24*time.Hour:
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "yesterday"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}
