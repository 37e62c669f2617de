package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/ofx"
)

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ofx <files...>",
		Short: "Import postings from OFX/QFX statements into an account",
		Long: `Import bank or credit card statement lines from OFX or QFX files as income
and expense postings on one account. Lines already imported are skipped.`,
		Example: `  # Import a month of checking activity
  ledger import-ofx ~/Downloads/chase_jan_2024.qfx --account Checking

  # Import every statement in a directory, previewing first
  ledger import-ofx ~/Downloads/Chase/*.qfx --account Checking --dry-run

  # Pick one account out of a multi-account export
  ledger import-ofx export.ofx --account Visa --statement 4111000011110000`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	cmd.Flags().StringP("account", "a", "", "Account to import into (required)")
	cmd.Flags().String("statement", "", "Only import statements for this institution account number")
	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")
	cmd.Flags().BoolP("verbose", "v", false, "Show each parsed posting")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}
	return files, nil
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	accountRef, _ := cmd.Flags().GetString("account")
	statementFilter, _ := cmd.Flags().GetString("statement")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")

	files, err := expandFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found to import")
	}

	ctx := cmd.Context()
	l, store, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	account, err := resolveAccount(ctx, l, accountRef)
	if err != nil {
		return err
	}

	slog.Info("Importing OFX files", "file_count", len(files), "account", account.Name, "dry_run", dryRun)

	parser := ofx.NewParser()
	out := cmd.OutOrStdout()
	currency := displayCurrency()
	var postings []model.Transaction

	for _, path := range files {
		data, err := os.ReadFile(path) // #nosec G304 - user-supplied statement file
		if err != nil {
			common.LogError(ctx, err, "Failed to read file", common.Fields{"file": path})
			continue
		}
		statements, err := parser.ParseFile(ctx, bytes.NewReader(data))
		if err != nil {
			common.LogError(ctx, err, "Failed to parse OFX file", common.Fields{"file": path})
			continue
		}

		found, matched := 0, false
		for _, stmt := range statements {
			if statementFilter != "" && stmt.AccountNumber != statementFilter {
				continue
			}
			matched = true
			if stmt.Currency != "" && stmt.Currency != currency {
				slog.Warn("Statement currency differs from display currency",
					"file", filepath.Base(path), "statement_currency", stmt.Currency, "display_currency", currency)
			}
			found += len(stmt.Postings)
			postings = append(postings, stmt.Postings...)
		}
		fmt.Fprintf(out, "  %s %s: %d posting(s)\n", cli.FolderIcon, filepath.Base(path), found)

		if statementFilter != "" && !matched {
			numbers, err := parser.GetAccounts(ctx, bytes.NewReader(data))
			if err != nil {
				common.LogError(ctx, err, "Failed to list statement accounts", common.Fields{"file": path})
				continue
			}
			fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("No statement for %s; file has: %s",
				statementFilter, strings.Join(numbers, ", "))))
		}
	}

	if len(postings) == 0 {
		slog.Warn("No postings found in any file")
		return nil
	}

	if verbose || dryRun {
		w := newTable(out, "DATE", "TYPE", "AMOUNT", "NOTE", "USAGE")
		for _, p := range postings {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				formatDay(p.Date), p.Type,
				cli.StyleAmount(model.NormalizeAmount(p.Type, p.Amount), currency), p.Note, p.Usage)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if dryRun {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Dry run: %d posting(s) would be offered to %s", len(postings), account.Name)))
		return nil
	}

	imported, err := l.ImportPostings(ctx, account.ID, postings)
	if err != nil {
		return fmt.Errorf("failed to import postings: %w", err)
	}

	summary := fmt.Sprintf("Imported %d new posting(s) into %s", imported, account.Name)
	if skipped := len(postings) - imported; skipped > 0 {
		summary += "\n" + cli.SubtleStyle.Render(fmt.Sprintf("%d already imported", skipped))
	}
	fmt.Fprintln(out, cli.RenderBox("Import complete", summary))
	return nil
}
