package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category"},
		Short:   "Manage transaction categories",
		Long:    `List, add, rename, and delete the categories used to label transactions.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(renameCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			l, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			categories, err := l.ListCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(categories) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No categories found. Use 'ledger categories add' to create one."))
				return nil
			}

			w := newTable(out, "ID", "NAME", "TRANSACTIONS")
			for _, c := range categories {
				txns, err := l.ListTransactions(ctx, service.TransactionFilter{CategoryID: &c.ID})
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%d\n", shortID(c.ID), displayName(c.Icon, c.Name), len(txns))
			}
			return w.Flush()
		},
	}
}

func addCategoryCmd() *cobra.Command {
	var icon, color string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			category := &model.Category{Name: args[0], Icon: icon, Color: color}
			if err := l.CreateCategory(ctx, category); err != nil {
				return fmt.Errorf("failed to create category: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created category %s (%s)", category.Name, shortID(category.ID))))
			return nil
		},
	}

	cmd.Flags().StringVar(&icon, "icon", "", "Icon shown next to the category name")
	cmd.Flags().StringVar(&color, "color", "", "Display color, e.g. #FF6B6B")

	return cmd
}

func renameCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <category> <new-name>",
		Short: "Rename a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			category, err := resolveCategory(ctx, l, args[0])
			if err != nil {
				return err
			}
			old := category.Name
			category.Name = args[1]
			if err := l.UpdateCategory(ctx, category); err != nil {
				return fmt.Errorf("failed to rename category: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Renamed %s to %s", old, category.Name)))
			return nil
		},
	}
}

func deleteCategoryCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <category>",
		Short: "Delete a category",
		Long:  `Delete a category. Transactions that used it are kept and become uncategorized.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			category, err := resolveCategory(ctx, l, args[0])
			if err != nil {
				return err
			}

			ok, err := confirm(cmd, fmt.Sprintf("Delete category %s?", category.Name), force)
			if err != nil || !ok {
				return err
			}

			res, err := l.DeleteCategory(ctx, category.ID)
			if err != nil {
				return fmt.Errorf("failed to delete category: %w", err)
			}

			printDeleteResult(cmd.OutOrStdout(), "category "+category.Name, res)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}
