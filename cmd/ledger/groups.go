package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/model"
)

func groupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "groups",
		Aliases: []string{"group"},
		Short:   "Manage account groups",
		Long:    `List, add, rename, and delete the groups that organize your accounts.`,
	}

	cmd.AddCommand(listGroupsCmd())
	cmd.AddCommand(addGroupCmd())
	cmd.AddCommand(renameGroupCmd())
	cmd.AddCommand(deleteGroupCmd())

	return cmd
}

func listGroupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List groups with their balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			l, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			groups, err := l.ListGroups(ctx)
			if err != nil {
				return fmt.Errorf("failed to list groups: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(groups) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No groups found. Use 'ledger groups add' to create one."))
				return nil
			}

			w := newTable(out, "ID", "NAME", "ACCOUNTS", "BALANCE")
			for _, g := range groups {
				accounts, err := l.ListAccounts(ctx, &g.ID)
				if err != nil {
					return err
				}
				balance, err := l.GroupBalance(ctx, g.ID)
				if err != nil {
					return fmt.Errorf("failed to compute balance of %s: %w", g.Name, err)
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
					shortID(g.ID), displayName(g.Icon, g.Name), len(accounts),
					cli.StyleAmount(balance, displayCurrency()))
			}
			return w.Flush()
		},
	}
}

func addGroupCmd() *cobra.Command {
	var icon, color string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			group := &model.AccountGroup{Name: args[0], Icon: icon, Color: color}
			if err := l.CreateGroup(ctx, group); err != nil {
				return fmt.Errorf("failed to create group: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created group %s (%s)", group.Name, shortID(group.ID))))
			return nil
		},
	}

	cmd.Flags().StringVar(&icon, "icon", "", "Icon shown next to the group name")
	cmd.Flags().StringVar(&color, "color", "", "Display color, e.g. #4ECDC4")

	return cmd
}

func renameGroupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <group> <new-name>",
		Short: "Rename a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			group, err := resolveGroup(ctx, l, args[0])
			if err != nil {
				return err
			}
			old := group.Name
			group.Name = args[1]
			if err := l.UpdateGroup(ctx, group); err != nil {
				return fmt.Errorf("failed to rename group: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Renamed %s to %s", old, group.Name)))
			return nil
		},
	}
}

func deleteGroupCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <group>",
		Short: "Delete a group and every account in it",
		Long: `Delete a group. Its accounts and their transactions are deleted too.
Transfers from other accounts into those accounts are kept but lose their target.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			group, err := resolveGroup(ctx, l, args[0])
			if err != nil {
				return err
			}
			accounts, err := l.ListAccounts(ctx, &group.ID)
			if err != nil {
				return err
			}

			prompt := fmt.Sprintf("Delete group %s and its %d account(s)?", group.Name, len(accounts))
			ok, err := confirm(cmd, prompt, force)
			if err != nil || !ok {
				return err
			}

			if err := autoCheckpoint(cmd, store, "delete-group"); err != nil {
				return err
			}

			res, err := l.DeleteGroup(ctx, group.ID)
			if err != nil {
				return fmt.Errorf("failed to delete group: %w", err)
			}

			printDeleteResult(cmd.OutOrStdout(), "group "+group.Name, res)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

func displayName(icon, name string) string {
	if icon == "" {
		return name
	}
	return icon + " " + name
}
