package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Halewood/shoebox/internal/cli"
	"github.com/Halewood/shoebox/internal/model"
)

func statusesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "statuses",
		Short: "Manage the document status list",
		Long: `Statuses are plain ordered strings owned by you, not a fixed enum.
The first status in the list is the default for new records.`,
	}

	cmd.AddCommand(statusesListCmd())
	cmd.AddCommand(statusesAddCmd())
	cmd.AddCommand(statusesRemoveCmd())
	cmd.AddCommand(statusesReorderCmd())

	return cmd
}

func statusesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the statuses in order",
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := initApp()
			if err != nil {
				return err
			}
			defer a.Close()

			for i, status := range a.registry.List() {
				line := fmt.Sprintf("%2d. %s", i+1, status)
				if i == 0 {
					line += cli.SubtleStyle.Render("  (default)")
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}

func statusesAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Append a new status",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			a, err := initApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.registry.Add(args[0]); err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Added status %q", args[0])))
			return nil
		},
	}
}

func statusesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a status",
		Long: `Remove a status from the list. Documents currently using it are moved
to the default status first; the last remaining status cannot be removed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := initApp()
			if err != nil {
				return err
			}
			defer a.Close()

			// Reassignment needs to touch every affected sidecar, so rebuild
			// the catalog before committing the removal.
			catalog, err := a.reconcile(cmd.Context())
			if err != nil {
				return err
			}

			err = a.registry.Remove(args[0], func(from, to model.Status) error {
				return a.store.ReassignStatus(catalog.Entries, from, to)
			})
			if err != nil {
				return err
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Removed status %q", args[0])))
			return nil
		},
	}
}

func statusesReorderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <name>...",
		Short: "Set a new status order",
		Long: `Replace the status order with the given sequence. Every current status
must appear exactly once; the first one becomes the new default.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			a, err := initApp()
			if err != nil {
				return err
			}
			defer a.Close()

			order := make([]model.Status, 0, len(args))
			for _, name := range args {
				status, ok := model.NewStatus(name)
				if !ok {
					return fmt.Errorf("invalid status name %q", name)
				}
				order = append(order, status)
			}

			if err := a.registry.Reorder(order); err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf(
				"Reordered statuses; %q is now the default", order[0])))
			return nil
		},
	}
}
