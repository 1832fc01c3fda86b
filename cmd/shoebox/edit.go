package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Halewood/shoebox/internal/cli"
	"github.com/Halewood/shoebox/internal/model"
)

func editCmd() *cobra.Command {
	var (
		nameFlag   string
		statusFlag string
		notesFlag  string
		amountFlag string
	)

	cmd := &cobra.Command{
		Use:   "edit <record>",
		Short: "Edit a record's metadata",
		Long: `Update the sidecar metadata of an existing record. Only the flags you
pass change; everything else, including attached files, stays put.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := initApp()
			if err != nil {
				return err
			}
			defer a.Close()

			entry, err := a.findEntry(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			doc := entry.Document.Clone()
			changed := false

			if cmd.Flags().Changed("name") {
				if nameFlag == "" {
					return fmt.Errorf("record name cannot be empty")
				}
				doc.Name = nameFlag
				changed = true
			}
			if cmd.Flags().Changed("status") {
				status, ok := model.NewStatus(statusFlag)
				if !ok {
					return fmt.Errorf("invalid status %q", statusFlag)
				}
				if err := a.registry.Discover(status); err != nil {
					return err
				}
				doc.Status = status
				changed = true
			}
			if cmd.Flags().Changed("notes") {
				doc.Notes = notesFlag
				changed = true
			}
			if cmd.Flags().Changed("amount") {
				if amountFlag == "" {
					doc.Amount = nil
				} else {
					parsed, err := decimal.NewFromString(amountFlag)
					if err != nil {
						return fmt.Errorf("invalid amount %q: %w", amountFlag, err)
					}
					doc.Amount = &parsed
				}
				changed = true
			}

			if !changed {
				fmt.Println(cli.SubtleStyle.Render("Nothing to change."))
				return nil
			}

			updated := *entry
			updated.Document = doc
			if err := a.store.Update(&updated); err != nil {
				return err
			}
			a.engine.ApplyUpdate(updated)

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Updated %q", doc.Name)))
			return nil
		},
	}

	cmd.Flags().StringVar(&nameFlag, "name", "", "new display name")
	cmd.Flags().StringVar(&statusFlag, "status", "", "new status (unknown statuses are added to the registry)")
	cmd.Flags().StringVar(&notesFlag, "notes", "", "new notes (pass empty to clear)")
	cmd.Flags().StringVar(&amountFlag, "amount", "", "new amount (pass empty to clear)")

	return cmd
}
