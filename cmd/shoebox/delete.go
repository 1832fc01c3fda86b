package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Halewood/shoebox/internal/cli"
	"github.com/Halewood/shoebox/internal/model"
)

func deleteCmd() *cobra.Command {
	var forceFlag bool

	cmd := &cobra.Command{
		Use:   "delete <record>...",
		Short: "Delete records and their files",
		Long: `Remove records from the storage tree: the backing file (or whole
document-folder) plus the sidecar. This cannot be undone.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := initApp()
			if err != nil {
				return err
			}
			defer a.Close()

			catalog, err := a.reconcile(cmd.Context())
			if err != nil {
				return err
			}

			var targets []model.Entry
			for _, name := range args {
				entry := catalog.FindByName(name)
				if entry == nil {
					return fmt.Errorf("no record named %q", name)
				}
				targets = append(targets, *entry)
			}

			if !forceFlag {
				question := fmt.Sprintf("Delete %d record(s) and their files?", len(targets))
				if !cli.Confirm(os.Stdin, os.Stdout, question) {
					fmt.Println(cli.SubtleStyle.Render("Aborted."))
					return nil
				}
			}

			deleted, result := a.store.DeleteMany(targets)
			a.engine.RemoveEntries(deleted...)

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Deleted %d record(s)", result.Succeeded)))
			for _, failure := range result.Failures {
				fmt.Println(cli.WarningStyle.Render(fmt.Sprintf(
					"  failed %s: %v", failure.Path, failure.Err)))
			}
			if len(result.Failures) > 0 {
				return fmt.Errorf("%d record(s) could not be deleted", len(result.Failures))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "skip the confirmation prompt")

	return cmd
}

func detachCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detach <record> <filename>",
		Short: "Remove one attached file from a record",
		Long: `Delete a single file out of a document-folder. A folder left with one
file collapses back to a simple record; removing the last file deletes
the record entirely.`,
		Args: cobra.ExactArgs(2),
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

			updated, err := a.store.RemoveAttachment(entry, args[1])
			if err != nil {
				return err
			}

			if updated == nil {
				a.engine.RemoveEntries(entry.ID)
				fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf(
					"Removed the last file; record %q deleted", entry.Document.Name)))
				return nil
			}

			a.engine.ApplyUpdate(*updated)
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf(
				"Removed %s from %q (%d file(s) left)",
				args[1], updated.Document.Name, len(updated.Document.Attachments))))
			return nil
		},
	}

	return cmd
}
