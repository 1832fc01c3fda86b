package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Halewood/shoebox/internal/cli"
)

func placeholderCmd() *cobra.Command {
	var (
		yearFlag   int
		statusFlag string
		notesFlag  string
		amountFlag string
	)

	cmd := &cobra.Command{
		Use:   "placeholder <name>",
		Short: "Create a placeholder for a document you expect but don't have yet",
		Long: `Write a zero-byte placeholder file plus its sidecar. The record shows
up in the catalog as "no file attached" until the real document arrives.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			a, err := initApp()
			if err != nil {
				return err
			}
			defer a.Close()

			draft, err := draftFromFlags(args[0], yearFlag, statusFlag, notesFlag, amountFlag)
			if err != nil {
				return err
			}

			entry, err := a.store.CreatePlaceholder(draft)
			if err != nil {
				return err
			}
			a.engine.AddEntries(*entry)

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf(
				"Created placeholder %q for %d", entry.Document.Name, entry.Document.Year)))
			return nil
		},
	}

	cmd.Flags().IntVar(&yearFlag, "year", 0, "tax year (default: current year)")
	cmd.Flags().StringVar(&statusFlag, "status", "", "record status (default: registry default)")
	cmd.Flags().StringVar(&notesFlag, "notes", "", "free-text notes")
	cmd.Flags().StringVar(&amountFlag, "amount", "", "currency amount, e.g. 123.45")

	return cmd
}
