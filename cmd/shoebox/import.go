package main

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Halewood/shoebox/internal/cli"
	"github.com/Halewood/shoebox/internal/model"
	"github.com/Halewood/shoebox/internal/service"
)

func importCmd() *cobra.Command {
	var (
		nameFlag   string
		yearFlag   int
		statusFlag string
		notesFlag  string
		amountFlag string
		targetFlag string
		moveFlag   bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import files into the storage tree",
		Long: `Copy (or move) files into the year partition and write their sidecar
metadata. One file creates a simple record; several files create a
document folder; --to appends to an existing record.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := initApp()
			if err != nil {
				return err
			}
			defer a.Close()

			draft, err := draftFromFlags(nameFlag, yearFlag, statusFlag, notesFlag, amountFlag)
			if err != nil {
				return err
			}

			opts := service.ImportOptions{}
			if moveFlag {
				mode := service.ModeMove
				opts.Mode = &mode
			}
			if targetFlag != "" {
				target, err := a.findEntry(cmd.Context(), targetFlag)
				if err != nil {
					return err
				}
				opts.Target = target
			}

			bar := cli.NewBatchProgress(os.Stderr, len(args), "importing")
			entry, result, err := a.store.Import(cmd.Context(), args, draft, opts)
			if err != nil {
				_ = bar.Finish()
				return err
			}
			_ = bar.Add(len(result.Imported))
			_ = bar.Finish()

			if opts.Target != nil {
				a.engine.ApplyUpdate(*entry)
			} else {
				a.engine.AddEntries(*entry)
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf(
				"Imported %d file(s) into %s", len(result.Imported), result.RecordPath)))
			for _, failure := range result.Failures {
				fmt.Println(cli.WarningStyle.Render(fmt.Sprintf(
					"  skipped %s: %v", failure.Path, failure.Err)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&nameFlag, "name", "", "record display name (default: first file name)")
	cmd.Flags().IntVar(&yearFlag, "year", 0, "tax year (default: current year)")
	cmd.Flags().StringVar(&statusFlag, "status", "", "record status (default: registry default)")
	cmd.Flags().StringVar(&notesFlag, "notes", "", "free-text notes")
	cmd.Flags().StringVar(&amountFlag, "amount", "", "currency amount, e.g. 123.45")
	cmd.Flags().StringVar(&targetFlag, "to", "", "append to the named existing record")
	cmd.Flags().BoolVar(&moveFlag, "move", false, "move instead of copying, overriding the configured mode")

	return cmd
}

// draftFromFlags assembles a DraftMeta from the shared metadata flags.
func draftFromFlags(name string, year int, status, notes, amount string) (model.DraftMeta, error) {
	draft := model.DraftMeta{
		Name:  name,
		Year:  year,
		Notes: notes,
	}

	if status != "" {
		parsed, ok := model.NewStatus(status)
		if !ok {
			return draft, fmt.Errorf("invalid status %q", status)
		}
		draft.Status = parsed
	}

	if amount != "" {
		parsed, err := decimal.NewFromString(amount)
		if err != nil {
			return draft, fmt.Errorf("invalid amount %q: %w", amount, err)
		}
		draft.Amount = &parsed
	}

	return draft, nil
}
