package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Halewood/shoebox/internal/cli"
	"github.com/Halewood/shoebox/internal/csvimport"
	"github.com/Halewood/shoebox/internal/model"
)

func csvCmd() *cobra.Command {
	var onDuplicate string

	cmd := &cobra.Command{
		Use:   "csv <file>",
		Short: "Create placeholders in bulk from a CSV file",
		Long: `Read a CSV file with a header line (name, year, status, amount, notes —
any order, only name is required) and create one placeholder per valid
row. Invalid rows are reported and skipped; they never block the rest.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if onDuplicate != "skip" && onDuplicate != "suffix" {
				return fmt.Errorf("invalid --on-duplicate %q (want skip or suffix)", onDuplicate)
			}

			a, err := initApp()
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open CSV file: %w", err)
			}
			defer f.Close()

			rows, err := csvimport.Parse(f)
			if err != nil {
				return err
			}

			valid := csvimport.ValidRows(rows)
			for _, row := range rows {
				if row.Valid {
					continue
				}
				fmt.Println(cli.WarningStyle.Render(fmt.Sprintf(
					"  line %d skipped: %s", row.Line, strings.Join(row.Errs, "; "))))
			}
			if len(valid) == 0 {
				return fmt.Errorf("no valid rows in %s", args[0])
			}

			drafts := make([]model.DraftMeta, 0, len(valid))
			if onDuplicate == "skip" {
				catalog, err := a.reconcile(cmd.Context())
				if err != nil {
					return err
				}
				skipped := 0
				for _, row := range valid {
					if catalog.FindByName(row.Name) != nil {
						skipped++
						fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf(
							"  line %d: %q already exists, skipped", row.Line, row.Name)))
						continue
					}
					drafts = append(drafts, row.Draft())
				}
				if skipped > 0 {
					fmt.Println(cli.InfoStyle.Render(fmt.Sprintf(
						"Skipped %d duplicate name(s)", skipped)))
				}
			} else {
				for _, row := range valid {
					drafts = append(drafts, row.Draft())
				}
			}

			if len(drafts) == 0 {
				fmt.Println(cli.SubtleStyle.Render("Nothing to create."))
				return nil
			}

			// Statuses in the file may be new to the registry.
			for _, draft := range drafts {
				if !draft.Status.IsZero() {
					if err := a.registry.Discover(draft.Status); err != nil {
						return err
					}
				}
			}

			entries, result, err := a.store.CreateBulkPlaceholders(drafts)
			if err != nil {
				return err
			}
			a.engine.AddEntries(entries...)

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf(
				"Created %d placeholder(s)", result.Succeeded)))
			for _, failure := range result.Failures {
				fmt.Println(cli.WarningStyle.Render(fmt.Sprintf(
					"  failed %s: %v", failure.Path, failure.Err)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&onDuplicate, "on-duplicate", "suffix",
		"what to do when a row's name already exists: skip or suffix")

	return cmd
}
