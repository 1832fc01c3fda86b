package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Halewood/shoebox/internal/cli"
	"github.com/Halewood/shoebox/internal/model"
)

func listCmd() *cobra.Command {
	var (
		yearFlag   int
		filterFlag string
		allYears   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents in the catalog",
		Long: `Rebuild the catalog from the storage tree and list its documents.
By default only the selected (most recent) year is shown.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := initApp()
			if err != nil {
				return err
			}
			defer a.Close()

			catalog, err := a.reconcile(cmd.Context())
			if err != nil {
				return err
			}

			if len(catalog.Entries) == 0 {
				fmt.Println(cli.InfoStyle.Render("No documents yet. Use 'shoebox import' to add some."))
				return nil
			}

			entries := catalog.Filter(filterFlag)
			if !allYears {
				year := yearFlag
				if year == 0 {
					year = catalog.SelectedYear
				}
				entries = filterYear(entries, year)
			}

			renderTable(entries)
			return nil
		},
	}

	cmd.Flags().IntVar(&yearFlag, "year", 0, "show a specific year")
	cmd.Flags().StringVar(&filterFlag, "filter", "", "substring filter on name, notes, and filename")
	cmd.Flags().BoolVar(&allYears, "all", false, "show every year")

	return cmd
}

func filterYear(entries []model.Entry, year int) []model.Entry {
	var out []model.Entry
	for _, e := range entries {
		if e.Document.Year == year {
			out = append(out, e)
		}
	}
	return out
}

func renderTable(entries []model.Entry) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Year", "Status", "Amount", "Files", "Where"})

	total := decimal.Zero
	counted := false
	for _, e := range entries {
		doc := e.Document

		amount := ""
		if doc.Amount != nil {
			amount = doc.Amount.StringFixed(2)
			total = total.Add(*doc.Amount)
			counted = true
		}

		files := strconv.Itoa(len(doc.Attachments))
		if e.IsPlaceholder {
			files = "none"
		}

		where := e.Availability.String()
		if e.IsDownloading {
			where = "downloading"
		}

		t.AppendRow(table.Row{doc.Name, doc.Year, doc.Status.String(), amount, files, where})
	}

	if counted {
		t.AppendFooter(table.Row{"", "", "Total", total.StringFixed(2), "", ""})
	}
	t.Render()
}
