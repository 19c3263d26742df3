package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	models "folio/internal/domain/models/explorer"
	"folio/internal/service/explorer"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls [folder-id]",
	Short: "List a folder, or the root when no id is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query, _ := cmd.Flags().GetString("query")
		sort, _ := cmd.Flags().GetString("sort")
		order, _ := cmd.Flags().GetString("order")

		view, err := models.ParseViewState(query, sort, order, string(models.DisplayList))
		if err != nil {
			return err
		}

		var folderID *string
		if len(args) == 1 {
			folderID = &args[0]
		}

		a, err := newApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		listing, err := explorer.Browse(cmd.Context(), a.Tree, models.ScopeOf(folderID), view)
		if err != nil {
			return err
		}

		fmt.Fprintln(out(cmd), breadcrumb(listing.Location))

		w := tabwriter.NewWriter(out(cmd), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KIND\tNAME\tSIZE\tCREATED\tID")
		for _, entry := range listing.Entries {
			switch e := entry.(type) {
			case models.FolderEntry:
				fmt.Fprintf(w, "folder\t%s\t-\t%s\t%s\n", e.Name, humanize.Time(e.CreatedAt), e.ID)
			case models.FileEntry:
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Icon, e.Name, humanize.IBytes(uint64(e.FileSize)), humanize.Time(e.CreatedAt), e.ID)
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Fprintf(out(cmd), "%d of %d entries\n", len(listing.Entries), listing.Total)
		return nil
	},
}

func breadcrumb(loc *models.Location) string {
	parts := []string{""}
	for _, f := range loc.Path {
		parts = append(parts, f.Name)
	}
	if len(parts) == 1 {
		return "/"
	}
	return strings.Join(parts, "/")
}
