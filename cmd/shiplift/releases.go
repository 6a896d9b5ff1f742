package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avezina/shiplift/internal/config"
	"github.com/avezina/shiplift/internal/db"
)

func newReleasesCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "releases",
		Short: "List recorded deployments for the service",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := openDatabase()
			if err != nil {
				return err
			}
			defer database.Close()

			releases := db.NewReleaseRepository(database)
			if err := releases.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			rows, err := releases.List(cmd.Context(), config.ServiceName(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No releases recorded.")
				return nil
			}
			fmt.Fprintf(out, "%-4s %-20s %-10s %-12s %-10s %s\n",
				"ID", "WHEN", "STATUS", "TAG", "REVISION", "TASK DEFINITION")
			for _, r := range rows {
				fmt.Fprintf(out, "%-4d %-20s %-10s %-12s %-10s %s\n",
					r.ID,
					r.CreatedAt.Format("2006-01-02 15:04:05"),
					r.Status,
					r.ImageTag,
					shortRevision(r.Revision),
					r.TaskDefARN,
				)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of releases to list")
	return cmd
}

func shortRevision(rev string) string {
	if len(rev) > 8 {
		return rev[:8]
	}
	return rev
}
