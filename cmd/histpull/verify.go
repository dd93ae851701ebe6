package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"histpull/internal/sysres"
	"histpull/internal/verify"
)

func newVerifyCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Scan written artifacts for rows with missing data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := verify.Scan(dir, sysres.Detect().ChunkRows(), nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, fr := range report.Files {
				fmt.Fprintf(out, "%s: %d rows, %d with missing data\n", fr.File, fr.Rows, fr.MissingRows)

				cols := make([]string, 0, len(fr.MissingByColumn))
				for col := range fr.MissingByColumn {
					cols = append(cols, col)
				}
				sort.Strings(cols)
				for _, col := range cols {
					fmt.Fprintf(out, "  %s: %d missing\n", col, fr.MissingByColumn[col])
				}
			}

			if total := report.TotalMissingRows(); total > 0 {
				return fmt.Errorf("%d row(s) with missing data across %d file(s)", total, len(report.Files))
			}
			fmt.Fprintf(out, "%d file(s) clean\n", len(report.Files))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "out", "directory containing parquet artifacts")

	return cmd
}
