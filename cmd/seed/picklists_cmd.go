package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPicklistsCmd() *cobra.Command {
	var (
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "picklists",
		Short: "Upsert members, departments and periods from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadPicklists(file)
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%d subjects, %d periods valid\n", len(f.Subjects), len(f.Periods))
				return nil
			}
			repo, closeDB, err := openRepo()
			if err != nil {
				return err
			}
			defer closeDB()
			if err := applyPicklists(cmd.Context(), repo, f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d subjects, %d periods\n", len(f.Subjects), len(f.Periods))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "seeds/picklists.yaml", "Picklist YAML file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate the file without writing")
	return cmd
}
