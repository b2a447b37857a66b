package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRubricsCmd() *cobra.Command {
	var (
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "rubrics",
		Short: "Upsert rubrics and their criteria from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			rubrics, err := loadRubrics(file)
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%d rubrics valid\n", len(rubrics))
				return nil
			}
			repo, closeDB, err := openRepo()
			if err != nil {
				return err
			}
			defer closeDB()
			if err := applyRubrics(cmd.Context(), repo, rubrics); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d rubrics\n", len(rubrics))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "seeds/rubrics.yaml", "Rubric YAML file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate the file without writing")
	return cmd
}
