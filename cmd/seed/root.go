package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load rubrics and picklists into the assessment database",
	}
	cmd.AddCommand(newRubricsCmd())
	cmd.AddCommand(newPicklistsCmd())
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
