// recs-pipeline runs a record pipeline described in a YAML file against
// standard input or input files, writing the result to standard output.
//
// Usage:
//
//	recs-pipeline run -f pipeline.yaml [input-file...]
//	recs-pipeline stages
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "recs-pipeline",
	Short: "Run record-transformation pipelines",
	Long: "recs-pipeline composes named record-transformation stages into a chain\n" +
		"and streams input through it, the way recs composes command-line filters.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stagesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
