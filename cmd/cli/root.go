package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"batchrunner/cmd/cli/runcmd"
)

var RootCmd = &cobra.Command{
	Use:   "brctl",
	Short: "BatchRunner - A periodic chunked batch job runner",
	Long: `BatchRunner periodically runs a batch job that reads records from a source, groups them
into fixed size chunks and hands every chunk to a writer.

Use "run scheduler" to launch the job at a fixed rate with its control console, or "run once"
to run the job a single time.`,
}

func init() {
	RootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	RootCmd.PersistentFlags().String("env-file", "", "dotenv file with BR_* variables, defaults to ./.env when present")
	RootCmd.AddCommand(runcmd.Command)
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v", err)
		os.Exit(1)
	}
}
