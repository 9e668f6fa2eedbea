// Command splitctl splits receipts from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitty/internal/config"
	"github.com/mmynk/splitty/pkg/logging"
)

var (
	logLevel  string
	logFormat string

	rootCmd = &cobra.Command{
		Use:   "splitctl",
		Short: "Split a receipt between the people who shared it",
		Long: `splitctl reads a recognized receipt, assigns its items to people and
prints what each of them owes, with tax, tip and other charges shared equally.`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logging.Configure(logLevel, logFormat)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	rootCmd.AddCommand(splitCmd())
	rootCmd.AddCommand(analyzeCmd())
}

func main() {
	config.LoadDotEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
