package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type options struct {
	baseURL  string
	timeout  time.Duration
	redisURL string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "bookkeeper-cli",
		Short:         "Bookkeeper CLI tool",
		Long:          `A command line interface for operating the bookkeeping API and its background jobs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", envOr("BOOKKEEPER_URL", "http://localhost:8080"), "Base URL of the bookkeeping API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 60*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&opts.redisURL, "redis", envOr("REDIS_URL", "redis://localhost:6379"), "Redis URL of the job queue")

	rootCmd.AddCommand(
		ledgerCmd(opts),
		accrualsCmd(opts),
		reportsCmd(opts),
		batchCmd(opts),
		jobsCmd(opts),
	)
	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
