package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/iho/bookkeeper/internal/adapter/jobs"
)

func ledgerCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "consistency",
		Short: "Check that posted debits equal posted credits",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, "/api/v1/ledger/consistency", nil, nil)
			var apiErr *apiError
			if errors.As(err, &apiErr) && len(apiErr.Details) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Consistency check FAILED")
				_ = printJSON(cmd.OutOrStdout(), apiErr.Details)
				return err
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Consistency check PASSED")
			return printJSON(cmd.OutOrStdout(), resp.Data)
		},
	})
	return cmd
}

func accrualsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accruals",
		Short: "Accrual reversal operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "process",
		Short: "Reverse every accrual whose reversal date has arrived",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, "/api/v1/admin/accruals/process", nil, nil)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp.Data)
		},
	})
	return cmd
}

func reportsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Consolidated reports",
	}

	var groupID, reportType, start, end string
	consolidate := &cobra.Command{
		Use:   "consolidate",
		Short: "Generate a consolidated report for a group",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("groupId", groupID)
			q.Set("reportType", reportType)
			q.Set("startDate", start)
			q.Set("endDate", end)

			resp, err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, "/api/v1/consolidation/reports?"+q.Encode(), nil, nil)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp.Data)
		},
	}
	consolidate.Flags().StringVar(&groupID, "group", "", "Consolidation group id")
	consolidate.Flags().StringVar(&reportType, "type", "balance_sheet", "balance_sheet, income_statement or trial_balance")
	consolidate.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	consolidate.Flags().StringVar(&end, "end", "", "End date (YYYY-MM-DD)")
	_ = consolidate.MarkFlagRequired("group")
	_ = consolidate.MarkFlagRequired("start")
	_ = consolidate.MarkFlagRequired("end")

	cmd.AddCommand(consolidate)
	return cmd
}

func batchCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Journal entry batches",
	}

	var clientID int64
	var file, idempotencyKey string

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Validate a batch of proposed entry groups from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readJSONFile(file)
			if err != nil {
				return err
			}
			path := fmt.Sprintf("/api/v1/clients/%d/journal-entries/batch-validate", clientID)
			resp, err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, path, bytes.NewReader(body), nil)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp.Data)
		},
	}

	process := &cobra.Command{
		Use:   "process",
		Short: "Post an approved batch from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readJSONFile(file)
			if err != nil {
				return err
			}
			headers := map[string]string{}
			if idempotencyKey != "" {
				headers["Idempotency-Key"] = idempotencyKey
			}
			path := fmt.Sprintf("/api/v1/clients/%d/journal-entries/batch-process", clientID)
			resp, err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, path, bytes.NewReader(body), headers)
			var apiErr *apiError
			if errors.As(err, &apiErr) && len(apiErr.Details) > 0 {
				_ = printJSON(cmd.OutOrStdout(), apiErr.Details)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp.Data)
		},
	}
	process.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency-Key header value")

	for _, c := range []*cobra.Command{validate, process} {
		c.Flags().Int64Var(&clientID, "client", 0, "Client id")
		c.Flags().StringVarP(&file, "file", "f", "", "Path to the JSON request body")
		_ = c.MarkFlagRequired("client")
		_ = c.MarkFlagRequired("file")
		cmd.AddCommand(c)
	}
	return cmd
}

func jobsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Background job queue",
	}

	cmd.AddCommand(&cobra.Command{
		Use:       "trigger [accruals|ledger]",
		Short:     "Enqueue a background job for the worker",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"accruals", "ledger"},
		RunE: func(cmd *cobra.Command, args []string) error {
			redisOpts, err := asynq.ParseRedisURI(opts.redisURL)
			if err != nil {
				return err
			}
			client := jobs.NewClient(redisOpts)
			defer client.Close()

			enqueue := client.EnqueueAccrualReversal
			if args[0] == "ledger" {
				enqueue = client.EnqueueLedgerConsistency
			}
			info, err := enqueue(cmd.Context(), "cli")
			if err != nil {
				return fmt.Errorf("enqueue %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s task %s on queue %s\n", info.Type, info.ID, info.Queue)
			return nil
		},
	})
	return cmd
}

func readJSONFile(path string) ([]byte, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%s does not contain valid JSON", path)
	}
	return body, nil
}
